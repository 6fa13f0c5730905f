package llm

// ChatResponse is the proxy's success body.
type ChatResponse struct {
	Reply string `json:"reply"`
}
