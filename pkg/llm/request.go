package llm

// ChatRequest is the body accepted by the proxy's chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`         // The user prompt
	Image   string `json:"image,omitempty"` // Optional data URI or http(s) URL
}
