// Package llm provides the wire representations shared by the completion
// client, the proxy and the conversation controller.
package llm

// ErrorResponse is the proxy's failure body.
type ErrorResponse struct {
	Error string `json:"error"`
}
