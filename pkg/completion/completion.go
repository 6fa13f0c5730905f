// Package completion sends a single user prompt, optionally with an image, to a
// chat-completion endpoint and returns the assistant's reply.
//
// Every call makes at most one outbound request. There is no retry, caching or
// deduplication. Failures are classified as ConfigError, ValidationError,
// UpstreamError or TransportError.
package completion

import (
	"context"
	"strings"

	"github.com/papercomputeco/simplechat/pkg/llm"
)

// Completer is implemented by OpenAIClient and ProxyClient.
type Completer interface {
	Complete(ctx context.Context, prompt string, image *llm.Image) (string, error)
}

// ValidatePrompt returns a ValidationError for prompts that are empty after
// trimming whitespace.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ValidationError{Reason: "prompt is empty"}
	}
	return nil
}
