package completion

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/pkg/config"
	"github.com/papercomputeco/simplechat/pkg/llm"
	"github.com/papercomputeco/simplechat/pkg/logger"
)

// OpenAIClient talks to an OpenAI-compatible chat-completions API.
type OpenAIClient struct {
	api    *openai.Client
	model  string
	hasKey bool
	logger *zap.Logger
}

// NewOpenAIClient builds a client from cfg. A missing credential is not an
// error here; it surfaces as a ConfigError on the first Complete.
func NewOpenAIClient(cfg *config.Config, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		api:    openai.NewClientWithConfig(NewOpenAIConfig(cfg)),
		model:  cfg.Model,
		hasKey: cfg.APIKey != "",
		logger: logger,
	}
}

// NewOpenAIConfig maps cfg onto a go-openai client configuration. It is shared
// with the speech capabilities so that all calls use the same endpoint.
func NewOpenAIConfig(cfg *config.Config) openai.ClientConfig {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return oc
}

// Complete sends prompt, plus the image inline when one is given, as the sole
// user message of a new conversation.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, image *llm.Image) (string, error) {
	if !c.hasKey {
		return "", ConfigError{Reason: "API key not found, set OPENAI_API_KEY"}
	}
	if err := ValidatePrompt(prompt); err != nil {
		return "", err
	}

	startTime := time.Now()
	c.logger.Debug("sending completion request",
		zap.String("model", c.model),
		zap.String("prompt_preview", logger.Preview(prompt, 100)),
		zap.Bool("image", image != nil),
	)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: []openai.ChatCompletionMessage{userMessage(prompt, image)},
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", UpstreamError{Message: "response contained no choices"}
	}

	reply := resp.Choices[0].Message.Content
	c.logger.Debug("received completion",
		zap.String("model", resp.Model),
		zap.String("content_preview", logger.Preview(reply, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return reply, nil
}

func userMessage(prompt string, image *llm.Image) openai.ChatCompletionMessage {
	if image == nil {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}
	}

	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    image.URL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}
}

// classify maps go-openai failures onto the completion error taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return UpstreamError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return UpstreamError{Status: reqErr.HTTPStatusCode, Message: msg}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return TransportError{Err: err}
	}

	return UpstreamError{Message: "malformed response: " + err.Error()}
}
