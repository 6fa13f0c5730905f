package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/pkg/llm"
	"github.com/papercomputeco/simplechat/pkg/logger"
)

// ProxyClient completes prompts through a simplechat proxy, so the credential
// stays on the proxy host.
type ProxyClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewProxyClient targets the chat endpoint of the proxy at baseURL.
func NewProxyClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ProxyClient {
	return &ProxyClient{
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/chat",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Complete posts the prompt and image to the proxy and returns its reply.
func (c *ProxyClient) Complete(ctx context.Context, prompt string, image *llm.Image) (string, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return "", err
	}

	body := llm.ChatRequest{Message: prompt}
	if image != nil {
		body.Image = image.URL
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("forwarding prompt to proxy",
		zap.String("url", c.endpoint),
		zap.String("prompt_preview", logger.Preview(prompt, 100)),
		zap.Int("body_size", len(reqBody)),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", TransportError{Err: err}
	}

	if httpResp.StatusCode != http.StatusOK {
		var errResp llm.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error == "" {
			return "", UpstreamError{Status: httpResp.StatusCode, Message: logger.Preview(string(respBody), 200)}
		}
		return "", UpstreamError{Status: httpResp.StatusCode, Message: errResp.Error}
	}

	// Reply is a pointer so a body without the field is told apart from an
	// empty reply.
	var resp struct {
		Reply *string `json:"reply"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", UpstreamError{Status: httpResp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if resp.Reply == nil {
		return "", UpstreamError{Status: httpResp.StatusCode, Message: "malformed response: missing reply"}
	}

	return *resp.Reply, nil
}
