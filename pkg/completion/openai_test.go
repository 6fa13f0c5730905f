package completion_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/pkg/completion"
	"github.com/papercomputeco/simplechat/pkg/config"
	"github.com/papercomputeco/simplechat/pkg/llm"
)

// upstreamRequest mirrors the fields of a chat-completions body the tests
// assert on.
type upstreamRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

const successBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o-mini",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "Hello back"}, "finish_reason": "stop"},
    {"index": 1, "message": {"role": "assistant", "content": "ignored"}, "finish_reason": "stop"}
  ]
}`

var _ = Describe("OpenAIClient", func() {
	var (
		ctx      context.Context
		calls    atomic.Int32
		captured upstreamRequest
		authz    string
		status   int
		body     string
		server   *httptest.Server
		cfg      *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls.Store(0)
		captured = upstreamRequest{}
		status = http.StatusOK
		body = successBody

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			authz = r.Header.Get("Authorization")

			raw, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(raw, &captured)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		}))

		cfg = config.Default()
		cfg.APIKey = "sk-test"
		cfg.BaseURL = server.URL + "/v1"
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func() *completion.OpenAIClient {
		return completion.NewOpenAIClient(cfg, zap.NewNop())
	}

	It("returns the first choice unmodified", func() {
		reply, err := newClient().Complete(ctx, "Hello", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("Hello back"))
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("sends exactly one user message with a bearer token", func() {
		_, err := newClient().Complete(ctx, "Hello", nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(authz).To(Equal("Bearer sk-test"))
		Expect(captured.Model).To(Equal(config.DefaultModel))
		Expect(captured.Messages).To(HaveLen(1))
		Expect(captured.Messages[0].Role).To(Equal("user"))

		var content string
		Expect(json.Unmarshal(captured.Messages[0].Content, &content)).To(Succeed())
		Expect(content).To(Equal("Hello"))
	})

	It("sends the image inline next to the prompt", func() {
		img := llm.Image{URL: "data:image/png;base64,iVBORw0KGgo="}
		_, err := newClient().Complete(ctx, "What's in this image?", &img)
		Expect(err).NotTo(HaveOccurred())

		Expect(captured.Messages).To(HaveLen(1))
		var parts []contentPart
		Expect(json.Unmarshal(captured.Messages[0].Content, &parts)).To(Succeed())
		Expect(parts).To(HaveLen(2))
		Expect(parts[0].Type).To(Equal("text"))
		Expect(parts[0].Text).To(Equal("What's in this image?"))
		Expect(parts[1].Type).To(Equal("image_url"))
		Expect(parts[1].ImageURL).NotTo(BeNil())
		Expect(parts[1].ImageURL.URL).To(Equal(img.URL))
	})

	It("fails with ConfigError and no call when the credential is missing", func() {
		cfg.APIKey = ""
		_, err := newClient().Complete(ctx, "Hello", nil)

		var cfgErr completion.ConfigError
		Expect(err).To(BeAssignableToTypeOf(cfgErr))
		Expect(calls.Load()).To(BeZero())
	})

	It("rejects a blank prompt without a call", func() {
		_, err := newClient().Complete(ctx, "   \n\t", nil)

		var valErr completion.ValidationError
		Expect(err).To(BeAssignableToTypeOf(valErr))
		Expect(calls.Load()).To(BeZero())
	})

	It("surfaces the upstream error message on a non-2xx status", func() {
		status = http.StatusTooManyRequests
		body = `{"error": {"message": "rate limited", "type": "requests"}}`

		_, err := newClient().Complete(ctx, "hi", nil)
		Expect(err).To(Equal(completion.UpstreamError{Status: http.StatusTooManyRequests, Message: "rate limited"}))
	})

	It("classifies an unparseable error body as upstream", func() {
		status = http.StatusBadGateway
		body = `<html>bad gateway</html>`

		_, err := newClient().Complete(ctx, "hi", nil)
		var upErr completion.UpstreamError
		Expect(err).To(BeAssignableToTypeOf(upErr))
		Expect(err.(completion.UpstreamError).Status).To(Equal(http.StatusBadGateway))
	})

	It("classifies a malformed success body as upstream", func() {
		body = `{"choices": "nope"`

		_, err := newClient().Complete(ctx, "hi", nil)
		var upErr completion.UpstreamError
		Expect(err).To(BeAssignableToTypeOf(upErr))
		Expect(err.Error()).To(ContainSubstring("malformed"))
	})

	It("treats an empty choice list as upstream failure", func() {
		body = `{"id": "x", "choices": []}`

		_, err := newClient().Complete(ctx, "hi", nil)
		Expect(err).To(Equal(completion.UpstreamError{Message: "response contained no choices"}))
	})

	It("classifies connection failures as transport errors", func() {
		server.Close()

		_, err := newClient().Complete(ctx, "hi", nil)
		var tErr completion.TransportError
		Expect(err).To(BeAssignableToTypeOf(tErr))
	})
})

var _ = Describe("ValidatePrompt", func() {
	It("accepts text with surrounding whitespace", func() {
		Expect(completion.ValidatePrompt("  hi  ")).To(Succeed())
	})

	It("rejects empty input", func() {
		Expect(completion.ValidatePrompt("")).To(MatchError(completion.ValidationError{Reason: "prompt is empty"}))
	})
})
