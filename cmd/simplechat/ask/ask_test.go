package askcmder

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/cmd/simplechat/globals"
	"github.com/papercomputeco/simplechat/pkg/completion"
	"github.com/papercomputeco/simplechat/pkg/config"
)

const upstreamReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Paris"}, "finish_reason": "stop"}]
}`

// 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

var _ = Describe("Ask Command", func() {
	var (
		upstream *httptest.Server
		bodies   chan []byte
		g        *globals.Globals
		out      *bytes.Buffer
	)

	BeforeEach(func() {
		bodies = make(chan []byte, 1)
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			bodies <- body
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(upstreamReply))
		}))
		DeferCleanup(upstream.Close)

		cfg := config.Default()
		cfg.APIKey = "test-key"
		cfg.BaseURL = upstream.URL + "/v1"
		g = &globals.Globals{Config: cfg, Logger: zap.NewNop()}
		out = &bytes.Buffer{}
	})

	execute := func(args ...string) error {
		cmd := NewAskCmd(g)
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("prints the reply", func() {
		Expect(execute("What", "is", "the", "capital", "of", "France?")).To(Succeed())
		Expect(out.String()).To(Equal("Paris\n"))

		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		Expect(json.Unmarshal(<-bodies, &req)).To(Succeed())
		Expect(req.Messages).To(HaveLen(1))
		Expect(req.Messages[0].Content).To(Equal("What is the capital of France?"))
	})

	It("sends an attached image inline", func() {
		path := filepath.Join(GinkgoT().TempDir(), "pixel.png")
		Expect(os.WriteFile(path, pngBytes, 0o600)).To(Succeed())

		Expect(execute("--image", path, "What is this?")).To(Succeed())
		Expect(string(<-bodies)).To(ContainSubstring("data:image/png;base64,"))
	})

	It("rejects a file that is not an image", func() {
		path := filepath.Join(GinkgoT().TempDir(), "notes.txt")
		Expect(os.WriteFile(path, []byte("just text"), 0o600)).To(Succeed())

		Expect(execute("--image", path, "What is this?")).To(MatchError(ContainSubstring("could not load image")))
		Expect(bodies).NotTo(Receive())
	})

	It("fails without a credential and without calling upstream", func() {
		g.Config.APIKey = ""

		err := execute("Hello")
		var configErr completion.ConfigError
		Expect(errors.As(err, &configErr)).To(BeTrue())
		Expect(bodies).NotTo(Receive())
	})

	It("requires a prompt", func() {
		Expect(execute()).To(HaveOccurred())
	})
})
