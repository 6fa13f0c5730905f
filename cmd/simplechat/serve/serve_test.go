package servecmder

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

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
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello back"}, "finish_reason": "stop"}]
}`

var _ = Describe("Serve Command", func() {
	var (
		ctx      context.Context
		cancel   context.CancelFunc
		upstream *httptest.Server
		cmder    *serveCommander
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())

		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(upstreamReply))
		}))
		DeferCleanup(upstream.Close)

		cfg := config.Default()
		cfg.APIKey = "test-key"
		cfg.BaseURL = upstream.URL + "/v1"

		cmder = &serveCommander{globals: &globals.Globals{Config: cfg, Logger: zap.NewNop()}}
	})

	start := func() (string, <-chan error) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		done := make(chan error, 1)
		go func() {
			done <- cmder.serve(ctx, ln)
		}()

		addr := "http://" + ln.Addr().String()
		Eventually(func() error {
			resp, err := http.Get(addr + "/health")
			if err == nil {
				resp.Body.Close()
			}
			return err
		}, 2*time.Second, 20*time.Millisecond).Should(Succeed())

		return addr, done
	}

	It("serves chat completions until the context ends", func() {
		addr, done := start()

		client := completion.NewProxyClient(addr, 5*time.Second, zap.NewNop())
		reply, err := client.Complete(ctx, "Hello", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("Hello back"))

		cancel()
		Eventually(done, 2*time.Second).Should(Receive(BeNil()))
	})

	It("reports upstream configuration problems through the proxy", func() {
		cmder.globals.Config.APIKey = ""
		addr, _ := start()
		defer cancel()

		client := completion.NewProxyClient(addr, 5*time.Second, zap.NewNop())
		_, err := client.Complete(ctx, "Hello", nil)

		var upstreamErr completion.UpstreamError
		Expect(errors.As(err, &upstreamErr)).To(BeTrue())
		Expect(upstreamErr.Status).To(Equal(http.StatusInternalServerError))
		Expect(upstreamErr.Message).To(ContainSubstring("API key"))
	})

	It("fails when the address is taken", func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		cmder.listenAddr = ln.Addr().String()
		Expect(cmder.run(ctx)).To(MatchError(ContainSubstring("could not listen")))
		cancel()
	})
})
