package servecmder

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/cmd/simplechat/globals"
	"github.com/papercomputeco/simplechat/pkg/completion"
	"github.com/papercomputeco/simplechat/proxy"
)

const serveLongDesc string = `Run the chat proxy.

The proxy accepts POST /api/chat with {"message": ..., "image": ...}
and answers {"reply": ...}. It completes each request on its own using
the upstream credential from OPENAI_API_KEY, so clients never see the key.

Examples:
  simplechat serve
  simplechat serve --listen 127.0.0.1:9000`

const serveShortDesc string = "Run the chat proxy"

type serveCommander struct {
	globals    *globals.Globals
	listenAddr string
}

func NewServeCmd(g *globals.Globals) *cobra.Command {
	cmder := &serveCommander{globals: g}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on (overrides config)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	addr := c.listenAddr
	if addr == "" {
		addr = c.globals.Config.ListenAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}

	return c.serve(ctx, ln)
}

// serve blocks until ctx is done or the server fails.
func (c *serveCommander) serve(ctx context.Context, ln net.Listener) error {
	cfg := c.globals.Config
	log := c.globals.Logger

	if cfg.APIKey == "" {
		log.Warn("no API key configured, every chat request will fail")
	}

	// The proxy always talks to the upstream directly, even if proxy_url is
	// set for the client side.
	p, err := proxy.New(proxy.Config{ListenAddr: ln.Addr().String()}, completion.NewOpenAIClient(cfg, log), log)
	if err != nil {
		ln.Close()
		return fmt.Errorf("could not create proxy: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.RunWithListener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down proxy", zap.String("listen", ln.Addr().String()))
		return p.Shutdown()
	}
}
