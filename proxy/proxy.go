// Package proxy provides a stateless HTTP endpoint that completes a single
// prompt on behalf of a client, so the upstream credential never has to leave
// the server.
package proxy

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/pkg/completion"
	"github.com/papercomputeco/simplechat/pkg/llm"
	"github.com/papercomputeco/simplechat/pkg/logger"
)

// Proxy forwards chat requests to a completion.Completer. It keeps no state
// between requests.
type Proxy struct {
	config    Config
	completer completion.Completer
	logger    *zap.Logger
	server    *fiber.App
}

// New creates a new Proxy.
func New(config Config, completer completion.Completer, logger *zap.Logger) (*Proxy, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}

	bodyLimit := config.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
	})

	p := &Proxy{
		config:    config,
		completer: completer,
		logger:    logger,
		server:    app,
	}
	p.registerRoutes(app)

	return p, nil
}

func (p *Proxy) registerRoutes(app *fiber.App) {
	app.Post("/api/chat", p.handleChat)
	// Any other method on the chat route.
	app.All("/api/chat", p.handleMethodNotAllowed)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// Run starts the proxy server on the given listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting proxy server", zap.String("listen", p.config.ListenAddr))
	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener serves on an already bound listener.
func (p *Proxy) RunWithListener(ln net.Listener) error {
	p.logger.Info("starting proxy server", zap.String("listen", ln.Addr().String()))
	return p.server.Listener(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (p *Proxy) Shutdown() error {
	return p.server.Shutdown()
}

// Handler exposes the proxy as a net/http handler for embedding in other
// servers.
func (p *Proxy) Handler() http.Handler {
	return adaptor.FiberApp(p.server)
}

// handleChat completes one prompt. The image, when present, is forwarded
// inline; it is never replaced by a textual description.
func (p *Proxy) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	var req llm.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		p.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "Message is required"})
	}

	var image *llm.Image
	if req.Image != "" {
		img, err := llm.ParseImage(req.Image)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
		}
		image = &img
	}

	p.logger.Debug("received chat request",
		zap.String("message_preview", logger.Preview(req.Message, 100)),
		zap.Bool("image", image != nil),
	)

	reply, err := p.completer.Complete(c.UserContext(), req.Message, image)
	if err != nil {
		p.logger.Error("completion failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	p.logger.Info("chat completed",
		zap.String("reply_preview", logger.Preview(reply, 50)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return c.JSON(llm.ChatResponse{Reply: reply})
}

func (p *Proxy) handleMethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, fiber.MethodPost)
	return c.Status(fiber.StatusMethodNotAllowed).JSON(llm.ErrorResponse{Error: "Method not allowed"})
}
