// Package globals carries the state shared by every simplechat subcommand:
// the persistent flags, the loaded configuration and the logger.
package globals

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/pkg/completion"
	"github.com/papercomputeco/simplechat/pkg/config"
	"github.com/papercomputeco/simplechat/pkg/logger"
)

// Globals is populated once by the root command before any subcommand runs.
type Globals struct {
	ConfigPath string
	Debug      bool
	Version    string

	Config *config.Config
	Logger *zap.Logger
}

// Load reads and validates the configuration and builds the logger. Log lines
// go to logOut.
func (g *Globals) Load(logOut io.Writer) error {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return err
	}
	if g.Debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	g.Config = cfg
	g.Logger = logger.NewLogger(logOut, cfg.Debug)
	return nil
}

// Completer returns the proxy client when a proxy is configured and the
// direct upstream client otherwise.
func (g *Globals) Completer(log *zap.Logger) completion.Completer {
	if g.Config.ProxyURL != "" {
		return completion.NewProxyClient(g.Config.ProxyURL, g.Config.Timeout, log)
	}
	return completion.NewOpenAIClient(g.Config, log)
}
