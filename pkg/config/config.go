// Package config loads simplechat settings from code defaults, an optional
// TOML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
)

const (
	DefaultBaseURL            = "https://api.openai.com/v1"
	DefaultModel              = "gpt-4o-mini"
	DefaultListenAddr         = ":8080"
	DefaultTTSModel           = "tts-1"
	DefaultVoice              = "alloy"
	DefaultTranscriptionModel = "whisper-1"
	DefaultExportPath         = "chat_history.txt"
)

// Config is constructed once at process start and passed by reference to the
// components that need it.
type Config struct {
	// APIKey is the upstream bearer credential. It is never read from the
	// config file.
	APIKey string `toml:"-" env:"OPENAI_API_KEY"`

	// BaseURL of the chat-completions API, including the version prefix.
	BaseURL string `toml:"base_url" env:"SIMPLECHAT_BASE_URL"`

	Model string `toml:"model" env:"SIMPLECHAT_MODEL"`

	// ProxyURL, when set, makes the chat front-end talk to a simplechat proxy
	// instead of the upstream API.
	ProxyURL string `toml:"proxy_url" env:"SIMPLECHAT_PROXY_URL"`

	// Address the proxy listens on (e.g., ":8080")
	ListenAddr string `toml:"listen" env:"SIMPLECHAT_LISTEN"`

	// Timeout bounds one completion round trip. Zero leaves it to the
	// transport.
	Timeout time.Duration `toml:"timeout" env:"SIMPLECHAT_TIMEOUT"`

	TTSModel           string `toml:"tts_model" env:"SIMPLECHAT_TTS_MODEL"`
	Voice              string `toml:"voice" env:"SIMPLECHAT_VOICE"`
	TranscriptionModel string `toml:"transcription_model" env:"SIMPLECHAT_TRANSCRIPTION_MODEL"`

	// SpeechDir receives synthesized audio. Empty disables text-to-speech.
	SpeechDir string `toml:"speech_dir" env:"SIMPLECHAT_SPEECH_DIR"`

	ExportPath string `toml:"export_path" env:"SIMPLECHAT_EXPORT_PATH"`

	Debug bool `toml:"debug" env:"SIMPLECHAT_DEBUG"`
}

// legacyEnv holds credential names accepted for compatibility with the web
// build of the front-end.
type legacyEnv struct {
	APIKey string `env:"VITE_OPENAI_API_KEY"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		BaseURL:            DefaultBaseURL,
		Model:              DefaultModel,
		ListenAddr:         DefaultListenAddr,
		TTSModel:           DefaultTTSModel,
		Voice:              DefaultVoice,
		TranscriptionModel: DefaultTranscriptionModel,
		ExportPath:         DefaultExportPath,
	}
}

// DefaultPath is the config file consulted when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "simplechat", "config.toml")
}

// Load builds a Config. An explicit path must exist; the default path is
// optional. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	if cfg.APIKey == "" {
		var legacy legacyEnv
		if err := env.Parse(&legacy); err != nil {
			return nil, fmt.Errorf("parsing env config: %w", err)
		}
		cfg.APIKey = legacy.APIKey
	}

	return cfg, nil
}

// Validate reports every problem with the configuration. A missing APIKey is
// not one of them: that only fails when a completion is attempted.
func (c *Config) Validate() error {
	var result error

	if c.Model == "" {
		result = multierror.Append(result, errors.New("model must not be empty"))
	}
	if err := validateURL(c.BaseURL); err != nil {
		result = multierror.Append(result, fmt.Errorf("base_url: %w", err))
	}
	if c.ProxyURL != "" {
		if err := validateURL(c.ProxyURL); err != nil {
			result = multierror.Append(result, fmt.Errorf("proxy_url: %w", err))
		}
	}
	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.ExportPath == "" {
		result = multierror.Append(result, errors.New("export_path must not be empty"))
	}

	return result
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}
