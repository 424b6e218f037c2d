package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/config"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// LogOptions selects the handler and level of the process logger.
type LogOptions struct {
	Level  slog.Level
	Format string // "json" or "text"
	Output io.Writer
}

// LogOptionsFrom derives logger options from config. verbose forces debug and jsonLogs forces JSON.
func LogOptionsFrom(cfg config.LogConfig, verbose, jsonLogs bool) LogOptions {
	opts := LogOptions{Level: cfg.SlogLevel(), Format: cfg.Format}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if jsonLogs {
		opts.Format = "json"
	}
	return opts
}

// InitLogger initializes the structured logger and installs it as the default.
func InitLogger(opts LogOptions) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
// Parse and validation failures are ConfigurationErrors.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "load .env file")
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "parse config")
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
