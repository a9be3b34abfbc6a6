package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/saasadmin/internal/config"
)

// NewLogger creates a structured zerolog.Logger tagged with the service name.
// Dev mode switches to human-readable console output.
func NewLogger(cfg *config.Config) zerolog.Logger {
	var ctx zerolog.Context
	if cfg.DevMode {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp()
	} else {
		ctx = zerolog.New(os.Stdout).With().Timestamp()
	}

	if cfg.ServiceName != "" {
		ctx = ctx.Str("service", cfg.ServiceName)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
