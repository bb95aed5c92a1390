package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service-wide structured logger. LOG_FORMAT=console switches
// to human-readable output for local development; LOG_LEVEL accepts the usual
// zerolog level names and defaults to info.
func New(serviceName string) zerolog.Logger {
	var output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(os.Stdout)
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		logger = zerolog.New(output)
	}

	return logger.
		With().
		Timestamp().
		Str("service", serviceName).
		Logger().
		Level(parseLevel(os.Getenv("LOG_LEVEL")))
}

func parseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
