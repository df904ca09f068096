package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kkkkikiki/crowdfund/internal/config"
)

// New constructs the service logger. Development environments get a
// human-readable console writer; everything else logs JSON lines.
// APP_DEBUG forces debug level regardless of APP_LOG_LEVEL.
func New(app config.AppConfig) zerolog.Logger {
	return newLogger(os.Stdout, app)
}

func newLogger(out io.Writer, app config.AppConfig) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || app.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	if app.Debug {
		lvl = zerolog.DebugLevel
	}

	if app.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "crowdfund").
		Logger()
}

// Nop returns a disabled logger for tests and tools.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
