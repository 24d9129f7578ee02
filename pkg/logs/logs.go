package logs

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type LoggerType string

const (
	GATEWAY LoggerType = "FIX_GATEWAY"
)

// Log is the process-wide logger. InitLogger replaces it with a configured
// instance; the default writes to stderr so packages can log before setup.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

func InitLogger(t LoggerType) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}

	Log = zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", string(t)).
		Logger()
}
