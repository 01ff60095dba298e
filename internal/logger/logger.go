package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. Level field is "severity" so log
// collectors parse it without extra mapping.
func New(appEnv string) zerolog.Logger {
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out io.Writer = os.Stderr
	level := zerolog.InfoLevel
	if appEnv == "development" || appEnv == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).With().Timestamp().Logger().Level(level)
}

// Nop is used by tests and tools that do not want log output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
