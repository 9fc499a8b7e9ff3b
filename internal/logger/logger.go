// Package logger configures the console logger every package-level logger is
// derived from.
package logger

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

func New(level string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = zerolog.InfoLevel
		// The main logger isn't configured yet, so warn directly.
		fmt.Fprintf(os.Stderr, "Invalid log level %q, defaulting to info\n", level)
	}

	ctx := zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(logLevel).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid())
	if info, ok := debug.ReadBuildInfo(); ok {
		ctx = ctx.Str("go_version", info.GoVersion)
	}

	l := ctx.Logger()
	zerolog.DefaultContextLogger = &l
	return l
}
