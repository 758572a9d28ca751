// Package logger builds the zerolog loggers used across the node.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with service at level. pretty selects a
// human-readable console format instead of JSON lines.
func New(service, level string, pretty bool) (zerolog.Logger, error) {
	return NewWithWriter(os.Stderr, service, level, pretty)
}

func NewWithWriter(w io.Writer, service, level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if pretty {
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		cw.FormatLevel = func(i any) string {
			return fmt.Sprintf("| %-6s|", strings.ToUpper(fmt.Sprintf("%s", i)))
		}
		cw.FormatMessage = func(i any) string {
			return fmt.Sprintf("| %-8s| %s", service, i)
		}
		out = cw
	}

	return zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("service", service).
		Logger(), nil
}
