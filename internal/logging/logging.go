package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// New returns a human-readable logger writing to w at the given level.
func New(w io.Writer, level string, color bool) (zerolog.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = DefaultLevel
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	out := zerolog.ConsoleWriter{Out: w, NoColor: !color, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("component", "restormel").Logger(), nil
}
