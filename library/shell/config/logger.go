package config

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// NewLogger builds the slog logger described by the config. Menu output goes to stdout,
// so w is normally os.Stderr.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	options := &slog.HandlerOptions{Level: level}

	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, options)), nil
	}

	return slog.New(slog.NewTextHandler(w, options)), nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, errors.Wrapf(ErrInvalidLogLevel, "got %q", raw)
	}

	return level, nil
}
