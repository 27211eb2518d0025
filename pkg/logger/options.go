package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format selects how records are rendered.
type Format int

const (
	// FormatText is slog's key=value handler.
	FormatText Format = iota

	// FormatPretty is the colorized charmbracelet/log handler the CLI uses.
	FormatPretty

	// FormatJSON is one JSON object per record, for the API server and log files.
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	default:
		return "text"
	}
}

// ParseFormat maps "text", "pretty" or "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "pretty":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q (want text, pretty or json)", s)
}

type Option func(*config)

func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithDebug lowers the level to Debug. false leaves the level untouched.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithOutput sends every record to all of w. Defaults to os.Stdout.
func WithOutput(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithSource adds the caller's file:line to each record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithComponent tags every record with component=name, e.g. "api" or
// "watcher", so interleaved output from one process can be told apart.
func WithComponent(name string) Option {
	return func(c *config) {
		c.component = name
	}
}
