package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
)

// Prefix is written before every text log line
const Prefix = "🐯 "

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv("TIGER_JSON_LOG") == "1"

	color := hclog.ColorOff
	if !jsonFormat {
		// Decided before wrapping; hclog cannot see through the prefix writer.
		if useColor(output) {
			color = hclog.ForceColor
		}
		output = NewPrefixWriter(Prefix, output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		Color:      color,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// GetLogLevel returns the configured log level from environment
func GetLogLevel() string {
	level := os.Getenv("TIGER_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return level
}

// ResolveLevel prefers an explicit --log-level value over the environment
func ResolveLevel(flagValue string) string {
	if flagValue != "" && hclog.LevelFromString(flagValue) != hclog.NoLevel {
		return flagValue
	}
	return GetLogLevel()
}

func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
