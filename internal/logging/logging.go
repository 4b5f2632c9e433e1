// Package logging builds the process logger and keeps user input safe to log.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json", "":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

var lineBreaks = strings.NewReplacer(
	"\r\n", "",
	"\r", "",
	"\n", "",
	"\u0085", "",
	"\u2028", "",
	"\u2029", "",
)

// Sanitize removes line breaks, Unicode ones included, so user input cannot
// forge log lines.
func Sanitize(s string) string {
	return lineBreaks.Replace(s)
}

// Username is a zap field for a sanitized username.
func Username(username string) zap.Field {
	return zap.String("username", Sanitize(username))
}
