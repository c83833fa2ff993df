package utils

import (
	"fmt"
	"io"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
)

// NewLogger builds the application logger from the log section of the config
func NewLogger(cfg LogConfig, w io.Writer) (log.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	opts := []log.Option{
		log.LevelOption(level),
		log.TimeFormatOption(time.RFC3339),
	}
	if strings.EqualFold(cfg.Format, "json") {
		opts = append(opts, log.OutputJSONOption())
	} else {
		opts = append(opts, log.ColorOption(false))
	}

	return log.NewLogger(w, opts...).With(log.ModuleKey, "exosky"), nil
}
