package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"soundvault/internal/config"
)

// setupLogging installs the default logger. --log-level wins over the
// configured level, which already folds in SOUNDVAULT_LOG_LEVEL. A bad flag is
// an error; a bad configured level falls back to the default with a warning.
func setupLogging(flagLevel string, cfg *config.Config) (string, error) {
	if strings.TrimSpace(flagLevel) != "" {
		level, err := config.ParseLogLevel(flagLevel)
		if err != nil {
			return "", fmt.Errorf("invalid --log-level %q (use debug, info, warn or error)", flagLevel)
		}
		slog.SetDefault(newLogger(level))
		return "", nil
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level, _ = config.ParseLogLevel(config.DefaultLogLevel)
		slog.SetDefault(newLogger(level))
		return fmt.Sprintf("warning: invalid log_level %q in %s or SOUNDVAULT_LOG_LEVEL; using %s",
			cfg.LogLevel, configSource(cfg), config.DefaultLogLevel), nil
	}
	slog.SetDefault(newLogger(level))
	return "", nil
}

func configSource(cfg *config.Config) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	return "config"
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
