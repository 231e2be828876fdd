package cli

import (
	"fmt"
	"log/slog"

	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/logging"
)

// newLogger builds the run logger. Flags win over the config file, which
// already carries the environment fallbacks.
func newLogger(env *Env, cfg config.Config) (*slog.Logger, error) {
	level := cfg.LogLevel
	if env.LogLevel != "" {
		level = env.LogLevel
	}
	format := cfg.LogFormat
	if env.LogFormat != "" {
		format = env.LogFormat
	}

	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: format,
		Writer: env.Stderr,
		Color:  env.IsTerminal(env.Stderr),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	return logger.With(slog.String(logging.FieldRunID, env.NewRunID())), nil
}

// loadConfig loads the user config and a logger built from it. A config that
// cannot be read is reported and replaced by defaults.
func loadConfig(env *Env) (config.Config, *slog.Logger, error) {
	cfg, loadErr := env.ConfigLoader.Load()
	if loadErr != nil {
		cfg = config.Config{}
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return cfg, nil, err
	}
	if loadErr != nil {
		logger.Warn("failed to load config, using defaults", logging.Error(loadErr))
	}
	return cfg, logger, nil
}
