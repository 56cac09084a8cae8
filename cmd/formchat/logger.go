package main

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"

	"github.com/tbxark/formchat/internal/config"
)

func newLogger(output io.Writer, cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	handler := tint.NewHandler(output, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05.000Z07:00",
		NoColor:    cfg.Log.NoColor || options.NoColor,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler), nil
}

// setup loads the configuration and installs the default logger.
func setup(output io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(options.Config)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(output, cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}
