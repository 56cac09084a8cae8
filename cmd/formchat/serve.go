package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tbxark/formchat/internal/app"
)

type ServeCmd struct {
	Addr string `short:"a" long:"addr" description:"listen address, overrides http.addr"`
}

func (c *ServeCmd) Execute(_ []string) error {
	cfg, logger, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.HTTP.Addr = c.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cm, err := app.NewChatModel(ctx, cfg)
	if err != nil {
		return err
	}
	cs, closeStore, err := app.NewCheckpointStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cErr := closeStore(); cErr != nil {
			logger.Error("close store", "error", cErr)
		}
	}()
	runner, err := app.NewRunner(ctx, cfg, cm, cs)
	if err != nil {
		return fmt.Errorf("new runner: %w", err)
	}
	application, err := app.New(cfg, runner, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver, "model", cfg.Model)
		return application.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return application.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
