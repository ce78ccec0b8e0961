package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billingcat/leadboard/controller"
	"github.com/billingcat/leadboard/leadsource"
	"github.com/billingcat/leadboard/model"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE:  runServe,
}

// buildSource assembles the lead source chain from cfg. The returned close
// function releases the redis client, if any.
func buildSource(cfg *model.Config, store *model.Store, logger *slog.Logger) (leadsource.Source, func() error, error) {
	var src leadsource.Source
	switch cfg.Source {
	case "http":
		hs, err := leadsource.NewHTTPSource(leadsource.Config{
			BaseURL: cfg.Upstream.BaseURL,
			Token:   cfg.Upstream.Token,
			Timeout: time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		}, nil)
		if err != nil {
			return nil, nil, err
		}
		src = hs
	case "db":
		src = leadsource.StoreSource{Store: store}
	default:
		return nil, nil, fmt.Errorf("unknown lead source %q", cfg.Source)
	}

	if cfg.Redis.Addr == "" {
		return src, func() error { return nil }, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, cache will be bypassed until it is", "addr", cfg.Redis.Addr, "error", err)
	}
	ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
	return leadsource.NewCachedSource(src, rdb, ttl, logger), rdb.Close, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	cfg := store.Config
	logger := controller.NewLogger(cfg.Mode, os.Stdout)

	src, closeSource, err := buildSource(cfg, store, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	e, err := controller.NewController(controller.Options{
		Store:  store,
		Source: src,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "mode", cfg.Mode, "source", cfg.Source)
		errc <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case err = <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("cannot start application: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
