package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robertmeta/feedgen/config"
	"github.com/robertmeta/feedgen/endpoint"
	"github.com/robertmeta/feedgen/logger"
	"github.com/robertmeta/feedgen/store"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	if err := logger.Init(cfg.Log); err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	defer logger.Sync()

	s, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to open database: %v", err), ExitDataError)
	}
	defer s.Close()

	router, err := newRouter(cfg, s, logger.Z)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to listen on %s: %v", cfg.Server.Address, err), ExitGeneralError)
	}

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Z.Info("HTTP server starting",
			zap.String("address", ln.Addr().String()),
			zap.Int("routes", len(cfg.Routes)),
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Z.Error("HTTP server failed", zap.Error(err))
			return cli.Exit(err.Error(), ExitGeneralError)
		}
		return nil
	case <-ctx.Done():
		logger.Z.Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Z.Error("HTTP server shutdown failed", zap.Error(err))
		return cli.Exit(err.Error(), ExitGeneralError)
	}
	logger.Z.Info("HTTP server stopped gracefully")
	return nil
}

// newRouter registers one feed handler per configured route.
func newRouter(cfg *config.Config, s *store.Store, log *zap.Logger) (http.Handler, error) {
	mux := http.NewServeMux()

	for _, route := range cfg.Routes {
		opts, err := store.BuildQueryOptions(route.Limit, 0, "", route.Category)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", route.Path, err)
		}

		provider := store.NewProvider(s, route.Channel, opts)
		if route.Since != "" {
			since, err := store.ParseDuration(route.Since)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", route.Path, err)
			}
			provider.Since = since
		}

		mux.Handle(route.Path, endpoint.New(provider, route.FeedFormat(),
			endpoint.WithDomain(cfg.Server.Domain),
			endpoint.WithEncoding(cfg.Server.Encoding),
			endpoint.WithLogger(log.With(zap.String("route", route.Path))),
		))
		log.Debug("Registered feed route",
			zap.String("path", route.Path),
			zap.String("channel", route.Channel),
			zap.String("format", route.FeedFormat().String()),
		)
	}

	return mux, nil
}
