package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfagnish/userreg/internal/config"
	"github.com/alfagnish/userreg/internal/feed"
	grpcserver "github.com/alfagnish/userreg/internal/grpc"
	"github.com/alfagnish/userreg/internal/logging"
	"github.com/alfagnish/userreg/internal/registry"
	"github.com/alfagnish/userreg/internal/server"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "userreg: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer logger.Sync() // Flushes buffer, if any

	logger.Info("config loaded",
		zap.String("listen", cfg.ListenAddr),
		zap.String("grpc", cfg.GRPCAddr),
		zap.Strings("origins", cfg.AllowedOrigins),
	)

	// 2. Create the registry and the change feed it reports to.
	hub := feed.NewHub(cfg.FeedBuffer, logger)
	reg := registry.New(registry.WithObserver(hub))

	// 3. Optional gRPC health endpoint.
	var health *grpcserver.HealthServer
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
		}
		health = grpcserver.NewHealthServer(logger)
		go func() {
			if err := health.Serve(lis); err != nil {
				logger.Error("grpc health server", zap.Error(err))
			}
		}()
	}

	// 4. Start the HTTP server.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(cfg, reg, hub, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Shutdown does not track hijacked connections; closing the feed lets
	// every /ws handler send a close frame and return.
	srv.RegisterOnShutdown(hub.Close)

	// Graceful shutdown on SIGINT / SIGTERM.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		if health != nil {
			health.Stop()
		}
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	if health != nil {
		health.SetServing(false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown", zap.Error(err))
	}
	if health != nil {
		health.Stop()
	}

	logger.Info("stopped", zap.Int("users", reg.Len()))
	return nil
}
