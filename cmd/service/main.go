package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/subscription-intake-service/internal/config"
	httphandler "github.com/kjstillabower/subscription-intake-service/internal/http"
	"github.com/kjstillabower/subscription-intake-service/internal/listener"
	"github.com/kjstillabower/subscription-intake-service/internal/observability"
	"github.com/kjstillabower/subscription-intake-service/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = observability.FlushLogs(logger) }()
	logger.Info("config loaded", zap.String("env", cfg.EnvName))

	srv, err := newServer(cfg, newRouter(cfg, logger), logger)
	if err != nil {
		logger.Fatal("server", zap.Error(err))
	}
	logger.Info("listening", zap.String("addr", srv.Address()), zap.Int("port", srv.Port()))

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	select {
	case <-ctx.Done():
		logger.Info("graceful shutdown triggered")
	case err := <-serveErr:
		stop()
		logger.Fatal("server", zap.Error(err))
	}
	stop()

	if err := shutdown(srv, serveErr, cfg, logger); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}
	logger.Info("shutdown complete")
}

// newRouter builds the service routes with the configured request limits.
func newRouter(cfg *config.Config, logger *zap.Logger) http.Handler {
	var limiter *rate.Limiter
	if cfg.RateLimitEnabled {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
		logger.Info("rate limiter enabled", zap.Int("rps", cfg.RateLimitRPS), zap.Int("burst", cfg.RateLimitBurst))
	}
	observability.RegisterTrafficGauges(cfg.MetricsWindow)

	return httphandler.NewRouter(httphandler.NewHandler(logger), logger, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Limiter:        limiter,
	})
}

// newServer binds cfg.Host:cfg.Port and wraps the listener in a Server.
func newServer(cfg *config.Config, handler http.Handler, logger *zap.Logger) (*server.Server, error) {
	l, err := listener.Bind(cfg.Host, cfg.Port)
	if err != nil {
		return nil, err
	}
	return server.New(l, handler, logger)
}

// shutdown stops srv within cfg.ShutdownTimeout and waits for Run to return.
// Handlers still running when that deadline passes are not interrupted by
// http.Server, so they get cfg.ShutdownInFlightTimeout more before the process exits.
func shutdown(srv *server.Server, serveErr <-chan error, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(ctx)
	if err := <-serveErr; err != nil {
		logger.Error("server run", zap.Error(err))
	}
	if shutdownErr == nil {
		return nil
	}

	logger.Warn("shutdown deadline exceeded, waiting for in-flight requests",
		zap.Error(shutdownErr), zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	return httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval)
}
