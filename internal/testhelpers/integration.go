package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	httphandler "github.com/kjstillabower/subscription-intake-service/internal/http"
	"github.com/kjstillabower/subscription-intake-service/internal/listener"
	"github.com/kjstillabower/subscription-intake-service/internal/server"
)

// TestApp is a running service bound to an ephemeral port.
type TestApp struct {
	// Address is the base URL, e.g. http://127.0.0.1:53211.
	Address string
	Server  *server.Server
	Client  *resty.Client
}

// SpawnApp binds 127.0.0.1:0, builds the full router and starts serving in the
// background. Each call gets its own port, so tests may run in parallel.
// The server is shut down when the test ends.
func SpawnApp(t *testing.T) *TestApp {
	t.Helper()
	return SpawnAppWithConfig(t, httphandler.RouterConfig{})
}

// SpawnAppWithConfig is SpawnApp with explicit /subscriptions middleware settings.
func SpawnAppWithConfig(t *testing.T, cfg httphandler.RouterConfig) *TestApp {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))

	l, err := listener.Bind("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Failed to bind random port: %v", err)
	}
	router := httphandler.NewRouter(httphandler.NewHandler(logger), logger, cfg)
	srv, err := server.New(l, router, logger)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})

	return &TestApp{
		Address: srv.URL(),
		Server:  srv,
		Client:  resty.New().SetBaseURL(srv.URL()).SetTimeout(5 * time.Second),
	}
}
