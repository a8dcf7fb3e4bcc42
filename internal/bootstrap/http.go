package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/llm-relay/config"
	httpx "github.com/target/llm-relay/internal/http"
	"github.com/target/llm-relay/internal/service"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *Services
	Store    *Store
	Logger   *slog.Logger
	// ErrCh receives a listener failure; may be nil.
	ErrCh chan<- error
}

// BuildHandler assembles the router for the configured services.
func BuildHandler(cfg *HTTPServerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	readiness := map[string]httpx.ReadinessCheck{}
	if cfg.Store != nil {
		readiness["database"] = cfg.Store.Ping
	}
	if cfg.Services != nil && cfg.Services.Guard != nil {
		readiness["lease_store"] = cfg.Services.Guard.Health
	}

	var relaySvc *service.RelayService
	if cfg.Services != nil {
		relaySvc = cfg.Services.Relay
	}
	return httpx.NewRouter(httpx.RouterServices{
		Relay:                   relaySvc,
		CallbackSecret:          appCfg.Relay.HMACSecret,
		VerifyCallbackSignature: appCfg.Relay.VerifyInboundSignature,
		MaxBodyBytes:            appCfg.HTTP.MaxBodyBytes,
		Readiness:               readiness,
		IsDev:                   appCfg.IsDev,
		Logger:                  logger,
	})
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil || cfg.Services == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := ""
	if cfg.Config != nil {
		addr = cfg.Config.HTTP.Addr
	}
	return startServer(logger, BuildHandler(cfg), addr, cfg.ErrCh)
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
