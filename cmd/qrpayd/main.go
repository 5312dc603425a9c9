package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibbank/qrpay/internal/config"
	"github.com/bibbank/qrpay/internal/handler"
	"github.com/bibbank/qrpay/internal/middleware"
	"github.com/bibbank/qrpay/pkg/auth"
	"github.com/bibbank/qrpay/pkg/observability"
	"github.com/bibbank/qrpay/pkg/tlsutil"
)

const serviceName = "qrpayd"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting qrpayd",
		"port", cfg.HTTPPort,
		"compressor", cfg.Compressor,
		"rate_limit", cfg.RateLimit,
		"tls", cfg.TLSEnabled(),
		"auth", cfg.AuthEnabled(),
	)

	jwtService, err := newJWTService(cfg)
	if err != nil {
		logger.Error("failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	metrics, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	compressor, ready := cfg.NewCompressor(logger)
	if err := ready(ctx); err != nil {
		// Keep serving; /readyz reports the problem and non-SVK standards work.
		logger.Warn("compressor not ready", "error", err)
	}

	// Routes.
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.New(handler.Options{
		Compressor: compressor,
		Metrics:    metrics,
		Render:     cfg.RenderOptions(),
		Ready:      ready,
		Logger:     logger,
	}))

	// Build middleware chain (applied in reverse order).
	var h http.Handler = mux
	h = middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit), "/healthz", "/readyz", "/metrics")(h)
	h = middleware.AuthMiddleware(jwtService, "/healthz", "/readyz", "/metrics")(h)
	h = middleware.LoggingMiddleware(logger)(h)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.TLSEnabled() {
		tlsCfg, err := tlsutil.ServerTLSConfig(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			logger.Error("failed to load TLS credentials", "error", err)
			os.Exit(1)
		}
		server.TLSConfig = tlsCfg
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if server.TLSConfig != nil {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown error", "error", err)
	}
	logger.Info("qrpayd stopped")
}

// newJWTService builds the token validator, or returns nil when
// authentication is disabled. An RSA public key takes precedence over the
// HMAC secret.
func newJWTService(cfg config.Config) (*auth.JWTService, error) {
	if !cfg.AuthEnabled() {
		return nil, nil
	}
	jwtCfg := auth.JWTConfig{Issuer: cfg.JWTIssuer}
	if cfg.JWTPublicKeyFile != "" {
		keyData, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = string(keyData)
	} else {
		jwtCfg.Secret = cfg.JWTSecret
	}
	return auth.NewJWTService(jwtCfg)
}
