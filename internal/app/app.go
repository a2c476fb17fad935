// Package app wires configuration, storage, domain services and the HTTP
// server together.
package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const (
	serviceName    = "storefront-api"
	healthProbeKey = "_health_probe"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("coupons", cfg.Coupons.Source),
	)

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	healthSvc := newHealth(b)
	healthSvc.Start(ctx, cfg.Health.Interval)

	h, err := newServer(ctx, cfg, b, healthSvc, m)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           h,
		// Requests keep the root logger but outlive ctx while draining.
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	healthSvc.SetReady(true)
	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func newHealth(b *backends) *health.Health {
	hs := health.New()
	hs.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	hs.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	hs.AddReadinessCheck("carts", 5*time.Second, health.StoreRoundTripCheck(b.carts, healthProbeKey))
	if b.pool != nil {
		hs.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(b.pool))
	}
	return hs
}

// newServer builds the domain services over b and returns the root handler
// with the middleware chain applied. Background middleware work stops with
// ctx.
func newServer(
	ctx context.Context,
	cfg *Config,
	b *backends,
	hs *health.Health,
	tel httpmiddleware.Telemetry,
) (http.Handler, error) {
	carts := cart.NewRegistry(b.carts)
	metrics, err := newCartMetrics(tel.MeterProvider())
	if err != nil {
		return nil, errors.Wrap(err, "cart metrics")
	}
	go carts.RunEviction(ctx, cfg.Storage.IdleTimeout)
	if b.guard != nil {
		go b.guard.Refresh(ctx, cfg.Coupons.RefreshInterval)
	}
	carts.Subscribe(metrics.observe)

	calc := pricing.NewCalculator(coupon.NewRepoValidator(b.coupons), cfg.Fees())
	sessions := checkout.NewSessions(carts, calc, order.NewService(b.orders))

	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		product.NewService(b.products),
		carts,
		calc,
		sessions,
		handler.NewSecurity(b.apikeys, []byte(cfg.APIKeyPepper)),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", hs.LiveEndpoint)
	mux.HandleFunc("GET /readyz", hs.ReadyEndpoint)
	h.Register(mux)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", handler.HeaderAPIKey, httpmiddleware.HeaderRequestID},
			ExposeHeaders:    []string{httpmiddleware.HeaderRequestID, "Retry-After"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip:   isProbe,
		}),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.RequestID(),
		httpmiddleware.Instrument(serviceName, tel),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	), nil
}

func isProbe(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}
