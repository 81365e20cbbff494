package simulator

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/helloservices00-blip/fresh-ear-client-ui/db"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/config"
	"github.com/helloservices00-blip/fresh-ear-client-ui/pkg/health"
	"github.com/helloservices00-blip/fresh-ear-client-ui/pkg/httpmiddleware"
)

// Run creates all devserver dependencies, seeds the demo tenant, starts
// the HTTP server, and handles graceful shutdown. It is the single wiring
// point for the simulator.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	metrics, err := NewMetrics(m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create metrics")
	}

	store := NewStore()
	hub := NewHub(lg, metrics)
	handlers := NewHandlers(store, hub, metrics, lg)

	// Seed the shared demo tenant so a freshly started client has a menu.
	seed := db.SeedMenu
	if cfg.SeedFile != "" {
		seed, err = ReadSeedFile(cfg.SeedFile)
		if err != nil {
			return errors.Wrap(err, "read seed file")
		}
	}
	n, err := Seed(store, config.FallbackAppID, seed)
	if err != nil {
		return errors.Wrap(err, "seed products")
	}
	lg.Info("Seeded demo menu", zap.Int("products", n))

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", func(context.Context) error {
		if n := runtime.NumGoroutine(); n > 10000 {
			return errors.Errorf("too many goroutines: %d", n)
		}
		return nil
	})
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	handlers.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		// No read/write timeouts: listen connections stay open for the
		// lifetime of a subscriber.
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "freshear.devserver",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
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
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
