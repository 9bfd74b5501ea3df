// Package app wires configuration, storage, domain services and the HTTP
// server into a running process.
package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/marketbay/fulfillment/internal/cache"
	"github.com/marketbay/fulfillment/internal/domain/order"
	"github.com/marketbay/fulfillment/internal/domain/postsale"
	"github.com/marketbay/fulfillment/internal/domain/refdata"
	"github.com/marketbay/fulfillment/internal/events"
	"github.com/marketbay/fulfillment/internal/handler"
	"github.com/marketbay/fulfillment/internal/media"
	"github.com/marketbay/fulfillment/internal/repository"
	"github.com/marketbay/fulfillment/pkg/cardcrypto"
	"github.com/marketbay/fulfillment/pkg/health"
	"github.com/marketbay/fulfillment/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Reference-data cache. Optional: no Redis means every lookup hits
	// PostgreSQL.
	var refCache refdata.Cache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr)
		defer redisCache.Close()
		healthSvc.AddReadinessCheck("redis", 5*time.Second, health.PingCheck(redisCache))
		refCache = redisCache
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Card vault.
	vault, err := cardcrypto.NewFromHex(cfg.CardKeyHex)
	if err != nil {
		return errors.Wrap(err, "init card vault")
	}

	// Media storage for post-sale images.
	mediaStore, err := media.NewDisk(cfg.Media.Dir, cfg.Media.BaseURL)
	if err != nil {
		return errors.Wrap(err, "init media store")
	}

	// Order event stream.
	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, lg.Named("events"))
		defer kp.Close()
		publisher = kp
	}

	// Repositories.
	refRepo := repository.NewRefDataRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	addressRepo := repository.NewAddressRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	returnRepo := repository.NewReturnRepository(pool)
	exchangeRepo := repository.NewExchangeRepository(pool)
	orderReader := repository.NewPostSaleOrderReader(pool)

	// Domain services.
	resolver := refdata.NewResolver(refRepo, refCache)
	orderService := order.NewService(orderRepo, addressRepo, cartRepo, resolver, vault, publisher)
	returnService := postsale.NewReturnService(returnRepo, orderReader, productRepo, resolver, mediaStore)
	exchangeService := postsale.NewExchangeService(exchangeRepo, orderReader, resolver, mediaStore)

	// HTTP surface.
	h := handler.New(orderService, returnService, exchangeService, healthSvc, cfg.Media.Dir)

	var root http.Handler = h.Routes()
	root = otelhttp.NewHandler(root, "fulfillment-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)
	root = httpmiddleware.Chain(root,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: cfg.CORS.Origins,
			AllowHeaders: []string{"Content-Type", "X-User-ID", "X-User-Role", "X-Request-ID"},
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.AccessLog(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           root,
		BaseContext: func(net.Listener) context.Context {
			return zctx.Base(context.Background(), lg)
		},
	}

	// Graceful shutdown: drop readiness, drain, then stop.
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

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
