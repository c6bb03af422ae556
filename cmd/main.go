package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/cache"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/config"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/handler"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/imageproc"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/metrics"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/registry"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/replicate"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/service"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/transport"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/dandegeest/aMiRROrMySubconscious/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	if cfg.Replicate.APIToken == "" {
		logger.Warn("REPLICATE_API_TOKEN not set in environment")
	}

	reg, err := loadRegistry(cfg.RegistryPath)
	if err != nil {
		logger.Fatal("model registry", zap.Error(err))
	}

	normalizer := imageproc.NewNormalizer(logger, transport.NewClient(cfg.Image.Timeout), cfg.Image.MaxBytes)
	if cfg.CacheEnable {
		redisCache := cache.NewRedisCache(
			cfg.RedisConfig.Addr,
			cfg.RedisConfig.Password,
			cfg.RedisConfig.DB,
			cfg.RedisConfig.TTL,
		)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, image cache will miss", zap.Error(err))
		}
		normalizer.SetCacheClient(redisCache)
		logger.Info("set redis as image cache", zap.String("addr", cfg.RedisConfig.Addr))
	}
	pool := imageproc.NewPool(logger, normalizer, cfg.Image.Workers, cfg.Image.Timeout)

	dispatcher := replicate.NewClient(logger, transport.NewClient(cfg.Replicate.RequestTimeout), cfg.Replicate)
	generateService := service.NewGenerateService(
		logger,
		service.NewDefaults(service.BuiltinDefaults()),
		reg,
		pool,
		dispatcher,
	)

	g := handler.NewGenerateHandler(logger, generateService)
	c := handler.NewConfigHandler(generateService)

	r := chi.NewRouter()
	r.Use([]func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Throttle(cfg.Server.ThrottleLimit),
		middleware.Timeout(cfg.Server.Timeout),
		metrics.Middleware,
	}...)

	r.Post("/generate", g.Generate)
	r.Get("/config", c.GetConfig)
	r.Post("/config", c.UpdateConfig)
	r.Get("/config/defaults", c.GetConfig)
	r.Get("/models", c.Models)
	r.Get("/health", handler.Health)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadFile(path)
}
