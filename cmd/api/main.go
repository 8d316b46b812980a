package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/studio-agenda/internal/archive"
	"github.com/BruksfildServices01/studio-agenda/internal/audit"
	"github.com/BruksfildServices01/studio-agenda/internal/cache"
	"github.com/BruksfildServices01/studio-agenda/internal/config"
	dbpkg "github.com/BruksfildServices01/studio-agenda/internal/db"
	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/infra/remoteapi"
	infraRepo "github.com/BruksfildServices01/studio-agenda/internal/infra/repository"
	"github.com/BruksfildServices01/studio-agenda/internal/metrics"
	"github.com/BruksfildServices01/studio-agenda/internal/optimistic"
	"github.com/BruksfildServices01/studio-agenda/internal/routes"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	db, err := dbpkg.NewDB(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ttl := time.Duration(cfg.CacheTTL) * time.Second

	var (
		store cache.Store = cache.NewMemoryStoreTTL(ttl)
		rdb   *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		store = cache.NewRedisStore(rdb, ttl)
		logger.Info().Str("addr", opts.Addr).Msg("cache: redis")
	} else {
		logger.Info().Msg("cache: memory")
	}

	var remote domain.Remote
	if cfg.UsesRemoteAPI() {
		client := remoteapi.NewClient(cfg.RemoteAPIURL, cfg.RemoteAPIKey, m, logger)
		if rdb != nil {
			client.UseRedisCache(rdb, ttl)
		}
		remote = client
		logger.Info().Str("url", cfg.RemoteAPIURL).Msg("appointments: remote api")
	} else {
		remote = infraRepo.NewAppointmentGormRepository(db)
		logger.Info().Msg("appointments: local database")
	}

	receipts := archive.NewStore(
		archive.NewS3Client(cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey),
		cfg.ReceiptsBucket,
		logger,
	)

	auditDispatcher := audit.NewDispatcher(audit.New(db), cfg.AuditQueueSize, logger)
	coordinator := optimistic.NewCoordinator(store, remote, m, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		DB:          db,
		Config:      cfg,
		Remote:      remote,
		Cache:       store,
		Registry:    reg,
		Metrics:     m,
		Audit:       auditDispatcher,
		Coordinator: coordinator,
		Receipts:    receipts,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.Addr()).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	// espera as invalidações de cache dos arrastes; depois drena a auditoria
	coordinator.Wait()
	auditDispatcher.Close()

	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var base zerolog.Logger
	if cfg.IsProduction() {
		base = zerolog.New(os.Stdout)
	} else {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return base.Level(level).With().Timestamp().Str("service", "studio-agenda").Logger()
}
