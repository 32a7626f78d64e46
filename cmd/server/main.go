package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/chronoshop/backend/internal/application/consistency"
	"github.com/chronoshop/backend/internal/application/document"
	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/auth"
	"github.com/chronoshop/backend/internal/infrastructure/billing"
	"github.com/chronoshop/backend/internal/infrastructure/cache"
	"github.com/chronoshop/backend/internal/infrastructure/config"
	"github.com/chronoshop/backend/internal/infrastructure/event"
	"github.com/chronoshop/backend/internal/infrastructure/logger"
	"github.com/chronoshop/backend/internal/infrastructure/migration"
	"github.com/chronoshop/backend/internal/infrastructure/notify"
	"github.com/chronoshop/backend/internal/infrastructure/persistence"
	"github.com/chronoshop/backend/internal/infrastructure/persistence/memory"
	"github.com/chronoshop/backend/internal/infrastructure/storage"
	"github.com/chronoshop/backend/internal/infrastructure/telemetry"
	"github.com/chronoshop/backend/internal/interfaces/http/handler"
	"github.com/chronoshop/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	migrateOnStart := flag.Bool("migrate", false, "Apply pending SQL migrations before starting (postgres only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.ConfigFor(cfg.App.Env)
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = cfg.Log.Output
	logCfg.Service = cfg.App.Name
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting chronoshop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Components are appended in start order and closed in reverse.
	var closers []shared.Closeable
	shutdown := func() {
		if err := shared.CloseAll(closers...); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}

	providers, err := telemetry.NewProviders(ctx, telemetry.Config{
		ServiceName:       cfg.App.Name,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		TracingEnabled:    cfg.Telemetry.TracingEnabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		SpanProfiles:      cfg.Telemetry.ProfilingEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	closers = append(closers, providers)
	log = providers.BridgeLogger(log)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.App.Name,
		Locks:           cfg.Telemetry.ProfileLocks,
	}, log)
	if err != nil {
		shutdown()
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	closers = append(closers, profiler)

	metrics, err := telemetry.NewEngineMetrics(providers.Meter("chronoshop/engine"))
	if err != nil {
		log.Fatal("Failed to create engine metrics", zap.Error(err))
	}

	store, database, err := openStore(cfg, providers, log, *migrateOnStart)
	if err != nil {
		shutdown()
		log.Fatal("Failed to open store", zap.Error(err))
	}
	closers = append(closers, store)

	entityCache, err := cache.NewEntityCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		shutdown()
		log.Fatal("Failed to create entity cache", zap.Error(err))
	}
	closers = append(closers, entityCache)

	redisClient := newRedisClient(ctx, cfg, log)
	notifier := newNotifier(redisClient, cfg, log)
	closers = append(closers, notifier)

	bus := event.NewInMemoryEventBus(log, event.WithAsyncDelivery(256))
	if cfg.Audit.Enabled {
		audit := event.NewAuditHandler(logger.NewZapAuditLog(log.Named("audit")), log)
		bus.Subscribe(event.NewIdempotentHandler(audit, newDedupStore(redisClient, cfg), cfg.Audit.DedupWindow, log))
	}
	bus.Subscribe(event.NewRefreshHandler(notifier, log))
	if err := bus.Start(ctx); err != nil {
		shutdown()
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	closers = append(closers, bus)

	dispatcher := document.NewDispatcher(
		billing.NewLocalInvoiceGenerator(store.Invoices(), log),
		store,
		document.WithConfig(document.Config{
			Timeout:        cfg.Documents.Timeout,
			MaxAttempts:    cfg.Documents.MaxAttempts,
			InitialBackoff: cfg.Documents.InitialBackoff,
		}),
		document.WithCache(entityCache),
		document.WithEventPublisher(bus),
		document.WithMetrics(metrics),
		document.WithLogger(log),
	)

	engineOpts := []consistency.Option{
		consistency.WithCache(entityCache),
		consistency.WithEventPublisher(bus),
		consistency.WithDocumentDispatcher(dispatcher),
		consistency.WithMetrics(metrics),
		consistency.WithLogger(log),
	}
	if attachments := newAttachmentStore(ctx, cfg, log); attachments != nil {
		engineOpts = append(engineOpts, consistency.WithAttachmentStore(attachments))
	}
	engine := consistency.NewEngine(uow.NewRunner(store, uow.WithLogger(log)), engineOpts...)

	var reconciler *document.Reconciler
	if cfg.Documents.ReconcileEnabled {
		reconciler = document.NewReconciler(dispatcher, store, document.ReconcilerConfig{
			Interval:    cfg.Documents.ReconcileInterval,
			BatchSize:   cfg.Documents.ReconcileBatch,
			Concurrency: cfg.Documents.ReconcileConcurrency,
		}, log.Named("reconciler"))
		if err := reconciler.Start(ctx); err != nil {
			shutdown()
			log.Fatal("Failed to start document reconciler", zap.Error(err))
		}
		closers = append(closers, reconciler)
	}

	go auditLoop(ctx, engine, cfg.Documents.DriftAuditInterval, log.Named("drift"))

	var srv *http.Server
	if cfg.HTTP.Enabled {
		srv = startHTTP(cfg, engine, reconciler, database, entityCache, providers, log)
	}

	<-ctx.Done()
	log.Info("Shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server forced to shutdown", zap.Error(err))
		}
		cancel()
	}
	shutdown()
	log.Info("Stopped")
}

// openStore returns the configured store. The database is nil for the
// memory store.
func openStore(cfg *config.Config, providers *telemetry.Providers, log *zap.Logger, migrateOnStart bool) (uow.Store, *persistence.Database, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using the in-memory store: writes are not atomic and data is lost on exit")
		return memory.NewStore(), nil, nil
	}

	if migrateOnStart && cfg.Database.Driver == config.DriverPostgres {
		if err := applyMigrations(cfg, log); err != nil {
			return nil, nil, err
		}
	}

	database, err := persistence.OpenDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver == config.DriverSQLite {
		if err := persistence.AutoMigrate(database.DB); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
	}

	if providers.TracingEnabled() {
		dbSystem := "postgresql"
		if cfg.Database.Driver == config.DriverSQLite {
			dbSystem = "sqlite"
		}
		err := telemetry.RegisterDBTracing(database.DB, telemetry.DBTracingConfig{
			DBSystem:        dbSystem,
			SlowQueryThresh: cfg.Database.SlowThreshold,
			TracerProvider:  providers.TracerProvider(),
		}, log)
		if err != nil {
			_ = database.Close()
			return nil, nil, fmt.Errorf("register database tracing: %w", err)
		}
	}

	log.Info("Database connected", zap.String("driver", database.Driver))
	return persistence.NewGormStore(database), database, nil
}

func applyMigrations(cfg *config.Config, log *zap.Logger) error {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	m, err := migration.New(db, log.Named("migrate"))
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

// newRedisClient returns nil when Redis is disabled or unreachable
func newRedisClient(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		log.Warn("Redis unavailable, falling back to in-process hints and dedup", zap.Error(err))
		return nil
	}
	return client
}

// newNotifier publishes refresh hints on Redis when a client is available
// and logs them otherwise. The Redis notifier owns the client.
func newNotifier(client *redis.Client, cfg *config.Config, log *zap.Logger) interface {
	shared.RefreshNotifier
	shared.Closeable
} {
	if client == nil {
		return notify.NewLogNotifier(log)
	}
	return notify.NewRedisNotifier(client, cfg.Redis.Channel)
}

// newDedupStore shares handled event keys through Redis so that several
// processes write one audit line per fact.
func newDedupStore(client *redis.Client, cfg *config.Config) shared.IdempotencyStore {
	if client == nil {
		return cache.NewMemoryIdempotencyStore(cfg.Audit.DedupSize)
	}
	return cache.NewRedisIdempotencyStore(client, "")
}

// newAttachmentStore returns S3 when configured. Development runs without S3
// keep attachments in memory; production runs reject them.
func newAttachmentStore(ctx context.Context, cfg *config.Config, log *zap.Logger) consistency.AttachmentStore {
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3AttachmentStore(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create attachment store", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Attachment bucket unavailable", zap.String("bucket", s3Store.Bucket()), zap.Error(err))
		}
		return s3Store
	}
	if cfg.App.Env == "production" {
		log.Info("Attachment storage disabled")
		return nil
	}
	log.Info("Keeping completion attachments in memory")
	return storage.NewMemoryAttachmentStore()
}

// auditLoop compares stored and derived aggregates periodically. Drift is
// reported, never repaired automatically.
func auditLoop(ctx context.Context, engine *consistency.Engine, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			drifted, err := engine.AuditAggregates(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Error("Aggregate audit failed", zap.Error(err))
				}
				continue
			}
			for _, d := range drifted {
				log.Warn("Customer aggregates drifted",
					zap.String("customer_id", d.CustomerID.String()),
					zap.String("stored_net_value", d.Stored.NetValue.String()),
					zap.String("derived_net_value", d.Derived.NetValue.String()),
					zap.Int("stored_purchases", d.Stored.PurchaseCount),
					zap.Int("derived_purchases", d.Derived.PurchaseCount),
					zap.Bool("flagged", d.Flagged),
				)
			}
			log.Info("Aggregate audit finished", zap.Int("drifted", len(drifted)))
		}
	}
}

func startHTTP(
	cfg *config.Config,
	engine *consistency.Engine,
	reconciler *document.Reconciler,
	database *persistence.Database,
	entityCache shared.EntityCache,
	providers *telemetry.Providers,
	log *zap.Logger,
) *http.Server {
	checks := map[string]handler.HealthCheck{}
	if database != nil {
		checks["database"] = func(context.Context) error { return database.Ping() }
	}
	if pinger, ok := entityCache.(interface{ Ping(context.Context) error }); ok {
		checks["cache"] = pinger.Ping
	}

	// A typed nil pointer would satisfy the interface and be called.
	var rec handler.DocumentReconciler
	if reconciler != nil {
		rec = reconciler
	}

	mode := gin.DebugMode
	if cfg.App.Env == "production" {
		mode = gin.ReleaseMode
	}
	routerCfg := router.Config{
		ServiceName:    cfg.App.Name,
		Mode:           mode,
		TracingEnabled: providers.TracingEnabled(),
		TracerProvider: providers.TracerProvider(),
	}
	if cfg.Auth.Enabled() {
		tokens, err := auth.NewTokenService(auth.TokenConfig{
			Secret: cfg.Auth.TokenSecret,
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.TokenTTL,
		})
		if err != nil {
			log.Fatal("Failed to create token service", zap.Error(err))
		}
		routerCfg.Tokens = tokens
	} else {
		log.Warn("Operations endpoint runs without token checks")
	}
	engineHTTP := router.New(routerCfg, handler.NewOpsHandler(engine, rec, checks), log.Named("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      engineHTTP,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		log.Info("Operations endpoint listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Operations endpoint failed", zap.Error(err))
		}
	}()
	return srv
}
