package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/flore/internal/catalog"
	"github.com/fjod/flore/internal/checkout"
	"github.com/fjod/flore/internal/config"
	h "github.com/fjod/flore/internal/http"
	"github.com/fjod/flore/internal/metrics"
	"github.com/fjod/flore/internal/session"
	"github.com/fjod/flore/internal/storage"
	"github.com/fjod/flore/internal/store"
	"github.com/fjod/flore/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()

	logger.Init("storefront", cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	ctx := context.Background()

	backend, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("Failed to open storage")
	}
	defer closeStorage()

	provider, closeCatalog := openCatalog(cfg)
	defer closeCatalog()

	var publisher checkout.Publisher = checkout.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = checkout.NewKafkaPublisher(cfg.OrdersTopic, cfg.KafkaBrokers...)
		logger.Logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.OrdersTopic).Msg("Publishing orders to kafka")
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sessions := session.NewManager(backend,
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithCleanupInterval(cfg.SessionCleanupInterval),
		session.WithStoreOptions(store.WithShopName(cfg.ShopName)),
		session.WithCountObserver(m.SetActiveSessions),
	)
	defer sessions.Close()

	router := h.NewRouter(h.RouterConfig{
		Sessions:           sessions,
		Catalog:            provider,
		Checkout:           checkout.NewService(publisher, cfg.ContactNumber),
		Metrics:            m,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageBackend).Msg("Storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down storefront...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Logger.Info().Msg("Storefront stopped")
}

// openStorage returns the cart storage selected by cfg and a function that
// releases its connections.
func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, func(), error) {
	var redisClient *redis.Client
	connectRedis := func() (*redis.Client, error) {
		if redisClient != nil {
			return redisClient, nil
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		logger.Logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis ping succeeded")
		redisClient = client
		return client, nil
	}

	var (
		durable storage.Storage
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.StorageBackend {
	case config.BackendMemory:
		durable = storage.NewMemory()

	case config.BackendRedis:
		client, err := connectRedis()
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		durable = storage.NewRedis(client)

	case config.BackendMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Client().Disconnect(context.Background()) })
		mongoStorage := storage.NewMongo(db)
		if err := mongoStorage.CreateIndexes(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		durable = mongoStorage

	case config.BackendSQLite:
		sqliteStorage, err := storage.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = sqliteStorage.Close() })
		if err := sqliteStorage.RunMigrations(cfg.SQLiteMigrationsPath); err != nil {
			closeAll()
			return nil, nil, err
		}
		durable = sqliteStorage

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	cacheable := cfg.StorageBackend == config.BackendMongo || cfg.StorageBackend == config.BackendSQLite
	if cfg.CacheEnabled && cacheable {
		client, err := connectRedis()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		durable = storage.NewCacheAside(durable, storage.NewRedisCache(client))
		logger.Logger.Info().Msg("Redis cache enabled in front of durable storage")
	}

	return durable, closeAll, nil
}

// openCatalog prefers the remote catalog, then the local sqlite catalog, and
// always ends with the built-in sample products.
func openCatalog(cfg config.Config) (catalog.Provider, func()) {
	var provider catalog.Provider = catalog.NewStatic(catalog.SampleProducts())
	closer := func() {}

	repo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err == nil {
		err = repo.RunMigrations(cfg.CatalogMigrationsPath)
		if err != nil {
			_ = repo.Close()
		}
	}
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Local catalog unavailable, using sample products")
	} else {
		provider = catalog.NewFallback(repo, provider)
		closer = func() { _ = repo.Close() }
	}

	if cfg.CatalogURL != "" {
		provider = catalog.NewFallback(catalog.NewRemoteProvider(cfg.CatalogURL, cfg.CatalogTimeout), provider)
		logger.Logger.Info().Str("url", cfg.CatalogURL).Msg("Using remote catalog")
	}

	return provider, closer
}
