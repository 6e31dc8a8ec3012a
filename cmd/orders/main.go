package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/flore/internal/config"
	"github.com/fjod/flore/internal/orders"
	"github.com/fjod/flore/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadOrders()

	logger.Init("orders", cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)
	logger.Logger.Info().Msg("orders consumer starting...")

	var wg sync.WaitGroup

	creds := &orders.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}

	repo, err := orders.NewPostgresRepository(creds)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database migrations completed")

	// Start Kafka consumer
	consumer := orders.NewConsumer(repo, cfg.OrdersTopic, cfg.ConsumerGroup, cfg.KafkaBrokers...)
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(consumerCtx)
	}()

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Logger.Info().Str("port", cfg.MetricsPort).Msg("Metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("metrics server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down orders consumer...")
	consumerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Logger.Info().Msg("Consumer stopped cleanly")
	case <-shutdownCtx.Done():
		logger.Logger.Warn().Msg("Consumer didn't stop in time")
	}

	consumer.Close()
	logger.Logger.Info().Msg("Orders consumer stopped")
}
