package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njprem/tour_catalog_BackEnd/internal/config"
	"github.com/njprem/tour_catalog_BackEnd/internal/logging"
	"github.com/njprem/tour_catalog_BackEnd/internal/repository/minio"
	"github.com/njprem/tour_catalog_BackEnd/internal/repository/ports"
	"github.com/njprem/tour_catalog_BackEnd/internal/repository/postgres"
	rediscache "github.com/njprem/tour_catalog_BackEnd/internal/repository/redis"
	"github.com/njprem/tour_catalog_BackEnd/internal/service"
	transporthttp "github.com/njprem/tour_catalog_BackEnd/internal/transport/http"
	"github.com/njprem/tour_catalog_BackEnd/internal/util"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.Load(), migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, migrateFirst bool) error {
	logger, closer, err := logging.New(logging.Options{
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		LogstashAddr: cfg.LogstashTCPAddr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if migrateFirst {
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", zap.Strings("versions", applied))
	}

	var cache ports.ItineraryCache
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, itinerary cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cache = rediscache.NewItineraryCache(client, cfg.RedisPrefix, cfg.ItineraryCacheTTL)
		}
	}

	var storage ports.ObjectStorage
	if cfg.MinIOEnabled() {
		client, err := minio.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			return fmt.Errorf("connect object storage: %w", err)
		}
		images := minio.NewCatalogImages(client, cfg.MinIOBucketCatalog, cfg.MinIOPublicURL)
		if err := images.EnsureBucket(ctx); err != nil {
			logger.Warn("catalog image bucket check failed", zap.String("bucket", cfg.MinIOBucketCatalog), zap.Error(err))
		}
		storage = images
	}

	itineraries := service.NewItineraryService(
		postgres.NewItineraryRepo(db),
		postgres.NewCatalogRepo(db),
		service.ItineraryConfig{
			StrictReferences: cfg.StrictReferences,
			Cache:            cache,
			Storage:          storage,
			Logger:           logger.Named("itinerary"),
		},
	)

	e := transporthttp.NewRouter(cfg.AllowOrigins, logger)
	transporthttp.RegisterSwagger(e, cfg.SwaggerSpecPath, logger)
	transporthttp.RegisterItineraries(e, itineraries, util.NewJWTManager(cfg.JWTSecret, time.Hour),
		transporthttp.ItineraryFeatures{Write: cfg.EnableItineraryWrite}, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
