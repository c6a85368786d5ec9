package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/config"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/geo"
	h "github.com/femmynice-collab/auntie-jummys-shop/internal/http"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/notify"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/repository"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/service"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/square"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if cfg.Environment == "production" && cfg.WebhookSignatureKey == "" {
		logger.Warn("webhook signature key is empty; all webhook deliveries will be trusted")
	}

	store, err := repository.NewStore(&repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.RunMigrations(&repository.Credentials{MigrationsDirPath: cfg.MigrationsPath}); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Geocoding, optionally cached in Redis.
	var resolver geo.Resolver = geo.NewHTTPResolver(cfg.GeocoderURL)
	if cfg.RedisAddr != "" {
		resolver = geo.NewCachedResolver(resolver, redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	// Notifications, published to Kafka when brokers are configured.
	var notifier notify.Notifier = notify.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		notifier = notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotifyTopic)
	}
	dispatcher := notify.NewDispatcher(notifier, logger)
	defer dispatcher.Close()

	var squareClient square.Client
	if cfg.SquareAccessToken != "" {
		squareClient, err = square.NewAPIClient(square.Config{
			Environment: cfg.SquareEnv,
			AccessToken: cfg.SquareAccessToken,
			LocationID:  cfg.SquareLocationID,
		})
		if err != nil {
			logger.Error("failed to build square client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("square access token not set; payment links, sync and inventory pushes are disabled")
		squareClient = square.Disabled{}
	}

	tiers, err := service.ParseFeeTiers(cfg.DeliveryFeeTiers)
	if err != nil {
		logger.Warn("malformed delivery fee tiers; geo fees disabled", "tiers", cfg.DeliveryFeeTiers, "error", err)
		tiers = nil
	}
	logger.Info("delivery pricing configured",
		"store_zip", cfg.StoreZip,
		"tiers", service.FeeTiersString(tiers),
		"free_delivery_threshold", cfg.FreeDeliveryThreshold.String())

	fees := service.NewGeoFeeCalculator(resolver, cfg.StoreZip, tiers, logger)
	promos := service.NewPromoEngine(store)
	guard := service.NewAvailabilityGuard(store)
	checkout := service.NewCheckoutOrchestrator(
		store, store, store, promos, guard, fees, squareClient, dispatcher,
		cfg.FreeDeliveryThreshold, cfg.OrderNotifyEmail, logger)
	syncer := service.NewCatalogSyncer(store, squareClient, cfg.SyncDefaultStock, logger)
	reconciler := service.NewPaymentReconciler(
		store, squareClient, dispatcher, cfg.WebhookSignatureKey, cfg.OrderNotifyEmail, logger)

	router := h.NewRouter(
		h.NewCheckoutHandler(checkout, guard, store, cfg.RequestTimeout),
		h.NewWebhookHandler(reconciler),
		h.NewAdminHandler(syncer, store, logger),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.HTTPPort, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
}
