package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/LeoQ9904/back-ecommerce/internal/cache"
	"github.com/LeoQ9904/back-ecommerce/internal/config"
	h "github.com/LeoQ9904/back-ecommerce/internal/http"
	"github.com/LeoQ9904/back-ecommerce/internal/poller"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/LeoQ9904/back-ecommerce/internal/seed"
	"github.com/LeoQ9904/back-ecommerce/internal/service"
	"github.com/LeoQ9904/back-ecommerce/internal/uploads"
	"github.com/LeoQ9904/back-ecommerce/internal/worker"
	"github.com/LeoQ9904/back-ecommerce/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up MongoDB connection
	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := db.Client().Disconnect(disconnectCtx); err != nil {
			log.WithError(err).Warn("failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDatabase).Info("connected to MongoDB")

	if err := repository.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// carts are still served from MongoDB; the breaker keeps retries cheap
		log.WithError(err).Warn("redis ping failed, cart cache degraded")
	} else {
		log.Info("redis ping succeeded")
	}
	cartCache := cache.NewBreakerCache(
		cache.NewRedisCache(redisClient, cfg.CartCacheTTL, cfg.CartCacheJitter),
		cfg.BreakerFailures, cfg.BreakerTimeout, log,
	)

	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	cartRepo := repository.NewCartRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	products := service.NewProductService(productRepo, categoryRepo, log)
	categories := service.NewCategoryService(categoryRepo, log)
	carts := service.NewCartService(cartRepo, cartCache, log, cfg.CartMaxRetries)
	customers := service.NewCustomerService(customerRepo, log)
	notifications := service.NewNotificationService(notificationRepo, log)

	if cfg.SeedOnStartup {
		seeder := seed.NewSeeder(categoryRepo, notificationRepo, productRepo, log)
		if _, err := seeder.SeedCategories(ctx); err != nil {
			log.WithError(err).Error("failed to seed categories")
		}
		if _, err := seeder.SeedNotifications(ctx); err != nil {
			log.WithError(err).Error("failed to seed notifications")
		}
	}

	storage, uploadsDir, err := newStorage(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to set up upload storage")
	}
	images := uploads.NewService(storage, cfg.MaxFileSize, log)

	pages := h.Pagination{DefaultLimit: cfg.DefaultPageSize, MaxLimit: cfg.MaxPageSize}
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		UploadsDir:     uploadsDir,
		Health: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
		CacheState: cartCache.State,
	}, h.Handlers{
		Products:      h.NewProductHandler(products, pages, log),
		Categories:    h.NewCategoryHandler(categories, log),
		Carts:         h.NewCartHandler(carts, log),
		Customers:     h.NewCustomerHandler(customers, images, log),
		Notifications: h.NewNotificationHandler(notifications, log),
		Uploads:       h.NewUploadHandler(images, log),
	}, log)

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(carts, poller.NewKafkaReader(cfg.CheckoutTopic, cfg.KafkaBrokers...), log)
		defer p.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(ctx)
		}()
		log.WithFields(logrus.Fields{"topic": cfg.CheckoutTopic, "brokers": cfg.KafkaBrokers}).Info("checkout consumer started")
	}
	if cfg.NotificationArchiveInterval > 0 {
		archiver := worker.NewNotificationArchiver(notifications, cfg.NotificationArchiveInterval, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			archiver.Run(ctx)
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "back-ecommerce"),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	wg.Wait()
	log.Info("server exited")
}

// newStorage keeps uploads in GCS when a bucket is configured and on local
// disk otherwise. The returned directory is empty for GCS.
func newStorage(ctx context.Context, cfg *config.Config) (uploads.Storage, string, error) {
	if cfg.UploadGCSBucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, "", err
		}
		return uploads.NewGCSStorage(client, cfg.UploadGCSBucket, cfg.UploadGCSPrefix, cfg.UploadPublicURL), "", nil
	}
	disk, err := uploads.NewDiskStorage(cfg.UploadPath)
	if err != nil {
		return nil, "", err
	}
	return disk, disk.Dir(), nil
}
