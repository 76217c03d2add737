package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/LeoQ9904/back-ecommerce/internal/config"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/LeoQ9904/back-ecommerce/internal/seed"
	"github.com/LeoQ9904/back-ecommerce/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer db.Client().Disconnect(context.Background())

	if err := repository.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	products := repository.NewProductRepository(db)
	seeder := seed.NewSeeder(repository.NewCategoryRepository(db), repository.NewNotificationRepository(db), products, log)

	res, err := seeder.SeedProducts(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to seed products")
	}

	stats, err := products.Statistics(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to compute product statistics")
	}
	log.WithFields(logrus.Fields{
		"inserted":       res.Inserted,
		"existing":       res.Existing,
		"failed":         res.Failed,
		"total_products": stats.TotalProducts,
		"total_stock":    stats.TotalStock,
		"total_value":    stats.TotalValue,
		"categories":     stats.CategoryList,
		"brands":         stats.BrandList,
	}).Info("product seeding complete")
}
