package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finance-pipeline/internal/alerts"
	"github.com/finsight/finance-pipeline/internal/api"
	"github.com/finsight/finance-pipeline/internal/cache"
	"github.com/finsight/finance-pipeline/internal/config"
	"github.com/finsight/finance-pipeline/internal/database"
	"github.com/finsight/finance-pipeline/internal/fetcher"
	"github.com/finsight/finance-pipeline/internal/kafka"
	"github.com/finsight/finance-pipeline/internal/models"
	"github.com/finsight/finance-pipeline/internal/pipeline"
	"github.com/finsight/finance-pipeline/internal/ratelimit"
	"github.com/finsight/finance-pipeline/internal/scheduler"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.Info("finance pipeline starting")

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("migrations applied")

	limiter := ratelimit.New(map[string]ratelimit.SourceConfig{
		models.SourceYahoo: {
			Quota:         cfg.Sources.YahooQuota,
			Window:        cfg.Sources.YahooWindow,
			CountFailures: false,
		},
		models.SourceAlphaVantage: {
			Quota:         cfg.Sources.AlphaVantageQuota,
			Window:        cfg.Sources.AlphaVantageWindow,
			CountFailures: true,
		},
		// FRED is unlimited but still audited.
		models.SourceFRED: {},
	}, db, log)

	yahoo := fetcher.NewYahooAdapter(limiter, "", log)
	fred := fetcher.NewFREDAdapter(limiter, "", log)

	var fallback fetcher.PriceAdapter
	if cfg.Sources.AlphaVantageKey != "" {
		fallback = fetcher.NewAlphaVantageAdapter(limiter, cfg.Sources.AlphaVantageKey, "", log)
	}

	var priceCache *cache.PriceCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, running without price cache")
		} else {
			priceCache = cache.NewPriceCache(client, db, cfg.Redis.TTL, log)
			log.WithField("addr", cfg.Redis.Addr).Info("price cache enabled")
		}
	}

	var producer *kafka.Producer
	var alertPublisher alerts.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AlertTopic)
		defer producer.Close()
		alertPublisher = producer
		log.WithField("topic", cfg.Kafka.AlertTopic).Info("alert events enabled")
	}

	evaluator := alerts.New(db, db, alertPublisher, log)

	service := pipeline.New(db, yahoo, fred, evaluator, pipeline.Options{
		Fallback:  fallback,
		Cache:     priceCache,
		BatchSize: cfg.Sources.BatchSize,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.QuoteTopic, cfg.Kafka.GroupID, db, log)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.WithError(err).Error("quote consumer stopped")
			}
		}()
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(service, cfg.Scheduler.RefreshInterval, log)
		if err := sched.Start(ctx); err != nil {
			log.WithError(err).Fatal("failed to start scheduler")
		}
		defer sched.Stop()
	}

	router := api.SetupRoutes(api.NewHandler(service, sched, log))
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown failed")
	}

	log.Info("finance pipeline stopped")
}
