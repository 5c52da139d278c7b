package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_bazar/internal/cache"
	"github.com/fjod/go_bazar/internal/config"
	"github.com/fjod/go_bazar/internal/events"
	h "github.com/fjod/go_bazar/internal/http"
	"github.com/fjod/go_bazar/internal/imagehost"
	"github.com/fjod/go_bazar/internal/metrics"
	"github.com/fjod/go_bazar/internal/repository"
	"github.com/fjod/go_bazar/internal/service"
	"github.com/fjod/go_bazar/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (overrides $"+config.EnvConfigFile+")")
	flag.Parse()

	cfg, err := config.LoadCatalog(*configPath)
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.Options{
		Service:     "catalog",
		Env:         cfg.Env,
		Level:       cfg.LogLevel,
		Development: cfg.Env == "development",
	})
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)

	// Set up MongoDB connection
	ctx := context.Background()
	mongoDB, err := repository.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := repository.Disconnect(mongoDB); err != nil {
			log.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	repo := repository.NewMongoRepository(mongoDB)
	if err := repository.EnsureIndexes(ctx, repo); err != nil {
		log.Fatal("failed to create indexes", zap.Error(err))
	}
	log.Info("connected to MongoDB", zap.String("db", cfg.MongoDB))

	var productCache cache.ProductCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		productCache = cache.NewRedisCache(redisClient)
		log.Info("redis product cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		log.Info("publishing product events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	var uploader imagehost.Uploader
	if cfg.ImageHostURL != "" {
		uploader = imagehost.NewHTTPUploader(imagehost.Config{
			Endpoint:     cfg.ImageHostURL,
			UploadPreset: cfg.ImageHostPreset,
			Folder:       cfg.ImageHostFolder,
			Timeout:      cfg.ImageTimeout,
		}, log)
	} else {
		log.Warn("image host not configured, products with images will be rejected")
	}

	reg := metrics.NewRegistry()
	svc := service.NewCatalogService(repo, productCache, uploader, publisher,
		service.WithLogger(log),
		service.WithMetrics(reg))

	// Warm the shared detail cache when a product is created.
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if len(cfg.KafkaBrokers) > 0 && cfg.RedisAddr != "" {
		consumer := events.NewConsumer(func(ctx context.Context, e events.ProductCreated) error {
			return svc.WarmCache(ctx, e.ProductID)
		}, log, cfg.KafkaTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...)
		defer func() {
			if err := consumer.Close(); err != nil {
				log.Warn("error closing kafka reader", zap.Error(err))
			}
		}()
		go consumer.Run(consumerCtx)
	}

	router := h.NewRouter(h.RouterConfig{
		Products:       h.NewProductHandler(svc, cfg.RequestTimeout, log),
		Metrics:        reg,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodySize:    cfg.MaxBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("catalog service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopConsumer()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
