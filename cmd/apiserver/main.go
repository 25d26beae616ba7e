// API server entry point for AgValue-Intelligence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appvaluation "github.com/turtacn/AgValue-Intelligence/internal/application/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/config"
	domainValuation "github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/AgValue-Intelligence/internal/intelligence/appraiser"
	httpserver "github.com/turtacn/AgValue-Intelligence/internal/interfaces/http"
	"github.com/turtacn/AgValue-Intelligence/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if *configPath != "" {
		config.Watch(*configPath, func(next *config.Config) {
			logger.Info("configuration file reloaded; server settings apply on restart",
				logging.String("log_level", next.Log.Level))
		})
	}

	logger.Info("starting AgValue-Intelligence API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
	)

	metrics := prometheus.NewMetrics("agvalue")

	searchClient, err := opensearch.NewClient(cfg.Search, logger)
	if err != nil {
		logger.Fatal("failed to build search client", logging.Err(err))
	}
	searcher := opensearch.NewSearcher(searchClient, cfg.Search, logger)

	checkers := []handlers.HealthChecker{
		handlers.NewChecker("opensearch", searchClient.Ping),
	}
	opts := appvaluation.Options{
		Metrics:  metrics,
		CacheTTL: cfg.Valuation.CacheTTL,
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", logging.Err(err))
		}
		defer redisClient.Close()

		cache := redis.NewCache(redisClient, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
		)
		opts.Cache = cache
		checkers = append(checkers, handlers.NewChecker("redis", cache.Ping))
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, logger)
		defer producer.Close()
		opts.Publisher = producer
	}

	if cfg.Appraiser.Enabled {
		opts.Narrator = appraiser.NewAppraiser(cfg.Appraiser, logger)
	}

	engine := domainValuation.NewEngine(cfg.Valuation.MinSampleSize, cfg.Valuation.OutlierMinSamples, logger)
	service := appvaluation.NewService(searcher, engine, logger, opts)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ValuationHandler: handlers.NewValuationHandler(service, logger),
		HealthHandler:    handlers.NewHealthHandler(version, checkers...),
		Logger:           logger,
		Metrics:          metrics,
		Mode:             cfg.Server.Mode,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("http server failed", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := server.Stop(context.Background()); err != nil {
		logger.Error("shutdown error", logging.Err(err))
	}
	logger.Info("AgValue-Intelligence API server stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
