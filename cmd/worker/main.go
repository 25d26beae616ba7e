// Background worker entry point.  Consumes queued valuation requests from
// the event bus, runs the valuation pipeline, and publishes the results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appvaluation "github.com/turtacn/AgValue-Intelligence/internal/application/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/config"
	domainValuation "github.com/turtacn/AgValue-Intelligence/internal/domain/valuation"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthAddr := flag.String("health-addr", ":8081", "listen address for health and metrics endpoints")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Kafka.Enabled {
		fmt.Fprintln(os.Stderr, "the worker requires kafka; set AGVALUE_KAFKA_ENABLED=true")
		os.Exit(1)
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
	logger = logger.Named("worker")

	logger.Info("starting AgValue-Intelligence worker",
		logging.String("version", version),
		logging.Any("brokers", cfg.Kafka.Brokers),
	)

	metrics := prometheus.NewMetrics("agvalue_worker")

	searchClient, err := opensearch.NewClient(cfg.Search, logger)
	if err != nil {
		logger.Fatal("failed to build search client", logging.Err(err))
	}
	searcher := opensearch.NewSearcher(searchClient, cfg.Search, logger)

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
		opts.Cache = redis.NewCache(redisClient, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
		)
	}

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()
	opts.Publisher = producer

	engine := domainValuation.NewEngine(cfg.Valuation.MinSampleSize, cfg.Valuation.OutlierMinSamples, logger)
	service := appvaluation.NewService(searcher, engine, logger, opts)

	consumer := kafka.NewConsumer(cfg.Kafka, []string{kafka.TopicValuationRequested}, producer, logger)
	consumer.RegisterHandler(kafka.TopicValuationRequested, requestHandler(service, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthSrv := startHealthServer(*healthAddr, metrics, consumer, logger)

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case err := <-consumerErr:
		if err != nil {
			logger.Error("consumer loop failed", logging.Err(err))
		}
	}

	cancel()
	if err := consumer.Close(); err != nil {
		logger.Error("consumer close error", logging.Err(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	logger.Info("AgValue-Intelligence worker stopped",
		logging.Int64("consumed", consumer.Consumed()),
		logging.Int64("failed", consumer.Failed()),
	)
}

// requestHandler decodes a queued valuation request and runs it through the
// pipeline.  The service publishes the completed or failed event itself, so
// an insufficient-data outcome is final: returning it here would only retry
// a request that cannot succeed.
func requestHandler(service appvaluation.Service, logger logging.Logger) kafka.Handler {
	return func(ctx context.Context, envelope *kafka.EventEnvelope) error {
		var payload kafka.ValuationRequestedPayload
		if err := envelope.DecodePayload(&payload); err != nil {
			return err
		}

		logger.Info("processing valuation request",
			logging.String("request_id", payload.RequestID),
			logging.String("make", payload.Make),
			logging.String("model", payload.Model),
		)

		_, err := service.Evaluate(ctx, &appvaluation.EvaluateInput{
			RequestID:   payload.RequestID,
			Make:        payload.Make,
			Model:       payload.Model,
			Year:        payload.Year,
			Condition:   payload.Condition,
			HoursUsed:   payload.HoursUsed,
			Description: payload.Description,
		})
		if err != nil {
			if errors.IsInsufficientData(err) || errors.GetCode(err) == errors.ErrCodeBadRequest {
				logger.Warn("valuation request rejected",
					logging.String("request_id", payload.RequestID),
					logging.Err(err),
				)
				return nil
			}
			return err
		}
		return nil
	}
}

func startHealthServer(addr string, metrics *prometheus.Metrics, consumer *kafka.Consumer, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "alive",
			"version":  version,
			"consumed": consumer.Consumed(),
			"failed":   consumer.Failed(),
		})
	})
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", logging.Err(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
