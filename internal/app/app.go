// Package app wires the service together and runs it until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/cribnosh/group-ordering/internal/auth"
	"github.com/cribnosh/group-ordering/internal/cache"
	"github.com/cribnosh/group-ordering/internal/config"
	"github.com/cribnosh/group-ordering/internal/domain/money"
	"github.com/cribnosh/group-ordering/internal/fulfillment"
	"github.com/cribnosh/group-ordering/internal/http/handlers"
	"github.com/cribnosh/group-ordering/internal/offers"
	"github.com/cribnosh/group-ordering/internal/service/conversion"
	"github.com/cribnosh/group-ordering/internal/service/grouporder"
	"github.com/cribnosh/group-ordering/internal/storage/pg"
	"github.com/cribnosh/group-ordering/pkg/kafka"
	"github.com/cribnosh/group-ordering/pkg/logging"
	"github.com/cribnosh/group-ordering/pkg/outbox"
)

type App struct {
	cfg    *config.Config
	logger *slog.Logger

	storage    *pg.Storage
	stateCache *cache.StateCache
	service    *grouporder.Service
	pipeline   *conversion.Pipeline

	producer *kafka.Producer
	relay    *outbox.Relay
	consumer *kafka.Consumer

	apiServer     *http.Server
	metricsServer *http.Server
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	ctx := context.Background()

	logger := logging.New(cfg.App.LogLevel, cfg.App.Name, cfg.App.LogPretty)
	slog.SetDefault(logger)
	logger.Info("initialising", slog.String("service", cfg.App.Name))

	storage, err := pg.NewPGStorage(ctx, logger, &pg.StorageConfig{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLife:     cfg.Postgres.MaxConnLifetime,
		MaxConnIdleTime: cfg.Postgres.MaxConnIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("app creation: %w", err)
	}
	if err = storage.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("app creation: %w", err)
	}
	logger.Info("postgres connected")

	stateCache, err := cache.NewStateCache(ctx, logger, &cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("app creation: %w", err)
	}
	logger.Info("redis connected")

	service := grouporder.NewService(logger, storage, stateCache, offers.Default(), grouporder.Config{
		Currency:           money.Currency(cfg.GroupOrder.Currency),
		ExpiresIn:          cfg.GroupOrder.ExpiresIn,
		ShareTTL:           cfg.GroupOrder.ShareTTL,
		ShareBaseURL:       cfg.GroupOrder.ShareBaseURL,
		SelectionMinBudget: cfg.GroupOrder.SelectionMinBudget,
		AutoCloseOnReady:   cfg.GroupOrder.AutoCloseOnReady,
		EventTopic:         cfg.Kafka.EventTopic,
	})

	creator := fulfillment.NewClient(&fulfillment.ClientConfig{
		BaseURL: cfg.Fulfillment.BaseURL,
		Timeout: cfg.Fulfillment.Timeout,
	})
	pipeline := conversion.NewPipeline(logger, service, creator,
		cfg.Fulfillment.MaxRetries, cfg.Fulfillment.Backoff)

	producer, err := kafka.NewProducer(&kafka.ProducerConfig{
		Brokers:     cfg.Kafka.Brokers,
		Acks:        cfg.Kafka.Acks,
		LingerMs:    cfg.Kafka.LingerMs,
		Compression: cfg.Kafka.Compression,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("app creation: %w", err)
	}

	relay := outbox.NewRelay(storage, producer, logger,
		cfg.Outbox.BatchSize, cfg.Outbox.PollInterval)

	consumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Topics:            []string{cfg.Kafka.StatusTopic},
		Brokers:           cfg.Kafka.Brokers,
		ConsumerGroup:     cfg.Kafka.ConsumerGroup,
		OffsetReset:       "earliest",
		SessionTimeoutMs:  cfg.Kafka.SessionTimeoutMs,
		MaxPollInterval:   cfg.Kafka.MaxPollInterval,
		PartitionStrategy: "cooperative-sticky",
	}, fulfillment.StatusHandler(service, logger), logger)
	if err != nil {
		return nil, fmt.Errorf("app creation: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handlers.Router(logger, service, pipeline, jwtManager),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort),
		Handler: metricsMux,
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		storage:       storage,
		stateCache:    stateCache,
		service:       service,
		pipeline:      pipeline,
		producer:      producer,
		relay:         relay,
		consumer:      consumer,
		apiServer:     apiServer,
		metricsServer: metricsServer,
	}, nil
}

// Run starts every component and blocks until a signal arrives or one of
// them fails, then shuts down in order.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server starting", slog.String("addr", a.apiServer.Addr))
		if err := a.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("metrics server starting", slog.String("addr", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.relay.Run(ctx)
	})

	g.Go(func() error {
		return a.consumer.Run(ctx)
	})

	g.Go(func() error {
		return a.sweepLoop(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		a.shutdown()
		return nil
	})

	err := g.Wait()
	a.producer.Close()
	if cerr := a.stateCache.Close(); cerr != nil {
		a.logger.Error("redis close", slog.Any("error", cerr))
	}
	a.storage.Close()
	a.logger.Info("stopped")
	return err
}

// sweepLoop periodically finalises expired orders and converts whatever is
// sitting in closed. Orders closed by expiry or auto-close never pass
// through a request handler, so this loop is what moves them on to
// confirmed or cancelled.
func (a *App) sweepLoop(ctx context.Context) error {
	interval := a.cfg.GroupOrder.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			expired, err := a.service.SweepExpired(ctx)
			if err != nil {
				a.logger.Error("expiry sweep failed", slog.Any("error", err))
				continue
			}
			converted, err := a.pipeline.ConvertPending(ctx)
			if err != nil {
				a.logger.Error("pending conversion sweep failed", slog.Any("error", err))
				continue
			}
			if expired > 0 || converted > 0 {
				a.logger.Info("sweep",
					slog.Int("expired", expired),
					slog.Int("converted", converted))
			}
		}
	}
}

func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", slog.Any("error", err))
	}
	if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("metrics shutdown", slog.Any("error", err))
	}
}
