package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/adapter/broker/rabbitmq"
	"github.com/iho/gotransact/internal/adapter/broker/redisstream"
	httpAdapter "github.com/iho/gotransact/internal/adapter/http"
	"github.com/iho/gotransact/internal/adapter/http/handler"
	"github.com/iho/gotransact/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gotransact/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gotransact/internal/adapter/repository/redis"
	"github.com/iho/gotransact/internal/infrastructure/config"
	"github.com/iho/gotransact/internal/infrastructure/eventpublisher"
	"github.com/iho/gotransact/internal/infrastructure/logger"
	"github.com/iho/gotransact/internal/infrastructure/metrics"
	"github.com/iho/gotransact/internal/infrastructure/postgres"
	"github.com/iho/gotransact/internal/infrastructure/redis"
	"github.com/iho/gotransact/internal/usecase"
)

const serviceName = "gotransact"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWithRegisterer(registry)

	broker, closeBroker, err := newBroker(cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer closeBroker()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	clientRepo := postgresRepo.NewClientRepository(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	entryRepo := postgresRepo.NewBalanceTransactionRepository(pool)
	deadLetterRepo := postgresRepo.NewDeadLetterRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	balanceCache := redisRepo.NewCache(redisClient, m)

	// Result delivery
	publisher := eventpublisher.NewPublisher(eventpublisher.Config{
		Broker:        broker,
		DeadLetters:   deadLetterRepo,
		Logger:        log,
		Metrics:       m,
		Topic:         cfg.ResultsTopic,
		RetryAttempts: cfg.PublishRetryAttempts,
		RetryInterval: cfg.PublishRetryInterval,
	})
	dispatcher := eventpublisher.NewDispatcher(eventpublisher.DispatcherConfig{
		Publisher: publisher,
		Logger:    log,
		Metrics:   m,
		QueueSize: cfg.DispatchQueueSize,
		Workers:   cfg.DispatchWorkers,
	})
	// Workers outlive the signal so queued events drain on Stop.
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	if cfg.DeadLetterRetryInterval > 0 {
		job := eventpublisher.NewRetryJob(publisher, cfg.DeadLetterRetryInterval, log)
		go job.Start(ctx)
	}

	// Initialize use cases
	transactionUC := usecase.NewTransactionUseCase(
		txManager, clientRepo, balanceRepo, entryRepo,
		postgresRepo.NewTransactionIDGenerator(usecase.TransactionIDPrefix), dispatcher,
		usecase.WithRetrier(postgresRepo.NewRetrier(log)),
		usecase.WithBalanceCache(balanceCache, cfg.BalanceCacheTTL),
		usecase.WithAutoProvisioning(cfg.AutoProvisionClients),
		usecase.WithTransactionTimeout(cfg.TransactionTimeout),
		usecase.WithLogger(log),
	)
	reconciliationUC := usecase.NewReconciliationUseCase(clientRepo, balanceRepo, entryRepo)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC, log),
		AdminHandler:       handler.NewAdminHandler(publisher, reconciliationUC, log),
		HealthHandler: handler.NewHealthHandler(
			handler.Check{Name: "postgres", Ping: pool.Ping},
			handler.Check{Name: "redis", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		Gatherer:         registry,
		Logger:           log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("broker", cfg.BrokerDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// newBroker selects the result event transport. The returned func releases it.
func newBroker(cfg *config.Config, redisClient *goredis.Client, log zerolog.Logger) (eventpublisher.Broker, func() error, error) {
	noop := func() error { return nil }

	switch cfg.BrokerDriver {
	case config.BrokerRedis:
		return redisstream.NewBroker(redisClient, redisstream.DefaultMaxLen), noop, nil
	case config.BrokerAMQP:
		b, err := rabbitmq.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to amqp: %w", err)
		}
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("connected to amqp")
		return b, b.Close, nil
	case config.BrokerLog:
		return eventpublisher.NewLogBroker(log), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown broker driver %q", cfg.BrokerDriver)
	}
}
