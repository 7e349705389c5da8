package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/cache"
	"github.com/kahurangi/trapnz-mirror/internal/config"
	"github.com/kahurangi/trapnz-mirror/internal/mq"
	"github.com/kahurangi/trapnz-mirror/internal/store"
	"github.com/kahurangi/trapnz-mirror/internal/tools"
	"github.com/kahurangi/trapnz-mirror/internal/trapnz"
)

func startWorker(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	handler *mq.CommandHandler,
) (*mq.Consumer, error) {
	// Consumer context outlives individual fx hooks; cancelled on stop.
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:    conn,
		Queue:         cfg.RabbitMQ.CommandQueue,
		DLQQueue:      cfg.RabbitMQ.DLQQueue,
		Exchange:      cfg.RabbitMQ.CommandExchange,
		RoutingKey:    cfg.RabbitMQ.CommandRoutingKey,
		PrefetchCount: cfg.RabbitMQ.PrefetchCount,
		Logger:        logger,
		Handler:       handler.Handle,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting mirror consumer",
				zap.String("queue", cfg.RabbitMQ.CommandQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			return consumer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close consumer", zap.Error(err))
				return err
			}
			logger.Info("mirror worker stopped gracefully")
			return nil
		},
	})

	return consumer, nil
}

// ProvideStore opens the local mirror database.
func ProvideStore(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN(), logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return st.Ping(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return st.Close()
		},
	})
	return st, nil
}

// ProvideSource selects the remote data source: the canned fixture in
// test mode, the live API client otherwise.
func ProvideSource(cfg *config.Config, logger *zap.Logger) trapnz.Source {
	if cfg.API.TestMode {
		logger.Info("test mode enabled, using fixture data source")
		return trapnz.NewFixture(logger)
	}
	return trapnz.NewClient(trapnz.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, logger)
}

// ProvideCoordinator creates the caching layer over store and source.
func ProvideCoordinator(st *store.Store, source trapnz.Source, cfg *config.Config, logger *zap.Logger) *cache.Coordinator {
	return cache.NewCoordinator(st, source, cfg.Cache.FreshnessWindow, logger)
}

// ProvideTools creates the tool surface.
func ProvideTools(coordinator *cache.Coordinator, st *store.Store, logger *zap.Logger) *tools.Tools {
	return tools.New(coordinator, st, logger)
}

// ProvideMQConnection creates the shared RabbitMQ connection.
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the event publisher.
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	return mq.NewPublisher(conn, cfg.RabbitMQ.EventExchange, logger)
}

// ProvideCommandHandler creates the command handler the consumer runs.
func ProvideCommandHandler(
	coordinator *cache.Coordinator,
	toolset *tools.Tools,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *mq.CommandHandler {
	return mq.NewCommandHandler(coordinator, toolset, publisher, cfg.RabbitMQ.EventRoutingKey, logger)
}
