package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/media-fetch-bot/config"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
)

// Module provides the delivery-event producer for fx dependency injection
var Module = fx.Module("kafka",
	fx.Provide(provideProducer),
)

// provideProducer creates the outcome producer, falling back to a no-op
// implementation when no brokers are configured
func provideProducer(lc fx.Lifecycle, cfg *config.KafkaConfig, logger zerolog.Logger) (deps.OutcomeProducer, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("No Kafka brokers configured, delivery events disabled")
		return NopProducer{}, nil
	}

	producer, err := NewProducer(cfg.Brokers, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})

	return producer, nil
}
