package events

import (
	"context"

	"github.com/smallbiznis/foundr/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)

func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	if cfg.Events.AMQPURL == "" {
		log.Info("AMQP_URL not set, domain events are logged only")
		return NewLogPublisher(log)
	}

	publisher := NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}
