package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	dialTimeout    = 2 * time.Second
	redialCooldown = 30 * time.Second
)

// ErrBrokerUnavailable is returned without dialing while a failed connection
// attempt is cooling down.
var ErrBrokerUnavailable = errors.New("broker_unavailable")

// AMQPPublisher publishes JSON events on a durable topic exchange. The
// connection is opened on first use and reopened after it drops. After a
// failed dial no new attempt is made until the cooldown passes.
type AMQPPublisher struct {
	url      string
	exchange string
	log      *zap.Logger

	dial     func(url string) (*amqp.Connection, error)
	now      func() time.Time
	cooldown time.Duration

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	retryAfter time.Time
}

func NewAMQPPublisher(url, exchange string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:      url,
		exchange: exchange,
		log:      log.Named("events.amqp"),
		dial:     dialAMQP,
		now:      time.Now,
		cooldown: redialCooldown,
	}
}

func dialAMQP(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	if p.now().Before(p.retryAfter) {
		return ErrBrokerUnavailable
	}

	conn, err := p.dial(p.url)
	if err != nil {
		p.retryAfter = p.now().Add(p.cooldown)
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.retryAfter = p.now().Add(p.cooldown)
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		p.retryAfter = p.now().Add(p.cooldown)
		return fmt.Errorf("declare exchange: %w", err)
	}

	p.conn, p.ch = conn, ch
	p.retryAfter = time.Time{}
	p.log.Info("connected to rabbitmq", zap.String("exchange", p.exchange))
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
