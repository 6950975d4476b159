package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"roominventory/models"
)

const (
	DefaultStatusQueue = "inventory.status_changed"

	DefaultDialTimeout   = 2 * time.Second
	DefaultRedialBackoff = 5 * time.Second
)

// AMQPPublisher pushes status events to a durable RabbitMQ queue.
// The connection is opened lazily and reopened after a failure. After a failed
// dial, publishes fail fast until the backoff has passed.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	redialAfter time.Duration
	now         func() time.Time

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	retryAfter time.Time
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultStatusQueue
	}
	return &AMQPPublisher{
		url:         url,
		queue:       queue,
		dialTimeout: DefaultDialTimeout,
		redialAfter: DefaultRedialBackoff,
		now:         time.Now,
	}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	if now := p.now(); now.Before(p.retryAfter) {
		return nil, fmt.Errorf("rabbitmq: broker unavailable, next dial after %s", p.retryAfter.Format(time.RFC3339))
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		p.retryAfter = p.now().Add(p.redialAfter)
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.retryAfter = time.Time{}
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event models.StatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         event.Kind,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.closeLocked()
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
