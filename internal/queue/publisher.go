package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/metrics"
)

const (
	// dialTimeout caps a connect attempt when the caller's context has no
	// deadline.
	dialTimeout = 5 * time.Second
	// redialBackoff is how long Publish fails fast after a failed connect.
	redialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher is backing off after
// a failed connect.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// Publisher sends OrderEvents to a durable queue on the default exchange.
// The broker connection is opened on first use and reopened after a
// failure.  Errors are returned, not logged; callers decide what to do
// with them.
type Publisher struct {
	url   string
	queue string
	log   logrus.FieldLogger

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
	now     func() time.Time
}

// NewPublisher returns a publisher for queue at url.  No connection is made
// until the first Publish.
func NewPublisher(url, queue string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, queue: queue, log: log, now: time.Now}
}

// Publish marshals ev and sends it as a persistent message.  Connecting is
// bounded by ctx.
func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) error {
	if ev.OccurredAt == "" {
		ev.Stamp()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		metrics.RecordEventPublish(ev.Type, false)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         ev.Type,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		metrics.RecordEventPublish(ev.Type, false)
		return fmt.Errorf("publish: %w", err)
	}
	metrics.RecordEventPublish(ev.Type, true)
	return nil
}

// channel returns the open channel, dialing and declaring the queue when
// needed.  Callers hold p.mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.now().Before(p.retryAt) {
		return nil, ErrBrokerUnavailable
	}

	ch, err := p.connect(ctx)
	if err != nil {
		p.retryAt = p.now().Add(redialBackoff)
		return nil, err
	}
	p.retryAt = time.Time{}
	p.log.WithField("queue", p.queue).Info("rabbitmq: publisher connected")
	return ch, nil
}

func (p *Publisher) connect(ctx context.Context) (*amqp.Channel, error) {
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
