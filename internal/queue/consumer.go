package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// OrderLog appends one human-readable line per order event to a file.
type OrderLog struct {
	Path string

	mu sync.Mutex
}

// Append writes ev to the log, creating the directory when needed.
func (l *OrderLog) Append(ev OrderEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev OrderEvent) string {
	switch ev.Type {
	case EventOrderStatusChanged:
		return fmt.Sprintf("[%s] Order status changed | order_id=%d | buyer_id=%d | seller_id=%d | product=%q | status=%s\n",
			ev.OccurredAt, ev.OrderID, ev.BuyerID, ev.SellerID, ev.ProductTitle, ev.Status)
	default:
		return fmt.Sprintf("[%s] Order created | order_id=%d | buyer_id=%d | seller_id=%d | product=%q | qty=%d | total=%s | source=%s\n",
			ev.OccurredAt, ev.OrderID, ev.BuyerID, ev.SellerID, ev.ProductTitle, ev.Quantity, ev.TotalPrice.StringFixed(2), ev.Source)
	}
}

// Consumer drains the order events queue into an OrderLog.
type Consumer struct {
	URL   string
	Queue string
	Log   *OrderLog
	Ent   logrus.FieldLogger
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes until
// ctx is cancelled.  Broker failures trigger a reconnect with exponential
// backoff capped at 30s; malformed messages are rejected without requeue so
// the loop keeps going.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Ent.WithError(err).Warnf("order-consumer: failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Ent.WithError(err).Warn("order-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Ent.WithError(err).Warn("order-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Ent.WithError(err).Warn("order-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and records it.
func (c *Consumer) Handle(body []byte) error {
	var ev OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.OrderID == 0 {
		return fmt.Errorf("incomplete event: type=%q order_id=%d", ev.Type, ev.OrderID)
	}
	if err := c.Log.Append(ev); err != nil {
		return err
	}
	c.Ent.WithFields(logrus.Fields{
		"event":    ev.Type,
		"order_id": ev.OrderID,
		"status":   ev.Status,
	}).Info("order event recorded")
	return nil
}

// StartOrderConsumer runs a Consumer in the background and returns
// immediately.  It stops when ctx is cancelled.
func StartOrderConsumer(ctx context.Context, url, queue, logPath string, log logrus.FieldLogger) {
	c := &Consumer{URL: url, Queue: queue, Log: &OrderLog{Path: logPath}, Ent: log}
	go func() {
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("order-consumer stopped")
		}
	}()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
