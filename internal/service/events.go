package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/queue"
)

// EventPublisher hands order events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.OrderEvent) error
}

var publishTimeout = 3 * time.Second

// publishAll sends evs best effort within publishTimeout.  Failures are
// logged and never reach the caller; events left when the deadline passes
// are dropped.  A nil publisher disables events.
func publishAll(ctx context.Context, pub EventPublisher, log logrus.FieldLogger, evs ...queue.OrderEvent) {
	if pub == nil || len(evs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for i, ev := range evs {
		if err := ctx.Err(); err != nil {
			log.WithError(err).WithField("dropped", len(evs)-i).Warn("order events dropped")
			return
		}
		ev.Stamp()
		if err := pub.Publish(ctx, ev); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"event":    ev.Type,
				"order_id": ev.OrderID,
			}).Warn("order event not published")
		}
	}
}
