package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RyzenMagsino/Carwash/pkg/kafka"
)

// KafkaNotifier publishes customer notifications to TopicNotifications.
// Notify never blocks: notifications are queued on a buffered channel and
// drained by a dispatcher goroutine, so a slow or unreachable broker cannot
// stall a booking transition. Delivery failures are logged, never returned.
type KafkaNotifier struct {
	producer *kafka.Producer
	logger   *zap.Logger

	queue chan CustomerNotification
	done  chan struct{}
	once  sync.Once
}

const notifierQueueSize = 256

// NewKafkaNotifier creates a KafkaNotifier and starts its dispatcher.
func NewKafkaNotifier(producer *kafka.Producer, logger *zap.Logger) *KafkaNotifier {
	n := &KafkaNotifier{
		producer: producer,
		logger:   logger,
		queue:    make(chan CustomerNotification, notifierQueueSize),
		done:     make(chan struct{}),
	}
	go n.dispatch()
	return n
}

// Notify queues a notification for delivery. If the queue is full the
// notification is dropped with an error log; delivery is best-effort and the
// state transition it belongs to has already been committed.
func (n *KafkaNotifier) Notify(notification CustomerNotification) {
	select {
	case n.queue <- notification:
	default:
		n.logger.Error("notification queue full, dropping notification",
			zap.String("booking_id", notification.BookingID.String()),
			zap.String("kind", string(notification.Kind)),
		)
	}
}

// Close stops the dispatcher after draining queued notifications.
func (n *KafkaNotifier) Close() error {
	n.once.Do(func() {
		close(n.queue)
		<-n.done
	})
	return nil
}

func (n *KafkaNotifier) dispatch() {
	defer close(n.done)

	for notification := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		n.publish(ctx, notification)
		cancel()
	}
}

func (n *KafkaNotifier) publish(ctx context.Context, notification CustomerNotification) {
	event, err := kafka.NewCloudEvent("service-scheduling", "notification."+string(notification.Kind), notification)
	if err != nil {
		n.logger.Error("failed to create notification event",
			zap.String("booking_id", notification.BookingID.String()),
			zap.Error(err),
		)
		return
	}

	if err := n.producer.PublishEvent(ctx, TopicNotifications, event); err != nil {
		n.logger.Error("failed to publish customer notification",
			zap.String("booking_id", notification.BookingID.String()),
			zap.String("kind", string(notification.Kind)),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("customer notification dispatched",
		zap.String("booking_id", notification.BookingID.String()),
		zap.String("kind", string(notification.Kind)),
	)
}
