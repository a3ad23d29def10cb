package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/RyzenMagsino/Carwash/pkg/kafka"
)

// MobileBookingHandler processes a booking submission from the mobile app.
// Returning an error leaves the message uncommitted for redelivery.
type MobileBookingHandler func(ctx context.Context, evt MobileBookingSubmittedEvent) error

// MobileEventConsumer listens to mobile-app events and creates pending
// bookings from submissions.
type MobileEventConsumer struct {
	consumer *kafka.Consumer
	handle   MobileBookingHandler
	logger   *zap.Logger
}

// NewMobileEventConsumer creates a new MobileEventConsumer.
func NewMobileEventConsumer(
	brokers []string,
	groupID string,
	handle MobileBookingHandler,
	logger *zap.Logger,
) *MobileEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicMobileEvents, logger)
	return &MobileEventConsumer{
		consumer: consumer,
		handle:   handle,
		logger:   logger,
	}
}

// Start begins consuming mobile events. This blocks until the context is cancelled.
func (c *MobileEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *MobileEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *MobileEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from mobile topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case MobileBookingSubmitted:
		return c.handleBookingSubmitted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled mobile event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *MobileEventConsumer) handleBookingSubmitted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt MobileBookingSubmittedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse MobileBookingSubmittedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing mobile booking submission",
		zap.String("customer", evt.CustomerName),
		zap.String("plate_number", evt.PlateNumber),
	)

	if err := c.handle(ctx, evt); err != nil {
		c.logger.Error("failed to create booking from mobile submission",
			zap.String("plate_number", evt.PlateNumber),
			zap.Error(err),
		)
		return err
	}
	return nil
}
