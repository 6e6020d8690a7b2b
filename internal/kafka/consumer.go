package kafka

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

type EventHandler func(ctx context.Context, event BookingEvent) error

// Consume reads until ctx is done. A message that fails to decode or to be
// handled is logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handle EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := Dispatch(ctx, msg, handle); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func Dispatch(ctx context.Context, msg kafka.Message, handle EventHandler) error {
	event, err := DecodeBookingEvent(msg.Value)
	if err != nil {
		log.Printf("[kafka] skip message at offset %d: %v", msg.Offset, err)
		return nil
	}
	if err := handle(ctx, event); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Printf("[kafka] handle %s for booking %d at offset %d: %v", event.Type, event.BookingID, msg.Offset, err)
	}
	return nil
}
