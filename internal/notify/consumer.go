package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const (
	deliveryAttempts = 5
	initialBackoff   = 500 * time.Millisecond
)

// Consumer drains the notices topic and delivers email best-effort. A notice
// that still fails after the retry budget is logged and marked; it never
// propagates back to the booking transition that produced it.
type Consumer struct {
	mailer Mailer
	log    *zap.Logger
	ready  chan bool
}

func NewConsumer(mailer Mailer, log *zap.Logger) *Consumer {
	return &Consumer{
		mailer: mailer,
		log:    log.Named("consumer"),
		ready:  make(chan bool),
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	// Mark the consumer as ready
	close(consumer.ready)
	return nil
}

func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var notice Notice
			if err := json.Unmarshal(message.Value, &notice); err != nil {
				consumer.log.Error("unmarshal notice", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.deliver(session.Context(), notice); err != nil {
				consumer.log.Error("notice delivery gave up",
					zap.String("bookingId", notice.BookingID),
					zap.String("recipient", notice.Recipient),
					zap.Error(err))
			} else {
				consumer.log.Debug("notice delivered",
					zap.String("bookingId", notice.BookingID),
					zap.String("status", string(notice.Status)))
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (consumer *Consumer) deliver(ctx context.Context, notice Notice) error {
	var err error
	backoff := initialBackoff
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		if err = consumer.mailer.Send(ctx, notice.Recipient, notice.Subject(), notice.Body()); err == nil {
			return nil
		}
		consumer.log.Warn("notice delivery failed",
			zap.Int("attempt", attempt),
			zap.String("bookingId", notice.BookingID),
			zap.Error(err))
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
