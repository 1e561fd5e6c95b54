// Package notify carries booking status notifications from the HTTP path to
// the email worker through the message queue, so dispatch failures are
// observable and retryable instead of silently dropped.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/roomly/booking-service/internal/model"
)

// Notice is one queued notification about a booking status change.
type Notice struct {
	BookingID string       `json:"bookingId"`
	Recipient string       `json:"recipient"`
	Name      string       `json:"name"`
	RoomName  string       `json:"roomName"`
	Status    model.Status `json:"status"`
	StartsAt  time.Time    `json:"startsAt"`
}

func (n Notice) Subject() string {
	return fmt.Sprintf("Your booking for %s has been %s", n.RoomName, n.Status)
}

func (n Notice) Body() string {
	return fmt.Sprintf(
		"Hello %s,\r\n\r\nyour booking for %s starting %s has been %s.\r\n\r\nLibrary reservations",
		n.Name, n.RoomName, n.StartsAt.Format(time.RFC1123), n.Status)
}

type Publisher interface {
	Publish(ctx context.Context, notice Notice) error
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewPublisher(producer sarama.SyncProducer, topic string) Publisher {
	return &publisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *publisher) Publish(_ context.Context, notice Notice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(notice.BookingID),
		Value: sarama.StringEncoder(data),
	}
	if _, _, err = p.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}
