package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const ReminderRoutingKey = "reminder.due"

// RabbitGateway publishes reminders to a topic exchange and waits for the
// broker to confirm each message before returning.
type RabbitGateway struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *slog.Logger
	mu       sync.Mutex
}

func NewRabbitGateway(url, exchange string, log *slog.Logger) (*RabbitGateway, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &RabbitGateway{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func (g *RabbitGateway) Close() {
	if g.channel != nil {
		_ = g.channel.Close()
	}
	if g.conn != nil {
		_ = g.conn.Close()
	}
}

type envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// encodeReminder builds the message body consumers of the exchange expect.
func encodeReminder(r Reminder, now time.Time) ([]byte, error) {
	return json.Marshal(envelope{
		Type:      ReminderRoutingKey,
		Timestamp: now.UTC(),
		Payload:   r,
	})
}

func (g *RabbitGateway) SendReminder(ctx context.Context, r Reminder) error {
	body, err := encodeReminder(r, time.Now())
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	dc, err := g.channel.PublishWithDeferredConfirmWithContext(ctx,
		g.exchange, ReminderRoutingKey, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    r.AssignmentID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return err
	}
	ok, err := dc.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("broker nacked reminder")
	}
	if g.log != nil {
		g.log.DebugContext(ctx, "reminder published", "exchange", g.exchange, "assignment_id", r.AssignmentID)
	}
	return nil
}

// String is used in startup logs.
func (g *RabbitGateway) String() string { return fmt.Sprintf("rabbitmq(%s)", g.exchange) }
