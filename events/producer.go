// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ReceiptCreated      = "receipt.created"
	ReceiptUpdated      = "receipt.updated"
	SubscriptionCreated = "subscription.created"
	SubscriptionPaid    = "subscription.paid"
	ReminderDue         = "subscription.reminder_due"
)

// Publisher sends one event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// Envelope wraps every payload so consumers can route on type and dedupe on id.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// NopPublisher drops events. Used when RABBITMQ_URL is not set.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Producer publishes JSON events to a durable topic exchange.
type Producer struct {
	conn     *amqp091.Connection
	exchange string
	logger   *slog.Logger

	mu      sync.Mutex
	channel *amqp091.Channel
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewProducer dials RabbitMQ and declares exchange once.
func NewProducer(amqpURL, exchange string, logger *slog.Logger) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Producer{conn: conn, channel: channel, exchange: exchange, logger: logger}, nil
}

func (p *Producer) Publish(ctx context.Context, routingKey string, body any) error {
	jsonBody, err := json.Marshal(Envelope{Type: routingKey, OccurredAt: time.Now().UTC(), Data: body})
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishes
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         jsonBody,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.logger.Debug("published event", "exchange", p.exchange, "routing_key", routingKey)
	return nil
}

func (p *Producer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
