// Package events publishes storefront events to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	Exchange           = "storefront"
	RoutingOrderPlaced = "order.placed"
)

// OrderPlaced is emitted once an order exists in the backend.
type OrderPlaced struct {
	OrderID       int64     `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	TenantID      string    `json:"tenantId"`
	CustomerID    int64     `json:"customerId"`
	PaymentType   string    `json:"paymentType"`
	Total         string    `json:"total"`
	Items         int       `json:"items"`
	Lang          string    `json:"lang"`
	PlacedAt      time.Time `json:"placedAt"`
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, evt OrderPlaced) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

// AMQPPublisher publishes JSON events to a topic exchange.
type AMQPPublisher struct {
	conn   *amqp.Connection
	logger *log.Logger
}

// Dial connects to the broker and declares the exchange.
func Dial(url string, logger *log.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	err = ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, logger: logger}, nil
}

func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, evt OrderPlaced) error {
	msg, err := orderPlacedMessage(evt)
	if err != nil {
		return err
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(
		ctx,
		Exchange,           // exchange
		RoutingOrderPlaced, // routing key
		false,              // mandatory
		false,              // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingOrderPlaced, err)
	}
	p.logger.Printf("events: published %s order=%d", RoutingOrderPlaced, evt.OrderID)
	return nil
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

func orderPlacedMessage(evt OrderPlaced) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    evt.PlacedAt,
		Type:         RoutingOrderPlaced,
		Body:         body,
	}, nil
}
