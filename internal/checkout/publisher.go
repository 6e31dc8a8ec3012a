package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/pkg/circuitbreaker"
	"github.com/fjod/flore/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic   = "orders-placed"
	EventTypeOrder = "order.placed"
)

// Publisher hands a placed order to whoever fulfils it.
type Publisher interface {
	Publish(ctx context.Context, order domain.OrderPlaced) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes OrderPlaced events keyed by order id.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *circuitbreaker.Breaker
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
	return newKafkaPublisher(w)
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		breaker: circuitbreaker.New(circuitbreaker.DefaultSettings("orders-publisher")),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, order domain.OrderPlaced) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order %s: %w", order.OrderID, err)
	}

	msg := kafka.Message{
		Key:   []byte(order.OrderID), // order_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrder)},
		},
	}

	return p.breaker.Call(func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs the order. It is used when no broker is configured;
// the shopper's deep-link is then the only hand-off.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, order domain.OrderPlaced) error {
	logger.Info(ctx).
		Str("order_id", order.OrderID).
		Str("session_id", order.SessionID).
		Str("total", order.Total.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("Order placed")
	return nil
}

func (LogPublisher) Close() error { return nil }
