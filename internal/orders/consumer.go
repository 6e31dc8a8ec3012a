package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/pkg/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic   = "orders-placed"
	DefaultGroupID = "flore-orders"

	DefaultRetryBackoff    = 500 * time.Millisecond
	DefaultMaxRetryBackoff = 30 * time.Second
)

// ErrMalformedMessage marks a message that can never become an order.
var ErrMalformedMessage = errors.New("malformed order message")

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads OrderPlaced events and records each order once. An offset
// is committed only after its order is stored, found to be a duplicate, or
// found to be malformed; storage failures are retried on the same message.
type Consumer struct {
	repo       Repository
	reader     messageReader
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(repo Repository, topic, groupID string, brokers ...string) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	if groupID == "" {
		groupID = DefaultGroupID
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		repo:       repo,
		reader:     reader,
		backoff:    DefaultRetryBackoff,
		maxBackoff: DefaultMaxRetryBackoff,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		logger.Logger.Error().Err(err).Msg("Error closing kafka reader")
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Error(ctx).Err(err).Msg("Error fetching message")
		return
	}

	if err := c.handleWithRetry(ctx, m); err != nil {
		// shutting down; the uncommitted message is redelivered on restart
		return
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		logger.Error(ctx).Err(err).
			Int64("offset", m.Offset).
			Int("partition", m.Partition).
			Msg("Failed to commit message")
	}
}

// handleWithRetry returns nil once m may be committed, or ctx.Err() when
// the consumer stops first.
func (c *Consumer) handleWithRetry(ctx context.Context, m kafka.Message) error {
	wait := c.backoff
	if wait <= 0 {
		wait = DefaultRetryBackoff
	}
	maxWait := c.maxBackoff
	if maxWait < wait {
		maxWait = wait
	}

	for attempt := 1; ; attempt++ {
		err := c.handleMessage(ctx, m)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrMalformedMessage) {
			logger.Error(ctx).Err(err).
				Int64("offset", m.Offset).
				Int("partition", m.Partition).
				Msg("Skipping malformed order message")
			return nil
		}

		logger.Warn(ctx).Err(err).
			Int64("offset", m.Offset).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("Failed to handle order message, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, maxWait)
	}
}

// handleMessage stores the order carried by m. Redelivered orders are skipped.
func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) error {
	var event domain.OrderPlaced
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("%w: parse message: %w", ErrMalformedMessage, err)
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		return fmt.Errorf("%w: invalid order_id %q: %w", ErrMalformedMessage, event.OrderID, err)
	}

	currency := event.Currency
	if currency == "" {
		currency = "BRL"
	}

	order := &Order{
		ID:          orderID,
		SessionID:   event.SessionID,
		Customer:    event.Customer,
		Total:       event.Total,
		Currency:    currency,
		Status:      StatusReceived,
		Items:       event.Items,
		Message:     event.Message,
		WhatsAppURL: event.WhatsAppURL,
		PlacedAt:    event.PlacedAt,
	}

	if err := c.repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			logger.Info(ctx).Str("order_id", event.OrderID).Msg("Order already recorded, skipping")
			return nil
		}
		return fmt.Errorf("create order %s: %w", event.OrderID, err)
	}

	logger.Info(ctx).
		Str("order_id", order.ID.String()).
		Str("session_id", order.SessionID).
		Str("total", order.Total.StringFixed(2)).
		Msg("Order recorded")
	return nil
}
