// Package checkout turns a cart into a placed order and hands it off.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/store"
	"github.com/fjod/flore/internal/whatsapp"
	"github.com/fjod/flore/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Currency = "BRL"

	ContactGreeting = "Olá! Gostaria de saber mais sobre os arranjos da Florê. 🌸"

	productInterestPrefix = "Interesse no produto: "
)

var ErrHandOffFailed = errors.New("order could not be handed off")

type Receipt struct {
	OrderID     string          `json:"order_id"`
	WhatsAppURL string          `json:"whatsapp_url"`
	Message     string          `json:"message"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
	// PersistenceWarning is set when the cart was cleared in memory but the
	// cleared state could not be stored.
	PersistenceWarning bool `json:"-"`
}

type Service struct {
	publisher     Publisher
	contactNumber string
	now           func() time.Time
}

func NewService(publisher Publisher, contactNumber string) *Service {
	if contactNumber == "" {
		contactNumber = whatsapp.DefaultNumber
	}
	return &Service{
		publisher:     publisher,
		contactNumber: contactNumber,
		now:           time.Now,
	}
}

// Checkout builds the order from one snapshot of cs, publishes it and then
// removes the ordered lines from the cart. Items added while the order was
// being published stay in the cart. When publishing fails the cart is left
// as it was.
func (s *Service) Checkout(ctx context.Context, cs *store.CartStore, sessionID string, details domain.CheckoutDetails) (*Receipt, error) {
	if details.ContactNumber == "" {
		details.ContactNumber = s.contactNumber
	}
	summary, msg, err := cs.PrepareCheckout(details)
	if err != nil {
		return nil, err
	}

	order := domain.OrderPlaced{
		OrderID:     uuid.NewString(),
		SessionID:   sessionID,
		Customer:    details,
		Items:       summary.Lines,
		Total:       summary.Total,
		Currency:    Currency,
		Message:     msg.Text,
		WhatsAppURL: msg.Link,
		PlacedAt:    s.now().UTC(),
	}

	if err := s.publisher.Publish(ctx, order); err != nil {
		logger.Error(ctx).Err(err).Str("order_id", order.OrderID).Msg("Failed to publish order")
		return nil, fmt.Errorf("%w: %w", ErrHandOffFailed, err)
	}

	receipt := &Receipt{
		OrderID:     order.OrderID,
		WhatsAppURL: order.WhatsAppURL,
		Message:     order.Message,
		Total:       order.Total,
		ItemCount:   summary.ItemCount,
	}

	if err := cs.RemoveOrdered(ctx, summary.Lines); err != nil {
		if !errors.Is(err, store.ErrPersistence) {
			return nil, err
		}
		receipt.PersistenceWarning = true
	}

	logger.Info(ctx).
		Str("order_id", order.OrderID).
		Str("session_id", sessionID).
		Int("items", summary.ItemCount).
		Msg("Checkout completed")

	return receipt, nil
}

// ContactLink is the "talk to us" deep-link, independent of any cart.
func (s *Service) ContactLink() string {
	return whatsapp.Link(s.contactNumber, ContactGreeting)
}

// ProductLink is the "order this one" deep-link shown on a product page.
func (s *Service) ProductLink(p domain.Product) string {
	return whatsapp.Link(s.contactNumber, productInterestPrefix+p.Name)
}
