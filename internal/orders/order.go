// Package orders records placed storefront orders.
package orders

import (
	"time"

	"github.com/fjod/flore/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusReceived  Status = "RECEIVED"
	StatusConfirmed Status = "CONFIRMED"
	StatusDelivered Status = "DELIVERED"
)

type Order struct {
	ID          uuid.UUID
	SessionID   string
	Customer    domain.CheckoutDetails
	Total       decimal.Decimal
	Currency    string
	Status      Status
	Items       []domain.CartLine
	Message     string
	WhatsAppURL string
	PlacedAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
