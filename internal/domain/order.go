package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSummary is derived from the cart at checkout time and never persisted by the cart.
type OrderSummary struct {
	Lines     []CartLine      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

func (s OrderSummary) IsEmpty() bool {
	return len(s.Lines) == 0
}

// CheckoutDetails are the customer fields collected by the checkout form.
// CustomerName and CustomerPhone are required.
type CheckoutDetails struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	DeliveryTime    string `json:"delivery_time,omitempty"`
	PaymentMethod   string `json:"payment_method,omitempty"`
	Notes           string `json:"notes,omitempty"`
	// ContactNumber is the shop's WhatsApp number the message is addressed to.
	ContactNumber string `json:"-"`
}

type CheckoutMessage struct {
	Text string `json:"text"`
	// Link is empty when no contact number was supplied.
	Link string `json:"link,omitempty"`
}

// OrderPlaced is the event handed off to the order channel when a checkout completes.
type OrderPlaced struct {
	OrderID     string          `json:"order_id"`
	SessionID   string          `json:"session_id"`
	Customer    CheckoutDetails `json:"customer"`
	Items       []CartLine      `json:"items"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	Message     string          `json:"message"`
	WhatsAppURL string          `json:"whatsapp_url"`
	PlacedAt    time.Time       `json:"placed_at"`
}
