package domain

import "github.com/shopspring/decimal"

// CartLine is one product entry in the cart. Name, price and image are a
// snapshot taken when the product was first added.
type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartState string

const (
	CartStateEmpty     CartState = "EMPTY"
	CartStatePopulated CartState = "POPULATED"
)

func (s CartState) String() string {
	return string(s)
}
