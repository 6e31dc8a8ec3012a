package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Featured    bool            `json:"featured"`
	Views       int             `json:"views"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"createdAt,omitzero"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
