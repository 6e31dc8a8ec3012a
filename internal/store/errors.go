package store

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidProduct  = errors.New("product must have an id and a non-negative price")
	ErrEmptyCart       = errors.New("cart is empty, nothing to checkout")

	// ErrPersistence marks a failed storage write. The in-memory mutation is
	// kept, so callers should treat it as a warning.
	ErrPersistence = errors.New("cart state could not be persisted")

	ErrValidation           = errors.New("invalid checkout details")
	ErrMissingCustomerName  = fmt.Errorf("%w: customer name is required", ErrValidation)
	ErrMissingCustomerPhone = fmt.Errorf("%w: customer phone is required", ErrValidation)
)
