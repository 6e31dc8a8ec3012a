// Package store owns a shopper's cart and favorites. Every mutation is written
// through to durable storage before the call returns.
package store

import (
	"context"
	"sync"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/storage"
	"github.com/shopspring/decimal"
)

const DefaultShopName = "Florê"

// Keys names the two storage slots a store reads and writes.
type Keys struct {
	Cart      string
	Favorites string
}

func DefaultKeys() Keys {
	return Keys{Cart: "flore_cart", Favorites: "flore_favorites"}
}

// SessionKeys namespaces the default keys for one shopper session.
func SessionKeys(sessionID string) Keys {
	d := DefaultKeys()
	return Keys{
		Cart:      "session:" + sessionID + ":" + d.Cart,
		Favorites: "session:" + sessionID + ":" + d.Favorites,
	}
}

type Option func(*CartStore)

func WithKeys(k Keys) Option {
	return func(s *CartStore) { s.keys = k }
}

// WithShopName sets the name printed in the checkout message header.
func WithShopName(name string) Option {
	return func(s *CartStore) { s.shopName = name }
}

// Snapshot is a copy of the store state handed to renderers and observers.
type Snapshot struct {
	Lines     []domain.CartLine `json:"lines"`
	Favorites []string          `json:"favorites"`
	Total     decimal.Decimal   `json:"total"`
	LineCount int               `json:"lineCount"`
	State     domain.CartState  `json:"state"`
}

type CartStore struct {
	mu        sync.Mutex
	storage   storage.Storage
	keys      Keys
	shopName  string
	lines     []domain.CartLine
	favorites []string
	listeners []func(Snapshot)
}

// New builds a store and rehydrates it from s. A missing slot starts empty;
// a slot that cannot be read at all is an error.
func New(ctx context.Context, s storage.Storage, opts ...Option) (*CartStore, error) {
	cs := &CartStore{
		storage:  s,
		keys:     DefaultKeys(),
		shopName: DefaultShopName,
	}
	for _, opt := range opts {
		opt(cs)
	}

	if err := cs.rehydrate(ctx); err != nil {
		return nil, err
	}
	return cs, nil
}

// OnChange registers fn to be called with a fresh snapshot after every
// mutation, once the storage write has been attempted.
func (s *CartStore) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AddItem adds quantity units of p. An existing line for the same product is
// incremented and keeps its original snapshot.
func (s *CartStore) AddItem(ctx context.Context, p domain.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if p.ID == "" || p.Price.IsNegative() {
		return ErrInvalidProduct
	}

	return s.mutateCart(ctx, func() {
		if i := s.indexOf(p.ID); i >= 0 {
			s.lines[i].Quantity += quantity
			return
		}
		s.lines = append(s.lines, domain.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			ImageURL:  p.ImageURL,
			Quantity:  quantity,
		})
	})
}

// RemoveItem drops the line for productID. Unknown ids are a no-op.
func (s *CartStore) RemoveItem(ctx context.Context, productID string) error {
	return s.mutateCart(ctx, func() {
		s.removeLine(productID)
	})
}

// SetQuantity replaces the quantity of a line; zero or less removes it.
// Unknown ids are a no-op.
func (s *CartStore) SetQuantity(ctx context.Context, productID string, quantity int) error {
	return s.mutateCart(ctx, func() {
		if quantity <= 0 {
			s.removeLine(productID)
			return
		}
		if i := s.indexOf(productID); i >= 0 {
			s.lines[i].Quantity = quantity
		}
	})
}

// Clear empties the cart. Favorites are kept.
func (s *CartStore) Clear(ctx context.Context) error {
	return s.mutateCart(ctx, func() {
		s.lines = nil
	})
}

// RemoveOrdered takes the ordered quantities out of the cart. Lines added or
// topped up after the order was taken keep the difference.
func (s *CartStore) RemoveOrdered(ctx context.Context, ordered []domain.CartLine) error {
	return s.mutateCart(ctx, func() {
		for _, o := range ordered {
			i := s.indexOf(o.ProductID)
			if i < 0 {
				continue
			}
			if s.lines[i].Quantity <= o.Quantity {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
				continue
			}
			s.lines[i].Quantity -= o.Quantity
		}
	})
}

// ToggleFavorite flips membership of productID and reports whether it is now a favorite.
func (s *CartStore) ToggleFavorite(ctx context.Context, productID string) (bool, error) {
	if productID == "" {
		return false, ErrInvalidProduct
	}

	s.mu.Lock()
	now := true
	if i := s.favoriteIndex(productID); i >= 0 {
		s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
		now = false
	} else {
		s.favorites = append(s.favorites, productID)
	}
	err := s.saveFavorites(ctx)
	snap, listeners := s.snapshotLocked(), s.listeners
	s.mu.Unlock()

	notify(listeners, snap)
	return now, err
}

func (s *CartStore) IsFavorite(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favoriteIndex(productID) >= 0
}

// Total is the sum of unit price times quantity over all lines.
func (s *CartStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

// LineCount is the number of units in the cart, not the number of lines.
func (s *CartStore) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

func (s *CartStore) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.lines...)
}

func (s *CartStore) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.favorites...)
}

// FavoriteProducts filters catalog down to favorites, keeping catalog order.
// Favorites missing from the catalog are skipped.
func (s *CartStore) FavoriteProducts(catalog []domain.Product) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Product, 0, len(s.favorites))
	for _, p := range catalog {
		if s.favoriteIndex(p.ID) >= 0 {
			out = append(out, p)
		}
	}
	return out
}

func (s *CartStore) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *CartStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CartStore) mutateCart(ctx context.Context, fn func()) error {
	s.mu.Lock()
	fn()
	err := s.saveCart(ctx)
	snap, listeners := s.snapshotLocked(), s.listeners
	s.mu.Unlock()

	notify(listeners, snap)
	return err
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *CartStore) indexOf(productID string) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *CartStore) removeLine(productID string) {
	if i := s.indexOf(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

func (s *CartStore) favoriteIndex(productID string) int {
	for i, id := range s.favorites {
		if id == productID {
			return i
		}
	}
	return -1
}

func (s *CartStore) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *CartStore) countLocked() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *CartStore) stateLocked() domain.CartState {
	if len(s.lines) == 0 {
		return domain.CartStateEmpty
	}
	return domain.CartStatePopulated
}

func (s *CartStore) snapshotLocked() Snapshot {
	lines := append([]domain.CartLine{}, s.lines...)
	favorites := append([]string{}, s.favorites...)
	return Snapshot{
		Lines:     lines,
		Favorites: favorites,
		Total:     s.totalLocked(),
		LineCount: s.countLocked(),
		State:     s.stateLocked(),
	}
}
