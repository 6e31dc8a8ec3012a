package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/storage"
	"github.com/fjod/flore/pkg/logger"
)

func (s *CartStore) rehydrate(ctx context.Context) error {
	cartData, err := s.storage.Load(ctx, s.keys.Cart)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load %s: %w", s.keys.Cart, err)
	}
	if err == nil {
		s.lines = decodeLines(ctx, s.keys.Cart, cartData)
	}

	favData, err := s.storage.Load(ctx, s.keys.Favorites)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load %s: %w", s.keys.Favorites, err)
	}
	if err == nil {
		s.favorites = decodeFavorites(ctx, s.keys.Favorites, favData)
	}

	return nil
}

// decodeLines restores the cart invariants on whatever was stored: lines without
// an id or with a quantity below one are dropped and repeated ids are merged.
func decodeLines(ctx context.Context, key string, data []byte) []domain.CartLine {
	var stored []domain.CartLine
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Warn(ctx).Err(err).Str("key", key).Msg("discarding unreadable cart state")
		return nil
	}

	lines := make([]domain.CartLine, 0, len(stored))
	index := make(map[string]int, len(stored))
	for _, l := range stored {
		if l.ProductID == "" || l.Quantity < 1 || l.UnitPrice.IsNegative() {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			lines[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(lines)
		lines = append(lines, l)
	}
	return lines
}

func decodeFavorites(ctx context.Context, key string, data []byte) []string {
	var stored []string
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Warn(ctx).Err(err).Str("key", key).Msg("discarding unreadable favorites state")
		return nil
	}

	seen := make(map[string]struct{}, len(stored))
	favorites := make([]string, 0, len(stored))
	for _, id := range stored {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		favorites = append(favorites, id)
	}
	return favorites
}

func (s *CartStore) saveCart(ctx context.Context) error {
	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return s.save(ctx, s.keys.Cart, lines)
}

func (s *CartStore) saveFavorites(ctx context.Context) error {
	favorites := s.favorites
	if favorites == nil {
		favorites = []string{}
	}
	return s.save(ctx, s.keys.Favorites, favorites)
}

func (s *CartStore) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistence, key, err)
	}

	if err := s.storage.Save(ctx, key, data); err != nil {
		logger.Warn(ctx).Err(err).Str("key", key).Msg("cart state write failed, keeping in-memory state")
		return fmt.Errorf("%w: save %s: %w", ErrPersistence, key, err)
	}
	return nil
}
