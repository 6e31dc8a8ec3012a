package catalog

import (
	"context"
	"errors"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/pkg/logger"
)

// CategoryLister is implemented by providers that also know the category list.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Fallback serves from primary and switches to secondary when primary fails.
// A product missing from primary is not retried on secondary.
type Fallback struct {
	primary   Provider
	secondary Provider
}

func NewFallback(primary, secondary Provider) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := f.primary.ListProducts(ctx)
	if err == nil {
		return products, nil
	}
	logger.Warn(ctx).Err(err).Msg("Catalog backend unavailable, serving fallback products")
	return f.secondary.ListProducts(ctx)
}

func (f *Fallback) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := f.primary.GetProduct(ctx, id)
	if err == nil || errors.Is(err, ErrProductNotFound) {
		return p, err
	}
	logger.Warn(ctx).Err(err).Str("product_id", id).Msg("Catalog backend unavailable, serving fallback product")
	return f.secondary.GetProduct(ctx, id)
}

func (f *Fallback) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return Categories(ctx, f.primary, f.secondary)
}

// Categories asks each provider in turn for its category list and falls back
// to the built-in categories when none can answer.
func Categories(ctx context.Context, providers ...Provider) ([]domain.Category, error) {
	for _, p := range providers {
		cl, ok := p.(CategoryLister)
		if !ok {
			continue
		}
		categories, err := cl.ListCategories(ctx)
		if err == nil {
			return categories, nil
		}
		logger.Warn(ctx).Err(err).Msg("Failed to list categories")
	}
	return SampleCategories(), nil
}

// ViewCounter is implemented by catalogs that track product views.
type ViewCounter interface {
	IncrementViews(ctx context.Context, id string) error
}

// IncrementViews forwards to the first provider that counts views.
func (f *Fallback) IncrementViews(ctx context.Context, id string) error {
	for _, p := range []Provider{f.primary, f.secondary} {
		if vc, ok := p.(ViewCounter); ok {
			return vc.IncrementViews(ctx, id)
		}
	}
	return nil
}
