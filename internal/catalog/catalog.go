package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/fjod/flore/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Provider supplies product snapshots. The cart only reads what a provider
// returns at add time and never re-fetches.
type Provider interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortViews     = "views"

	CategoryAll = "all"

	DefaultPerPage = 12
)

type Query struct {
	Search   string
	Category string
	Sort     string
	// Page is 1-based; the first Page*PerPage matches are returned.
	Page    int
	PerPage int
}

// Filter applies search, category, sort and "load more" pagination to products.
// The input slice is not modified.
func Filter(products []domain.Product, q Query) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if search != "" && !matches(p, search) {
			continue
		}
		if q.Category != "" && q.Category != CategoryAll && p.Category != q.Category {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, less(out, q.Sort))

	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if limit := page * perPage; limit < len(out) {
		out = out[:limit]
	}
	return out
}

func matches(p domain.Product, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Description), search) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func less(ps []domain.Product, by string) func(i, j int) bool {
	switch by {
	case SortPriceLow:
		return func(i, j int) bool { return ps[i].Price.LessThan(ps[j].Price) }
	case SortPriceHigh:
		return func(i, j int) bool { return ps[i].Price.GreaterThan(ps[j].Price) }
	case SortViews:
		return func(i, j int) bool { return ps[i].Views > ps[j].Views }
	default:
		return func(i, j int) bool {
			return strings.ToLower(ps[i].Name) < strings.ToLower(ps[j].Name)
		}
	}
}

func findProduct(products []domain.Product, id string) (*domain.Product, error) {
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}
