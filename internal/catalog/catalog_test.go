package catalog

import (
	"fmt"
	"testing"

	"github.com/fjod/flore/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestFilter_DefaultSortsByName(t *testing.T) {
	got := Filter(SampleProducts(), Query{})

	assert.Equal(t, []string{"2", "6", "1", "5", "3", "4"}, ids(got))
}

func TestFilter_Search(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"by name, case insensitive", "TULIPAS", []string{"5"}},
		{"by description", "paraíso ao ambiente", []string{"6"}},
		{"by tag", "colorido", []string{"3", "5"}},
		{"no match", "cactus", []string{}},
		{"blank search matches all", "   ", []string{"2", "6", "1", "5", "3", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(SampleProducts(), Query{Search: tt.search})
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}
}

func TestFilter_Category(t *testing.T) {
	got := Filter(SampleProducts(), Query{Category: "buques"})
	assert.ElementsMatch(t, []string{"1", "5"}, ids(got))

	all := Filter(SampleProducts(), Query{Category: CategoryAll})
	assert.Len(t, all, 6)

	none := Filter(SampleProducts(), Query{Category: "vasos"})
	assert.Empty(t, none)
}

func TestFilter_Sort(t *testing.T) {
	assert.Equal(t, []string{"2", "5", "1", "4", "6", "3"}, ids(Filter(SampleProducts(), Query{Sort: SortPriceLow})))
	assert.Equal(t, []string{"3", "6", "4", "1", "5", "2"}, ids(Filter(SampleProducts(), Query{Sort: SortPriceHigh})))
	assert.Equal(t, []string{"3", "6", "1", "4", "5", "2"}, ids(Filter(SampleProducts(), Query{Sort: SortViews})))
}

func TestFilter_Pagination(t *testing.T) {
	products := make([]domain.Product, 30)
	for i := range products {
		products[i] = domain.Product{
			ID:    fmt.Sprintf("%02d", i),
			Name:  fmt.Sprintf("Flor %02d", i),
			Price: decimal.NewFromInt(int64(i)),
		}
	}

	assert.Len(t, Filter(products, Query{}), DefaultPerPage)
	assert.Len(t, Filter(products, Query{Page: 2}), 24)
	assert.Len(t, Filter(products, Query{Page: 3}), 30)
	assert.Len(t, Filter(products, Query{Page: 1, PerPage: 5}), 5)
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	products := SampleProducts()
	Filter(products, Query{Sort: SortPriceHigh})

	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(products))
}
