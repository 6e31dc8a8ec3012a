package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/flore/internal/catalog"
	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog catalog.Provider
	timeout time.Duration
}

func NewProductHandler(provider catalog.Provider, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: provider, timeout: timeout}
}

type ProductListResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	HasMore  bool             `json:"hasMore"`
}

// ListProducts supports ?q=, ?category=, ?sort= and ?page= ("load more").
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	params := r.URL.Query()
	page := 1
	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
			return
		}
		page = n
	}

	q := catalog.Query{
		Search:   params.Get("q"),
		Category: params.Get("category"),
		Sort:     params.Get("sort"),
		Page:     1,
		PerPage:  max(len(products), 1),
	}
	matching := catalog.Filter(products, q)

	q.Page, q.PerPage = page, catalog.DefaultPerPage
	shown := catalog.Filter(matching, q)

	respondJSON(w, http.StatusOK, ProductListResponse{
		Products: shown,
		Total:    len(matching),
		Page:     page,
		HasMore:  len(shown) < len(matching),
	})
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if vc, ok := h.catalog.(catalog.ViewCounter); ok {
		if err := vc.IncrementViews(ctx, id); err != nil {
			logger.Warn(ctx).Err(err).Str("product_id", id).Msg("Failed to count product view")
		}
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := catalog.Categories(ctx, h.catalog)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}
