package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/flore/internal/catalog"
	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/metrics"
	"github.com/go-chi/chi/v5"
)

type FavoritesHandler struct {
	sessions Sessions
	catalog  catalog.Provider
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func NewFavoritesHandler(sessions Sessions, provider catalog.Provider, m *metrics.Metrics, timeout time.Duration) *FavoritesHandler {
	return &FavoritesHandler{
		sessions: sessions,
		catalog:  provider,
		metrics:  m,
		timeout:  timeout,
	}
}

type FavoritesResponse struct {
	IDs      []string         `json:"ids"`
	Products []domain.Product `json:"products"`
}

type ToggleFavoriteResponse struct {
	ProductID string `json:"product_id"`
	Favorite  bool   `json:"favorite"`
}

// ListFavorites returns the favorite ids and the catalog products they match.
func (h *FavoritesHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, ok := resolveCart(w, r, h.sessions)
	if !ok {
		return
	}

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FavoritesResponse{
		IDs:      cart.Favorites(),
		Products: cart.FavoriteProducts(products),
	})
}

func (h *FavoritesHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, ok := resolveCart(w, r, h.sessions)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "product_id")
	favorite, err := cart.ToggleFavorite(ctx, productID)
	if !recordMutation(w, r, h.metrics, "toggle_favorite", err) {
		return
	}

	respondJSON(w, http.StatusOK, ToggleFavoriteResponse{
		ProductID: productID,
		Favorite:  favorite,
	})
}
