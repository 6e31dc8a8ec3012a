package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/flore/internal/catalog"
	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/metrics"
	"github.com/fjod/flore/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxQuantity = 99

// Sessions resolves the cart of a shopper session.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (*store.CartStore, error)
}

type CartHandler struct {
	sessions Sessions
	catalog  catalog.Provider
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func NewCartHandler(sessions Sessions, provider catalog.Provider, m *metrics.Metrics, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  provider,
		metrics:  m,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Lines          []domain.CartLine `json:"lines"`
	Total          decimal.Decimal   `json:"total"`
	TotalFormatted string            `json:"totalFormatted"`
	LineCount      int               `json:"lineCount"`
	State          domain.CartState  `json:"state"`
}

func newCartResponse(s store.Snapshot) CartResponse {
	return CartResponse{
		Lines:          s.Lines,
		Total:          s.Total,
		TotalFormatted: store.FormatPrice(s.Total),
		LineCount:      s.LineCount,
		State:          s.State,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart.Snapshot()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 || quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	err = cart.AddItem(ctx, *product, quantity)
	if !h.mutated(w, r, "add", err) {
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(cart.Snapshot()))
}

// UpdateQuantity sets the quantity of a line; zero removes it.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	err := cart.SetQuantity(ctx, productID, req.Quantity)
	if !h.mutated(w, r, "set_quantity", err) {
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart.Snapshot()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	err := cart.RemoveItem(ctx, chi.URLParam(r, "product_id"))
	if !h.mutated(w, r, "remove", err) {
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart.Snapshot()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	err := cart.Clear(ctx)
	if !h.mutated(w, r, "clear", err) {
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart.Snapshot()))
}

func (h *CartHandler) cart(w http.ResponseWriter, r *http.Request) (*store.CartStore, bool) {
	return resolveCart(w, r, h.sessions)
}

func (h *CartHandler) mutated(w http.ResponseWriter, r *http.Request, op string, err error) bool {
	return recordMutation(w, r, h.metrics, op, err)
}

func resolveCart(w http.ResponseWriter, r *http.Request, sessions Sessions) (*store.CartStore, bool) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "missing session id")
		return nil, false
	}

	cart, err := sessions.Get(r.Context(), sessionID)
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	return cart, true
}

// recordMutation counts the mutation and reports whether the handler should
// go on rendering. A persistence failure is downgraded to a warning header.
func recordMutation(w http.ResponseWriter, r *http.Request, m *metrics.Metrics, op string, err error) bool {
	if err != nil && !errors.Is(err, store.ErrPersistence) {
		handleError(w, r, err)
		return false
	}

	m.CartMutation(op)
	if err != nil {
		m.PersistenceFailure()
		w.Header().Set(PersistenceWarningHeader, "true")
	}
	return true
}
