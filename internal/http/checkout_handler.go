package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/flore/internal/catalog"
	"github.com/fjod/flore/internal/checkout"
	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/metrics"
	"github.com/fjod/flore/internal/store"
	"github.com/go-chi/chi/v5"
)

type CheckoutHandler struct {
	sessions Sessions
	catalog  catalog.Provider
	service  *checkout.Service
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func NewCheckoutHandler(sessions Sessions, provider catalog.Provider, service *checkout.Service, m *metrics.Metrics, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		catalog:  provider,
		service:  service,
		metrics:  m,
		timeout:  timeout,
	}
}

type ContactResponse struct {
	URL string `json:"url"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var details domain.CheckoutDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, ok := resolveCart(w, r, h.sessions)
	if !ok {
		return
	}

	receipt, err := h.service.Checkout(ctx, cart, getSessionID(r.Context()), details)
	if err != nil {
		h.metrics.Checkout(checkoutResult(err))
		handleError(w, r, err)
		return
	}

	h.metrics.Checkout("success")
	if receipt.PersistenceWarning {
		h.metrics.PersistenceFailure()
		w.Header().Set(PersistenceWarningHeader, "true")
	}
	respondJSON(w, http.StatusCreated, receipt)
}

func (h *CheckoutHandler) Contact(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ContactResponse{URL: h.service.ContactLink()})
}

// ProductContact links straight to a chat about one product, without a cart.
func (h *CheckoutHandler) ProductContact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ContactResponse{URL: h.service.ProductLink(*product)})
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, store.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, store.ErrValidation):
		return "invalid"
	case errors.Is(err, checkout.ErrHandOffFailed):
		return "handoff_failed"
	default:
		return "error"
	}
}
