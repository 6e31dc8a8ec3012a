package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/fjod/flore/internal/catalog"
	"github.com/fjod/flore/internal/checkout"
	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/metrics"
	"github.com/fjod/flore/internal/session"
	"github.com/fjod/flore/internal/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	orders []domain.OrderPlaced
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, o domain.OrderPlaced) error {
	if m.err != nil {
		return m.err
	}
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// brokenStorage loads nothing and refuses every write
type brokenStorage struct{}

func (brokenStorage) Load(context.Context, string) ([]byte, error) { return nil, storage.ErrNotFound }
func (brokenStorage) Save(context.Context, string, []byte) error   { return errors.New("disk full") }

type testServer struct {
	handler   http.Handler
	publisher *mockPublisher
	sessionID string
}

func setupServer(t *testing.T, s storage.Storage) *testServer {
	sessions := session.NewManager(s)
	t.Cleanup(func() { sessions.Close() })

	pub := &mockPublisher{}
	router := NewRouter(RouterConfig{
		Sessions:           sessions,
		Catalog:            catalog.NewStatic(catalog.SampleProducts()),
		Checkout:           checkout.NewService(pub, ""),
		Metrics:            metrics.New(prometheus.NewRegistry()),
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	})
	return &testServer{handler: router, publisher: pub, sessionID: uuid.NewString()}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(SessionHeader, ts.sessionID)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	rec := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCart_AddUpdateRemoveClear(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "1", "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cart := decode[CartResponse](t, rec)
	assert.Equal(t, 2, cart.LineCount)
	assert.Equal(t, "R$ 179.80", cart.TotalFormatted)
	assert.Equal(t, domain.CartStatePopulated, cart.State)
	assert.Equal(t, ts.sessionID, rec.Header().Get(SessionHeader))

	// quantity defaults to one
	rec = ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, decode[CartResponse](t, rec).LineCount)

	rec = ts.do(t, http.MethodPut, "/api/v1/cart/items/1", map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decode[CartResponse](t, rec)
	assert.Equal(t, 6, cart.LineCount)
	assert.Equal(t, "R$ 514.50", cart.TotalFormatted)

	rec = ts.do(t, http.MethodDelete, "/api/v1/cart/items/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[CartResponse](t, rec).Lines, 1)

	rec = ts.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decode[CartResponse](t, rec)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, domain.CartStateEmpty, cart.State)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[CartResponse](t, rec).LineCount)
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())
	ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "1"})

	rec := ts.do(t, http.MethodPut, "/api/v1/cart/items/1", map[string]any{"quantity": 0})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[CartResponse](t, rec).Lines)
}

func TestCart_AddItemValidation(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	tests := []struct {
		name string
		body any
		code int
		err  string
	}{
		{"missing product", map[string]any{"quantity": 1}, http.StatusBadRequest, "invalid_product_id"},
		{"zero quantity", map[string]any{"product_id": "1", "quantity": 0}, http.StatusBadRequest, "invalid_quantity"},
		{"too many", map[string]any{"product_id": "1", "quantity": 100}, http.StatusBadRequest, "invalid_quantity"},
		{"unknown product", map[string]any{"product_id": "999"}, http.StatusNotFound, "not_found"},
		{"bad json", "not an object", http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.err, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestSession_NewIDIssuedWhenMissing(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionHeader, "not-a-uuid")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(SessionHeader))
	assert.NoError(t, err)
}

func TestSession_CartsAreIsolated(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())
	ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "1"})

	other := *ts
	other.sessionID = uuid.NewString()
	rec := other.do(t, http.MethodGet, "/api/v1/cart", nil)

	assert.Empty(t, decode[CartResponse](t, rec).Lines)
}

func TestCart_PersistenceWarning(t *testing.T) {
	ts := setupServer(t, brokenStorage{})

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(PersistenceWarningHeader))
	assert.Equal(t, 1, decode[CartResponse](t, rec).LineCount)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Empty(t, rec.Header().Get(PersistenceWarningHeader))
	assert.Equal(t, 1, decode[CartResponse](t, rec).LineCount)
}

func TestFavorites_Toggle(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	rec := ts.do(t, http.MethodPost, "/api/v1/favorites/4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[ToggleFavoriteResponse](t, rec).Favorite)

	ts.do(t, http.MethodPost, "/api/v1/favorites/2", nil)
	ts.do(t, http.MethodPost, "/api/v1/favorites/unknown", nil)

	rec = ts.do(t, http.MethodGet, "/api/v1/favorites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	favs := decode[FavoritesResponse](t, rec)
	assert.Equal(t, []string{"4", "2", "unknown"}, favs.IDs)
	require.Len(t, favs.Products, 2)
	// catalog order
	assert.Equal(t, "2", favs.Products[0].ID)
	assert.Equal(t, "4", favs.Products[1].ID)

	rec = ts.do(t, http.MethodPost, "/api/v1/favorites/4", nil)
	assert.False(t, decode[ToggleFavoriteResponse](t, rec).Favorite)
}

func TestProducts_List(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	rec := ts.do(t, http.MethodGet, "/api/v1/products?sort=price-low&category=arranjos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ProductListResponse](t, rec)
	require.Len(t, list.Products, 2)
	assert.Equal(t, "2", list.Products[0].ID)
	assert.Equal(t, "6", list.Products[1].ID)
	assert.Equal(t, 2, list.Total)
	assert.False(t, list.HasMore)

	rec = ts.do(t, http.MethodGet, "/api/v1/products?q="+url.QueryEscape("orquídea"), nil)
	list = decode[ProductListResponse](t, rec)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "4", list.Products[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/products?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProducts_GetAndCategories(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	rec := ts.do(t, http.MethodGet, "/api/v1/products/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cesta de Flores Mistas", decode[domain.Product](t, rec).Name)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Category](t, rec), 4)
}

func TestCheckout(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())
	ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "1", "quantity": 2})
	ts.do(t, http.MethodPost, "/api/v1/favorites/1", nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{
		"customer_name":  "Ana",
		"customer_phone": "11999999999",
		"notes":          "entregar à tarde",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	receipt := decode[checkout.Receipt](t, rec)
	assert.NotEmpty(t, receipt.OrderID)
	assert.Equal(t, 2, receipt.ItemCount)
	assert.Contains(t, receipt.Message, "*Observações:* entregar à tarde")
	assert.Contains(t, receipt.WhatsAppURL, "https://wa.me/5564999999999?text=")

	require.Len(t, ts.publisher.orders, 1)
	assert.Equal(t, ts.sessionID, ts.publisher.orders[0].SessionID)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Empty(t, decode[CartResponse](t, rec).Lines)

	rec = ts.do(t, http.MethodGet, "/api/v1/favorites", nil)
	assert.Equal(t, []string{"1"}, decode[FavoritesResponse](t, rec).IDs)
}

func TestCheckout_Errors(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"customer_name": "Ana", "customer_phone": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Code)

	ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "1"})

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"customer_name": "Ana"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_checkout_details", decode[ErrorResponse](t, rec).Code)

	ts.publisher.err = errors.New("broker down")
	rec = ts.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{"customer_name": "Ana", "customer_phone": "1"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "handoff_failed", decode[ErrorResponse](t, rec).Code)

	// cart untouched after a failed hand-off
	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Len(t, decode[CartResponse](t, rec).Lines, 1)
}

func TestContact(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	rec := ts.do(t, http.MethodGet, "/api/v1/contact", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := url.Parse(decode[ContactResponse](t, rec).URL)
	require.NoError(t, err)
	assert.Equal(t, checkout.ContactGreeting, u.Query().Get("text"))
}

func TestProductContact(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())

	rec := ts.do(t, http.MethodGet, "/api/v1/products/1/contact", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := url.Parse(decode[ContactResponse](t, rec).URL)
	require.NoError(t, err)
	assert.Equal(t, "Interesse no produto: Buquê de Rosas Vermelhas", u.Query().Get("text"))

	rec = ts.do(t, http.MethodGet, "/api/v1/products/missing/contact", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupServer(t, storage.NewMemory())
	ts.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "1"})

	rec := ts.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `flore_cart_mutations_total{operation="add"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/cart/items"`)
}

var _ Sessions = (*session.Manager)(nil)
