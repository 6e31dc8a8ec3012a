package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultRemoteTimeout = 30 * time.Second

// RemoteProvider reads the catalog from an HTTP backend that serves
// GET <base>/products and GET <base>/categories as JSON arrays.
type RemoteProvider struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
}

func NewRemoteProvider(baseURL string, timeout time.Duration) *RemoteProvider {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &RemoteProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New(circuitbreaker.DefaultSettings("catalog-remote")),
	}
}

func (r *RemoteProvider) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RemoteProvider) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	products, err := r.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return findProduct(products, id)
}

func (r *RemoteProvider) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := r.get(ctx, "/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *RemoteProvider) get(ctx context.Context, path string, out any) error {
	return r.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to fetch %s: unexpected status %d", path, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return nil
	})
}
