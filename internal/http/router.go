package http

import (
	"net/http"
	"time"

	"github.com/fjod/flore/internal/catalog"
	"github.com/fjod/flore/internal/checkout"
	"github.com/fjod/flore/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Sessions           Sessions
	Catalog            catalog.Provider
	Checkout           *checkout.Service
	Metrics            *metrics.Metrics
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	cartHandler := NewCartHandler(cfg.Sessions, cfg.Catalog, cfg.Metrics, cfg.RequestTimeout)
	favoritesHandler := NewFavoritesHandler(cfg.Sessions, cfg.Catalog, cfg.Metrics, cfg.RequestTimeout)
	productHandler := NewProductHandler(cfg.Catalog, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(cfg.Sessions, cfg.Catalog, cfg.Checkout, cfg.Metrics, cfg.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware)
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{product_id}", productHandler.GetProduct)
		r.Get("/products/{product_id}/contact", checkoutHandler.ProductContact)
		r.Get("/categories", productHandler.ListCategories)
		r.Get("/contact", checkoutHandler.Contact)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", favoritesHandler.ListFavorites)
				r.Post("/{product_id}", favoritesHandler.ToggleFavorite)
			})

			r.Post("/checkout", checkoutHandler.Checkout)
		})
	})

	return r
}
