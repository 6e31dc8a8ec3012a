package catalog

import (
	"context"

	"github.com/fjod/flore/internal/domain"
	"github.com/shopspring/decimal"
)

// Static serves a fixed product list.
type Static struct {
	products []domain.Product
}

func NewStatic(products []domain.Product) *Static {
	return &Static{products: products}
}

func (s *Static) ListProducts(context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), s.products...), nil
}

func (s *Static) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	return findProduct(s.products, id)
}

// SampleProducts is the catalog shown when no backend answers.
func SampleProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "1",
			Name:        "Buquê de Rosas Vermelhas",
			Description: "Elegante buquê com 12 rosas vermelhas frescas, perfeito para demonstrar amor e carinho.",
			Price:       decimal.RequireFromString("89.90"),
			Category:    "buques",
			ImageURL:    "https://images.unsplash.com/photo-1518895949257-7621c3c786d7?w=400&h=300&fit=crop",
			Featured:    true,
			Views:       156,
			Tags:        []string{"romântico", "clássico", "vermelho"},
		},
		{
			ID:          "2",
			Name:        "Arranjo de Girassóis",
			Description: "Arranjo vibrante com girassóis frescos que trazem alegria e energia positiva.",
			Price:       decimal.RequireFromString("65.00"),
			Category:    "arranjos",
			ImageURL:    "https://images.unsplash.com/photo-1471194402529-8e0f5a675de6?w=400&h=300&fit=crop",
			Views:       89,
			Tags:        []string{"alegre", "amarelo", "energia"},
		},
		{
			ID:          "3",
			Name:        "Cesta de Flores Mistas",
			Description: "Bela cesta com variedade de flores coloridas, ideal para presentear em ocasiões especiais.",
			Price:       decimal.RequireFromString("120.00"),
			Category:    "cestas",
			ImageURL:    "https://images.unsplash.com/photo-1563241527-3004b7be0ffd?w=400&h=300&fit=crop",
			Featured:    true,
			Views:       203,
			Tags:        []string{"misto", "colorido", "presente"},
		},
		{
			ID:          "4",
			Name:        "Orquídea Phalaenopsis",
			Description: "Elegante orquídea em vaso decorativo, perfeita para decoração de ambientes sofisticados.",
			Price:       decimal.RequireFromString("95.00"),
			Category:    "plantas",
			ImageURL:    "https://images.unsplash.com/photo-1452827073306-6e6e661baf57?w=400&h=300&fit=crop",
			Views:       134,
			Tags:        []string{"elegante", "sofisticado", "duradouro"},
		},
		{
			ID:          "5",
			Name:        "Buquê de Tulipas",
			Description: "Delicado buquê com tulipas coloridas, simbolizando renovação e primavera.",
			Price:       decimal.RequireFromString("75.50"),
			Category:    "buques",
			ImageURL:    "https://images.unsplash.com/photo-1490750967868-88aa4486c946?w=400&h=300&fit=crop",
			Views:       98,
			Tags:        []string{"primavera", "delicado", "colorido"},
		},
		{
			ID:          "6",
			Name:        "Arranjo Tropical",
			Description: "Exótico arranjo com flores tropicais que trazem um toque de paraíso ao ambiente.",
			Price:       decimal.RequireFromString("110.00"),
			Category:    "arranjos",
			ImageURL:    "https://images.unsplash.com/photo-1508610048659-a06b669e3321?w=400&h=300&fit=crop",
			Featured:    true,
			Views:       167,
			Tags:        []string{"tropical", "exótico", "paraíso"},
		},
	}
}

func SampleCategories() []domain.Category {
	return []domain.Category{
		{ID: "buques", Name: "Buquês", Description: "Buquês elegantes para todas as ocasiões"},
		{ID: "arranjos", Name: "Arranjos", Description: "Arranjos florais únicos e criativos"},
		{ID: "cestas", Name: "Cestas", Description: "Cestas decorativas com flores variadas"},
		{ID: "plantas", Name: "Plantas", Description: "Plantas ornamentais para decoração"},
	}
}

func (s *Static) ListCategories(context.Context) ([]domain.Category, error) {
	return SampleCategories(), nil
}
