package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) *Repository {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.RunMigrations("./migrations"))
	return repo
}

func TestRepository_ListProducts_SeededByMigrations(t *testing.T) {
	repo := setupTestRepo(t)

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 6)

	first := products[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Buquê de Rosas Vermelhas", first.Name)
	assert.Equal(t, "89.9", first.Price.String())
	assert.Equal(t, "buques", first.Category)
	assert.True(t, first.Featured)
	assert.Equal(t, 156, first.Views)
	assert.Equal(t, []string{"romântico", "clássico", "vermelho"}, first.Tags)
}

func TestRepository_GetProduct(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	p, err := repo.GetProduct(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, "Orquídea Phalaenopsis", p.Name)
	assert.False(t, p.Featured)

	_, err = repo.GetProduct(ctx, "999")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRepository_ListCategories(t *testing.T) {
	repo := setupTestRepo(t)

	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SampleCategories(), categories)
}

func TestRepository_IncrementViews(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementViews(ctx, "2"))

	p, err := repo.GetProduct(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 90, p.Views)

	assert.ErrorIs(t, repo.IncrementViews(ctx, "999"), ErrProductNotFound)
}

func TestRepository_MigrationsAreIdempotent(t *testing.T) {
	repo := setupTestRepo(t)

	assert.NoError(t, repo.RunMigrations("./migrations"))
}
