package orders

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/flore/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *PostgresRepository {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewPostgresRepository(creds)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.RunMigrations(creds))
	return repo
}

func newTestOrder(sessionID string, placedAt time.Time) *Order {
	return &Order{
		ID:        uuid.New(),
		SessionID: sessionID,
		Customer: domain.CheckoutDetails{
			CustomerName:  "Ana",
			CustomerPhone: "11999999999",
			Notes:         "sem laço",
		},
		Total:    decimal.RequireFromString("179.80"),
		Currency: "BRL",
		Status:   StatusReceived,
		Items: []domain.CartLine{
			{ProductID: "1", Name: "Rosas", UnitPrice: decimal.RequireFromString("89.90"), Quantity: 2},
		},
		Message:     "*Novo pedido - Florê*",
		WhatsAppURL: "https://wa.me/5564999999999?text=x",
		PlacedAt:    placedAt,
	}
}

func TestCreateOrder_Success(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	order := newTestOrder("session-1", time.Now().UTC().Truncate(time.Millisecond))

	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.SessionID, fetched.SessionID)
	assert.Equal(t, order.Customer, fetched.Customer)
	assert.True(t, order.Total.Equal(fetched.Total))
	assert.Equal(t, order.Currency, fetched.Currency)
	assert.Equal(t, order.Status, fetched.Status)
	assert.Equal(t, order.Message, fetched.Message)
	assert.True(t, order.PlacedAt.Equal(fetched.PlacedAt))
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "1", fetched.Items[0].ProductID)
	assert.Equal(t, 2, fetched.Items[0].Quantity)
}

func TestCreateOrder_Duplicate(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	order := newTestOrder("session-1", time.Now().UTC())

	require.NoError(t, repo.CreateOrder(ctx, order))
	assert.ErrorIs(t, repo.CreateOrder(ctx, order), ErrDuplicateOrder)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersBySession(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	older := newTestOrder("session-1", now.Add(-time.Hour))
	newer := newTestOrder("session-1", now)
	other := newTestOrder("session-2", now)
	for _, o := range []*Order{older, newer, other} {
		require.NoError(t, repo.CreateOrder(ctx, o))
	}

	list, err := repo.ListOrdersBySession(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	empty, err := repo.ListOrdersBySession(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
