package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/flore/internal/domain"
	"github.com/fjod/flore/internal/storage"
	"github.com/fjod/flore/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T, s storage.Storage, opts ...Option) *Manager {
	m := NewManager(s, opts...)
	t.Cleanup(func() { m.Close() })
	return m
}

var rose = domain.Product{ID: "1", Name: "Rosas", Price: decimal.RequireFromString("89.90")}

func TestManager_GetReturnsSameStore(t *testing.T) {
	m := setupManager(t, storage.NewMemory())
	ctx := context.Background()

	a, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	b, err := m.Get(ctx, "s1")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	mem := storage.NewMemory()
	m := setupManager(t, mem)
	ctx := context.Background()

	s1, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	s2, err := m.Get(ctx, "s2")
	require.NoError(t, err)

	require.NoError(t, s1.AddItem(ctx, rose, 1))

	assert.Len(t, s1.Lines(), 1)
	assert.Empty(t, s2.Lines())

	_, err = mem.Load(ctx, store.SessionKeys("s1").Cart)
	assert.NoError(t, err)
	_, err = mem.Load(ctx, store.SessionKeys("s2").Cart)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestManager_EvictedSessionIsRehydrated(t *testing.T) {
	mem := storage.NewMemory()
	var counts []int
	var mu sync.Mutex
	m := setupManager(t, mem,
		WithIdleTTL(time.Minute),
		WithCleanupInterval(time.Hour),
		WithCountObserver(func(n int) {
			mu.Lock()
			counts = append(counts, n)
			mu.Unlock()
		}),
	)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	cart, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(ctx, rose, 3))

	now = now.Add(2 * time.Minute)
	m.evictIdle()
	assert.Equal(t, 0, m.Len())

	again, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, cart, again)
	require.Len(t, again.Lines(), 1)
	assert.Equal(t, 3, again.Lines()[0].Quantity)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 0, 1}, counts)
}

func TestManager_RecentSessionsSurviveCleanup(t *testing.T) {
	m := setupManager(t, storage.NewMemory(), WithIdleTTL(time.Minute), WithCleanupInterval(time.Hour))
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := m.Get(ctx, "old")
	require.NoError(t, err)
	now = now.Add(50 * time.Second)
	_, err = m.Get(ctx, "fresh")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	m.evictIdle()

	assert.Equal(t, 1, m.Len())
}

func TestManager_ShopNameOption(t *testing.T) {
	m := setupManager(t, storage.NewMemory(), WithStoreOptions(store.WithShopName("Loja")))
	ctx := context.Background()

	cart, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, cart.AddItem(ctx, rose, 1))

	msg, err := cart.BuildCheckoutMessage(domain.CheckoutDetails{CustomerName: "Ana", CustomerPhone: "1"})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "*Novo pedido - Loja*")
}

func TestManager_ConcurrentGet(t *testing.T) {
	m := setupManager(t, storage.NewMemory())
	ctx := context.Background()

	const workers = 20
	results := make([]*store.CartStore, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cs, err := m.Get(ctx, "shared")
			assert.NoError(t, err)
			results[i] = cs
		}(i)
	}
	wg.Wait()

	for _, cs := range results {
		assert.Same(t, results[0], cs)
	}
	assert.Equal(t, 1, m.Len())
}

func TestManager_CleanupLoopEvicts(t *testing.T) {
	m := setupManager(t, storage.NewMemory(),
		WithIdleTTL(time.Millisecond),
		WithCleanupInterval(10*time.Millisecond),
	)

	_, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 10*time.Millisecond)
}
