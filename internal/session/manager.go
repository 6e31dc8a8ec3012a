// Package session keeps one CartStore per shopper session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/flore/internal/storage"
	"github.com/fjod/flore/internal/store"
	"github.com/fjod/flore/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultIdleTTL is how long an unused session stays in memory. Its state
	// remains in storage and is rehydrated on the next request.
	DefaultIdleTTL = 30 * time.Minute

	// DefaultCleanupInterval is how often idle sessions are evicted
	DefaultCleanupInterval = time.Minute
)

type entry struct {
	cart     *store.CartStore
	lastSeen time.Time
}

type Manager struct {
	storage         storage.Storage
	opts            []store.Option
	idleTTL         time.Duration
	cleanupInterval time.Duration
	onCount         func(int)
	now             func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	sfg      singleflight.Group

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

type Option func(*Manager)

func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) { m.idleTTL = d }
}

func WithCleanupInterval(d time.Duration) Option {
	return func(m *Manager) { m.cleanupInterval = d }
}

// WithStoreOptions passes opts to every CartStore the manager creates.
func WithStoreOptions(opts ...store.Option) Option {
	return func(m *Manager) { m.opts = append(m.opts, opts...) }
}

// WithCountObserver is called with the number of live sessions whenever it changes.
func WithCountObserver(fn func(int)) Option {
	return func(m *Manager) { m.onCount = fn }
}

func NewManager(s storage.Storage, opts ...Option) *Manager {
	m := &Manager{
		storage:         s,
		idleTTL:         DefaultIdleTTL,
		cleanupInterval: DefaultCleanupInterval,
		onCount:         func(int) {},
		now:             time.Now,
		sessions:        make(map[string]*entry),
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// Get returns the cart of sessionID, loading it from storage on first use.
func (m *Manager) Get(ctx context.Context, sessionID string) (*store.CartStore, error) {
	m.mu.Lock()
	if e, ok := m.sessions[sessionID]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e.cart, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sfg.Do(sessionID, func() (any, error) {
		m.mu.Lock()
		if e, ok := m.sessions[sessionID]; ok {
			m.mu.Unlock()
			return e.cart, nil
		}
		m.mu.Unlock()

		opts := append([]store.Option{store.WithKeys(store.SessionKeys(sessionID))}, m.opts...)
		cart, err := store.New(ctx, m.storage, opts...)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.sessions[sessionID] = &entry{cart: cart, lastSeen: m.now()}
		n := len(m.sessions)
		m.mu.Unlock()

		m.onCount(n)
		logger.Debug(ctx).Str("session_id", sessionID).Msg("Session loaded")
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.CartStore), nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stopCleanup:
			return
		}
	}
}

// evictIdle drops sessions not used within idleTTL.
func (m *Manager) evictIdle() {
	m.mu.Lock()
	cutoff := m.now().Add(-m.idleTTL)
	evicted := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if evicted > 0 {
		m.onCount(n)
		logger.Logger.Debug().Int("evicted", evicted).Int("remaining", n).Msg("Evicted idle sessions")
	}
}

// Close stops the background cleanup and waits for it to finish
func (m *Manager) Close() error {
	close(m.stopCleanup)
	m.wg.Wait()
	return nil
}
