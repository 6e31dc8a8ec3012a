package circuitbreaker

import (
	"errors"
	"time"

	"github.com/fjod/flore/pkg/logger"
	"github.com/sony/gobreaker/v2"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type Settings struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:        name,
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}
}

// Breaker guards calls to an unreliable dependency.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

func New(s Settings) *Breaker {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Breaker{cb: cb}
}

// Call runs fn unless the breaker is open.
func (b *Breaker) Call(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}
