package circuitbreaker

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type Settings struct {
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial call is allowed.
	OpenTimeout time.Duration
	// IsSuccessful reports whether a non-nil error still counts as a healthy call,
	// e.g. a rejection caused by the caller's input. Nil counts every error as a failure.
	IsSuccessful func(err error) bool
}

func DefaultSettings() Settings {
	return Settings{MaxFailures: 5, OpenTimeout: 30 * time.Second}
}

// Breaker guards calls to one external collaborator.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func New(name string, s Settings, log zerolog.Logger) *Breaker {
	if s.MaxFailures == 0 {
		s.MaxFailures = DefaultSettings().MaxFailures
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = DefaultSettings().OpenTimeout
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Timeout:      s.OpenTimeout,
		IsSuccessful: s.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &Breaker{cb: cb}
}

// Do runs fn through the breaker. Rejected calls return ErrOpen.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}
