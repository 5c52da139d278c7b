package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type Config struct {
	Name string
	// ConsecutiveFailures trips the breaker once reached.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenRequests is how many probe calls pass through while half-open.
	HalfOpenRequests uint32
	// IsSuccessful reports whether an error returned by a call leaves the
	// failure count alone. Nil means only cancellations are ignored.
	IsSuccessful func(err error) bool
}

// IgnoreCanceled treats a nil error or a cancelled caller as success.
func IgnoreCanceled(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

func New[T any](cfg Config, log *zap.Logger) *Breaker[T] {
	if log == nil {
		log = zap.NewNop()
	}
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	isSuccessful := cfg.IsSuccessful
	if isSuccessful == nil {
		isSuccessful = IgnoreCanceled
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker. Rejections are reported as ErrOpen.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, ErrOpen
	}
	return res, err
}

func (b *Breaker[T]) State() string {
	return b.cb.State().String()
}
