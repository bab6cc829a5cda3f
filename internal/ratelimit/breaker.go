package ratelimit

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// NewBreaker creates a circuit breaker tuned for venue fetches: it trips
// after five consecutive failures and half-opens after 30 seconds.
// onStateChange may be nil.
func NewBreaker[T any](name string, onStateChange func(name string, from, to gobreaker.State)) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	if onStateChange != nil {
		settings.OnStateChange = onStateChange
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}
