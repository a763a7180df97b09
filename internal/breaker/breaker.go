// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package breaker wraps sony/gobreaker with Prometheus state tracking and
// structured logging on transitions.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vidstream/internal/logging"
	"github.com/tomtom215/vidstream/internal/metrics"
)

// Settings configures a Breaker. Zero values take the defaults below.
type Settings struct {
	Name string

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counts. Zero never resets.
	Interval time.Duration
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
}

const (
	defaultMaxRequests = 1
	defaultTimeout     = 30 * time.Second
	defaultFailures    = 5
)

// Breaker is a named circuit breaker whose state is exported as
// vidstream_circuit_breaker_state{name}.
//
// The breaker uses real time for its open timeout. Tests that need to see a
// recovery should use a short Timeout rather than mocking the clock.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// New creates a Breaker and publishes its initial closed state.
func New(s Settings) *Breaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = defaultMaxRequests
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = defaultFailures
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(stateToFloat(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= s.ConsecutiveFailures
			if trip {
				logging.Warn().
					Str("breaker", s.Name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Breaker{cb: cb, name: s.Name}
}

// Name returns the breaker's metric label.
func (b *Breaker) Name() string {
	return b.name
}

// State returns "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Do runs fn through the breaker. When the circuit rejects the call the
// error matches ErrOpen.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case IsOpen(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return err
}

// IsOpen reports whether err is a rejection by an open or saturated breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
