// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resilience wraps the LLM call with a circuit breaker and an
// exponential-backoff retry executor. Both are provider-agnostic; the
// caller supplies the error classification.
package resilience

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// invoking the wrapped function.
var ErrCircuitOpen = errors.New("circuit breaker is open, llm requests blocked")

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed allows requests through normally.
	CircuitClosed CircuitState = iota

	// CircuitOpen rejects all requests immediately.
	CircuitOpen

	// CircuitHalfOpen allows a single probe to test recovery.
	CircuitHalfOpen
)

// String returns the human-readable name for the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs and stats.
	Name string

	// FailureThreshold is the number of consecutive failures before opening.
	// Default: 3
	FailureThreshold int

	// RecoveryTimeout is the duration to wait before transitioning from
	// open to half-open. Default: 30s
	RecoveryTimeout time.Duration

	// ExpectedErrors lists substrings of errors that must not move the
	// breaker at all: they neither count as failures nor reset the
	// failure counter. Typical entries: "rate_limit_exceeded",
	// "insufficient_quota".
	ExpectedErrors []string
}

// DefaultCircuitBreakerConfig returns the defaults used for the LLM
// pipeline breaker.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "llm",
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		ExpectedErrors:   []string{"rate_limit_exceeded", "insufficient_quota"},
	}
}

// CircuitBreaker implements the circuit breaker pattern for fault tolerance.
//
// The circuit breaker has three states:
// - Closed: Normal operation, requests pass through
// - Open: Failure threshold exceeded, requests are rejected immediately
// - Half-Open: Testing recovery, exactly one probe allowed
//
// Thread Safety: Safe for concurrent use.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	state               CircuitState
	consecutiveFailures int
	halfOpenProbes      int
	lastFailureTime     time.Time
	nextAttempt         time.Time
	lastStateChange     time.Time

	totalCalls    int64
	totalFailures int64
	totalRejected int64

	mu sync.RWMutex
}

// NewCircuitBreaker creates a new circuit breaker in closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 3
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		config:          config,
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// Allow checks if a request should be allowed through.
//
// In open state, once the recovery timeout has elapsed the breaker
// transitions to half-open and admits exactly one probe; further calls
// are rejected until the probe reports its outcome.
//
// Outputs:
//   - bool: True if the request may proceed.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.totalCalls++

	switch cb.state {
	case CircuitClosed:
		return true

	case CircuitOpen:
		if now.Before(cb.nextAttempt) {
			cb.totalRejected++
			return false
		}
		cb.transitionTo(CircuitHalfOpen, now)
		cb.halfOpenProbes = 1
		return true

	case CircuitHalfOpen:
		if cb.halfOpenProbes < 1 {
			cb.halfOpenProbes++
			return true
		}
		cb.totalRejected++
		return false

	default:
		cb.totalRejected++
		return false
	}
}

// RecordSuccess records a successful request. A successful half-open
// probe closes the circuit.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.consecutiveFailures = 0
	case CircuitHalfOpen:
		cb.transitionTo(CircuitClosed, time.Now())
	}
}

// RecordFailure records a failed request.
//
// Expected errors (per config) leave the breaker untouched: state and
// counters are exactly as before the call. Any other failure counts
// toward the threshold; in half-open a single failure reopens the
// circuit.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) RecordFailure(err error) {
	if cb.isExpected(err) {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.lastFailureTime = now
	cb.totalFailures++

	switch cb.state {
	case CircuitClosed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.config.FailureThreshold {
			cb.openCircuit(now)
		}
	case CircuitHalfOpen:
		cb.openCircuit(now)
	}
}

// isExpected matches the error text against the configured list.
func (cb *CircuitBreaker) isExpected(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, expected := range cb.config.ExpectedErrors {
		if expected != "" && strings.Contains(msg, expected) {
			return true
		}
	}
	return false
}

// openCircuit transitions to open and schedules the next probe window.
// Must be called with lock held.
func (cb *CircuitBreaker) openCircuit(now time.Time) {
	cb.transitionTo(CircuitOpen, now)
	cb.nextAttempt = now.Add(cb.config.RecoveryTimeout)
}

// transitionTo changes the circuit state.
// Must be called with lock held.
func (cb *CircuitBreaker) transitionTo(newState CircuitState, now time.Time) {
	cb.state = newState
	cb.lastStateChange = now
	cb.halfOpenProbes = 0
	if newState == CircuitClosed {
		cb.consecutiveFailures = 0
	}
}

// State returns the current circuit state.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Stats returns a snapshot of the breaker counters.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return CircuitBreakerStats{
		Name:                cb.config.Name,
		State:               cb.state,
		StateName:           cb.state.String(),
		ConsecutiveFailures: cb.consecutiveFailures,
		LastFailureTime:     cb.lastFailureTime,
		NextAttempt:         cb.nextAttempt,
		LastStateChange:     cb.lastStateChange,
		TotalCalls:          cb.totalCalls,
		TotalFailures:       cb.totalFailures,
		TotalRejected:       cb.totalRejected,
	}
}

// Reset resets the circuit breaker to closed state.
//
// This is primarily for testing or manual intervention.
//
// Thread Safety: Safe for concurrent use.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitClosed
	cb.consecutiveFailures = 0
	cb.halfOpenProbes = 0
	cb.nextAttempt = time.Time{}
	cb.lastStateChange = time.Now()
}

// CircuitBreakerStats contains circuit breaker statistics.
type CircuitBreakerStats struct {
	Name                string       `json:"name"`
	State               CircuitState `json:"-"`
	StateName           string       `json:"state"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	LastFailureTime     time.Time    `json:"lastFailureTime"`
	NextAttempt         time.Time    `json:"nextAttempt"`
	LastStateChange     time.Time    `json:"lastStateChange"`
	TotalCalls          int64        `json:"totalCalls"`
	TotalFailures       int64        `json:"totalFailures"`
	TotalRejected       int64        `json:"totalRejected"`
}

// TimeSinceStateChange returns the duration since the last state change.
func (s CircuitBreakerStats) TimeSinceStateChange() time.Duration {
	return time.Since(s.LastStateChange)
}
