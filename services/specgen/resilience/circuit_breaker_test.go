// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resilience

import (
	"errors"
	"testing"
	"time"
)

var errProvider = errors.New("server_error: upstream exploded")

func newTestBreaker(threshold int, recovery time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: threshold,
		RecoveryTimeout:  recovery,
		ExpectedErrors:   []string{"rate_limit_exceeded", "insufficient_quota"},
	})
}

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)
	if cb.State() != CircuitClosed {
		t.Errorf("new breaker state = %v, want closed", cb.State())
	}
	if !cb.Allow() {
		t.Error("new breaker should allow requests")
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		cb.Allow()
		cb.RecordFailure(errProvider)
		if cb.State() != CircuitClosed {
			t.Fatalf("breaker opened after %d failures, threshold is 3", i+1)
		}
	}

	cb.Allow()
	cb.RecordFailure(errProvider)
	if cb.State() != CircuitOpen {
		t.Errorf("breaker state after 3 failures = %v, want open", cb.State())
	}
	if cb.Allow() {
		t.Error("open breaker should reject requests")
	}
}

func TestCircuitBreaker_SuccessResetsCounter(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)

	cb.RecordFailure(errProvider)
	cb.RecordFailure(errProvider)
	cb.RecordSuccess()
	cb.RecordFailure(errProvider)
	cb.RecordFailure(errProvider)

	if cb.State() != CircuitClosed {
		t.Errorf("breaker state = %v, want closed (counter resets on success)", cb.State())
	}
	if got := cb.Stats().ConsecutiveFailures; got != 2 {
		t.Errorf("consecutiveFailures = %d, want 2", got)
	}
}

func TestCircuitBreaker_HalfOpenSingleProbe(t *testing.T) {
	cb := newTestBreaker(1, 20*time.Millisecond)

	cb.RecordFailure(errProvider)
	if cb.State() != CircuitOpen {
		t.Fatalf("breaker state = %v, want open", cb.State())
	}
	if cb.Allow() {
		t.Fatal("breaker should reject before the recovery timeout")
	}

	time.Sleep(30 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("breaker should admit one probe after the recovery timeout")
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("breaker state = %v, want half-open", cb.State())
	}
	if cb.Allow() {
		t.Error("half-open breaker must admit exactly one probe")
	}
}

func TestCircuitBreaker_HalfOpenSuccessCloses(t *testing.T) {
	cb := newTestBreaker(1, 10*time.Millisecond)

	cb.RecordFailure(errProvider)
	time.Sleep(20 * time.Millisecond)
	cb.Allow()
	cb.RecordSuccess()

	if cb.State() != CircuitClosed {
		t.Errorf("breaker state = %v, want closed after probe success", cb.State())
	}
	if got := cb.Stats().ConsecutiveFailures; got != 0 {
		t.Errorf("consecutiveFailures = %d, want 0 after closing", got)
	}
	if !cb.Allow() {
		t.Error("closed breaker should allow requests")
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker(1, 10*time.Millisecond)

	cb.RecordFailure(errProvider)
	time.Sleep(20 * time.Millisecond)
	cb.Allow()
	cb.RecordFailure(errProvider)

	if cb.State() != CircuitOpen {
		t.Errorf("breaker state = %v, want open after probe failure", cb.State())
	}
	if cb.Allow() {
		t.Error("reopened breaker should reject until the next recovery window")
	}
}

func TestCircuitBreaker_ExpectedErrorsLeaveStateUntouched(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)

	cb.RecordFailure(errProvider)
	cb.RecordFailure(errProvider)
	before := cb.Stats()

	cb.RecordFailure(errors.New("openai: rate_limit_exceeded, try later"))
	cb.RecordFailure(errors.New("insufficient_quota for this key"))

	after := cb.Stats()
	if after.State != before.State {
		t.Errorf("state changed on expected error: %v -> %v", before.State, after.State)
	}
	if after.ConsecutiveFailures != before.ConsecutiveFailures {
		t.Errorf("consecutiveFailures changed on expected error: %d -> %d",
			before.ConsecutiveFailures, after.ConsecutiveFailures)
	}
	if after.TotalFailures != before.TotalFailures {
		t.Errorf("totalFailures changed on expected error: %d -> %d",
			before.TotalFailures, after.TotalFailures)
	}

	// An expected error does not reset the counter either: one more
	// real failure still opens the circuit.
	cb.RecordFailure(errProvider)
	if cb.State() != CircuitOpen {
		t.Errorf("breaker state = %v, want open (expected errors must not reset the counter)", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := newTestBreaker(1, time.Hour)

	cb.RecordFailure(errProvider)
	if cb.State() != CircuitOpen {
		t.Fatalf("breaker state = %v, want open", cb.State())
	}

	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Errorf("breaker state after Reset = %v, want closed", cb.State())
	}
	if !cb.Allow() {
		t.Error("reset breaker should allow requests")
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := newTestBreaker(2, time.Hour)

	cb.Allow()
	cb.RecordFailure(errProvider)
	cb.Allow()
	cb.RecordFailure(errProvider)
	cb.Allow() // rejected, circuit is open

	stats := cb.Stats()
	if stats.Name != "test" {
		t.Errorf("stats.Name = %q, want test", stats.Name)
	}
	if stats.StateName != "open" {
		t.Errorf("stats.StateName = %q, want open", stats.StateName)
	}
	if stats.TotalCalls != 3 {
		t.Errorf("stats.TotalCalls = %d, want 3", stats.TotalCalls)
	}
	if stats.TotalFailures != 2 {
		t.Errorf("stats.TotalFailures = %d, want 2", stats.TotalFailures)
	}
	if stats.TotalRejected != 1 {
		t.Errorf("stats.TotalRejected = %d, want 1", stats.TotalRejected)
	}
}

func TestCircuitBreaker_DefaultsApplied(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "defaults"})
	if cb.config.FailureThreshold != 3 {
		t.Errorf("default FailureThreshold = %d, want 3", cb.config.FailureThreshold)
	}
	if cb.config.RecoveryTimeout != 30*time.Second {
		t.Errorf("default RecoveryTimeout = %v, want 30s", cb.config.RecoveryTimeout)
	}
}
