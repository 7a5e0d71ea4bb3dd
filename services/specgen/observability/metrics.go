// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the specgen
// service: generation outcomes, token usage, latency and breaker state.
// Metrics are exposed via the /metrics endpoint.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "aleutian"
	specgenSubsystem = "specgen"
)

// Generation outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for specification generation.
// Initialize once at startup via NewMetrics.
type Metrics struct {
	// GenerationsTotal counts pipeline runs by outcome.
	// Labels: outcome (success, fallback, error)
	GenerationsTotal *prometheus.CounterVec

	// TokensTotal counts provider tokens consumed, by model.
	TokensTotal *prometheus.CounterVec

	// AttemptsPerGeneration observes how many LLM attempts a run took.
	AttemptsPerGeneration prometheus.Histogram

	// GenerationDurationSeconds measures end-to-end pipeline latency.
	// Labels: outcome
	GenerationDurationSeconds *prometheus.HistogramVec

	// BreakerState exports the circuit breaker state as a number:
	// 0 closed, 1 open, 2 half-open.
	BreakerState prometheus.Gauge

	// ValidationFailuresTotal counts rejected candidate documents.
	// Labels: pass (structural, business)
	ValidationFailuresTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all specgen metrics on the given
// registerer. Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GenerationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: specgenSubsystem,
			Name:      "generations_total",
			Help:      "Specification generations by outcome.",
		}, []string{"outcome"}),

		TokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: specgenSubsystem,
			Name:      "tokens_total",
			Help:      "Provider tokens consumed, by model.",
		}, []string{"model"}),

		AttemptsPerGeneration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: specgenSubsystem,
			Name:      "attempts_per_generation",
			Help:      "LLM attempts needed per generation.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),

		GenerationDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: specgenSubsystem,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end pipeline latency.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"outcome"}),

		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: specgenSubsystem,
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}),

		ValidationFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: specgenSubsystem,
			Name:      "validation_failures_total",
			Help:      "Rejected candidate documents by validation pass.",
		}, []string{"pass"}),
	}
}

// ObserveGeneration records one finished pipeline run.
func (m *Metrics) ObserveGeneration(outcome string, attempts, tokens int, model string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
	m.AttemptsPerGeneration.Observe(float64(attempts))
	m.GenerationDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if tokens > 0 && model != "" {
		m.TokensTotal.WithLabelValues(model).Add(float64(tokens))
	}
}

// ObserveBreakerState exports the current breaker state.
func (m *Metrics) ObserveBreakerState(state int) {
	if m == nil {
		return
	}
	m.BreakerState.Set(float64(state))
}

// ObserveValidationFailure counts one rejected candidate document.
func (m *Metrics) ObserveValidationFailure(pass string) {
	if m == nil {
		return
	}
	m.ValidationFailuresTotal.WithLabelValues(pass).Inc()
}
