// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline orchestrates specification generation: prompt
// assembly, the resilient LLM call, normalization, validation,
// enrichment, and the fallback document when everything else fails.
//
// # Description
//
// The pipeline is the only place the fallback decision is taken. A
// single request either returns a fully enriched specification or a
// fully formed fallback; callers never observe a partially validated
// document. All dependencies arrive through an explicit Environment
// rather than package-level singletons, so the process may host one
// environment globally but the core does not assume it.
//
// # Thread Safety
//
// Environment is safe for concurrent use once built: the breaker and
// prompt cache synchronize internally and everything else is
// read-only.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
	"github.com/AleutianAI/SpecForge/services/specgen/enrich"
	"github.com/AleutianAI/SpecForge/services/specgen/fallback"
	"github.com/AleutianAI/SpecForge/services/specgen/llm"
	"github.com/AleutianAI/SpecForge/services/specgen/normalize"
	"github.com/AleutianAI/SpecForge/services/specgen/observability"
	"github.com/AleutianAI/SpecForge/services/specgen/prompt"
	"github.com/AleutianAI/SpecForge/services/specgen/resilience"
	"github.com/AleutianAI/SpecForge/services/specgen/schema"
)

// ErrLLMUnavailable is surfaced when the LLM pipeline failed and the
// fallback is disabled.
var ErrLLMUnavailable = errors.New("llm pipeline unavailable")

// ErrInvalidResponse is surfaced when both the LLM pipeline and the
// fallback produced an invalid document. The fallback is
// self-consistent by contract, so this indicates a bug.
var ErrInvalidResponse = errors.New("no valid specification could be produced")

// errIncompleteDocument marks a quick-validation failure: the response
// parsed but lacks one of the six top-level groups.
var errIncompleteDocument = errors.New("incomplete specification document")

// Config tunes one pipeline environment.
type Config struct {
	// MaxTokens and Temperature are passed through to the LLM client.
	MaxTokens   int
	Temperature float32

	// Retry configures the retry executor. Retryable is overridden by
	// the pipeline's own classification.
	Retry resilience.RetryConfig

	// Breaker configures the circuit breaker shared by all requests.
	Breaker resilience.CircuitBreakerConfig

	// FallbackEnabled controls whether a failed pipeline degrades to
	// the deterministic minimal document. Default true.
	FallbackEnabled bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:       llm.DefaultMaxTokens,
		Temperature:     llm.DefaultTemperature,
		Retry:           resilience.DefaultRetryConfig(),
		Breaker:         resilience.DefaultCircuitBreakerConfig(),
		FallbackEnabled: true,
	}
}

// Environment carries every dependency of the pipeline.
type Environment struct {
	Client    llm.Client
	Prompts   *prompt.SystemLoader
	Templates *prompt.TemplateRegistry
	Breaker   *resilience.CircuitBreaker
	Metrics   *observability.Metrics

	config Config
}

// NewEnvironment wires a pipeline environment. Metrics may be nil.
func NewEnvironment(client llm.Client, prompts *prompt.SystemLoader,
	templates *prompt.TemplateRegistry, metrics *observability.Metrics, cfg Config) *Environment {
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = resilience.DefaultRetryConfig()
	}
	return &Environment{
		Client:    client,
		Prompts:   prompts,
		Templates: templates,
		Breaker:   resilience.NewCircuitBreaker(cfg.Breaker),
		Metrics:   metrics,
		config:    cfg,
	}
}

// Result is the pipeline output envelope.
type Result struct {
	Specification *datatypes.Specification `json:"specification"`
	Meta          Meta                     `json:"meta"`
}

// Meta describes how the specification was produced. Fallback is
// authoritative: callers must not infer success from the presence of a
// document alone.
type Meta struct {
	TokensUsed int      `json:"tokensUsed"`
	Model      string   `json:"model"`
	Attempts   int      `json:"attempts"`
	Fallback   bool     `json:"fallback"`
	RequestID  string   `json:"requestId"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Generate runs the full pipeline for one request.
//
// Inputs:
//   - ctx: Context for cancellation. A cancellation aborts the run
//     without touching the breaker and without producing a fallback.
//   - req: The generation request; validated before any LLM work.
//
// Outputs:
//   - *Result: The enriched specification or the fallback document.
//   - error: A *datatypes.RequestValidationError for bad input, the
//     context error on cancellation, ErrLLMUnavailable when the
//     pipeline failed with fallback disabled, or ErrInvalidResponse
//     when even the fallback did not validate.
func (env *Environment) Generate(ctx context.Context, req datatypes.GenerateRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	start := time.Now()
	logger := slog.With("request_id", requestID)

	result, err := env.generateValidated(ctx, req, logger)
	defer env.Metrics.ObserveBreakerState(int(env.Breaker.State()))

	if err == nil {
		result.Meta.RequestID = requestID
		env.Metrics.ObserveGeneration(observability.OutcomeSuccess,
			result.Meta.Attempts, result.Meta.TokensUsed, result.Meta.Model, time.Since(start))
		return result, nil
	}

	if ctx.Err() != nil {
		logger.Warn("generation cancelled by caller", "error", ctx.Err())
		env.Metrics.ObserveGeneration(observability.OutcomeError, result.Meta.Attempts, 0, "", time.Since(start))
		return nil, ctx.Err()
	}

	logger.Error("llm pipeline failed, degrading to fallback",
		"error", err, "attempts", result.Meta.Attempts, "breaker_state", env.Breaker.State().String())

	if !env.config.FallbackEnabled {
		env.Metrics.ObserveGeneration(observability.OutcomeError, result.Meta.Attempts, 0, "", time.Since(start))
		return nil, fmt.Errorf("%w: %v (request %s)", ErrLLMUnavailable, err, requestID)
	}

	spec := fallback.Generate(req)
	if _, verr := schema.ValidateSpec(spec); verr != nil {
		logger.Error("fallback specification failed validation", "error", verr)
		env.Metrics.ObserveGeneration(observability.OutcomeError, result.Meta.Attempts, 0, "", time.Since(start))
		return nil, fmt.Errorf("%w (request %s)", ErrInvalidResponse, requestID)
	}
	warnings := enrich.Enrich(spec)

	env.Metrics.ObserveGeneration(observability.OutcomeFallback,
		result.Meta.Attempts, 0, "", time.Since(start))
	return &Result{
		Specification: spec,
		Meta: Meta{
			Attempts:  result.Meta.Attempts,
			Fallback:  true,
			RequestID: requestID,
			Warnings:  warnings,
		},
	}, nil
}

// generateValidated runs prompt assembly and the retried LLM attempt.
// On success the returned result carries the enriched document; on
// failure the result still carries the attempt count for metrics.
func (env *Environment) generateValidated(ctx context.Context, req datatypes.GenerateRequest,
	logger *slog.Logger) (*Result, error) {

	out := &Result{}

	systemPrompt, err := env.Prompts.Load()
	if err != nil {
		return out, err
	}

	var family *prompt.TemplateFamily
	if env.Templates != nil {
		family = env.Templates.Lookup(req.Template)
	}
	userPrompt := prompt.BuildUserPrompt(req, family)

	var spec *datatypes.Specification
	var tokensUsed int
	var model string

	attempt := func(ctx context.Context, attempt int) error {
		logger.Info("llm attempt", "attempt", attempt)

		chat, err := env.Client.CompleteJSON(ctx, llm.ChatRequest{
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			MaxTokens:    env.config.MaxTokens,
			Temperature:  env.config.Temperature,
		})
		if err != nil {
			return err
		}
		tokensUsed = chat.TokensUsed
		model = chat.Model

		raw, err := normalize.ExtractJSON(chat.Content)
		if err != nil {
			return err
		}
		if err := schema.QuickValidate(raw); err != nil {
			return fmt.Errorf("%w: %v", errIncompleteDocument, err)
		}

		validated, report, err := schema.Validate(raw)
		if err != nil {
			if len(report.Structural) > 0 {
				env.Metrics.ObserveValidationFailure("structural")
			}
			if len(report.Business) > 0 {
				env.Metrics.ObserveValidationFailure("business")
			}
			return err
		}
		spec = validated
		return nil
	}

	retryCfg := env.config.Retry
	retryCfg.Retryable = attemptRetryable

	retryResult, err := resilience.RetryWithCircuitBreaker(ctx, env.Breaker, retryCfg, attempt)
	out.Meta.Attempts = retryResult.Attempts
	if err != nil {
		return out, err
	}

	warnings := enrich.Enrich(spec)

	out.Specification = spec
	out.Meta.TokensUsed = tokensUsed
	out.Meta.Model = model
	out.Meta.Warnings = warnings
	return out, nil
}

// attemptRetryable decides whether a failed attempt is worth another
// try: transient provider errors, empty responses, and shape errors
// (malformed or invalid documents) are; permanent provider errors and
// an open breaker are not.
func attemptRetryable(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	if llm.IsRetryable(err) {
		return true
	}
	if llm.KindOf(err) == llm.KindEmptyResponse {
		return true
	}
	if errors.Is(err, normalize.ErrMalformedResponse) ||
		errors.Is(err, schema.ErrInvalidType) ||
		errors.Is(err, errIncompleteDocument) {
		return true
	}
	var verr *schema.ValidationError
	return errors.As(err, &verr)
}

// BreakerStats exposes the breaker snapshot for the admin surface.
func (env *Environment) BreakerStats() resilience.CircuitBreakerStats {
	return env.Breaker.Stats()
}
