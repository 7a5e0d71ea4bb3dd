// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm is the provider boundary of the specgen service: one
// chat-completion request in, raw assistant text out. The package does
// not retry and does not interpret the response; resilience and JSON
// handling live upstream.
package llm

import (
	"context"
	"time"
)

// Defaults for chat requests when the config leaves them unset.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 4000
	DefaultTemperature = 0.3
	DefaultTimeout     = 60 * time.Second
)

// ChatRequest is one chat-completion request: a system prompt carrying
// the output schema and a user prompt carrying the feature description.
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string

	// MaxTokens caps the completion length. Zero means DefaultMaxTokens.
	MaxTokens int

	// Temperature controls sampling. Zero means DefaultTemperature.
	Temperature float32
}

// ChatResult is the raw outcome of a chat-completion request.
type ChatResult struct {
	// Content is the raw assistant text, possibly fenced markdown.
	Content string

	// TokensUsed is the total token usage reported by the provider.
	TokensUsed int

	// Model is the model identifier that produced the response.
	Model string
}

// Client defines the standard interface for any LLM backend.
//
// Implementations must ask the provider for a JSON object response and
// surface failures as *ProviderError so upstream layers can classify
// them. Implementations must be safe for concurrent use.
type Client interface {
	// CompleteJSON sends one chat request and returns the raw response.
	CompleteJSON(ctx context.Context, req ChatRequest) (*ChatResult, error)
}
