// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	// APIKey authenticates against the provider.
	APIKey string

	// BaseURL overrides the API endpoint, for OpenAI-compatible servers.
	// Empty uses the provider default.
	BaseURL string

	// Model is the chat model to request.
	Model string

	// Timeout bounds a single completion call.
	Timeout time.Duration
}

// OpenAIClient implements Client against the chat-completions API of
// OpenAI or any wire-compatible provider.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClientFromEnv builds the backend from OPENAI_API_KEY,
// OPENAI_MODEL, OPENAI_BASE_URL and SPECFORGE_LLM_TIMEOUT_MS. The key
// may also come from a Podman secret mount, matching the platform's
// other services.
func NewOpenAIClientFromEnv() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from Podman Secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return NewOpenAIClient(OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
		Timeout: timeoutFromEnv(),
	})
}

// timeoutFromEnv reads SPECFORGE_LLM_TIMEOUT_MS. Zero means unset and
// lets NewOpenAIClient apply DefaultTimeout.
func timeoutFromEnv() time.Duration {
	value := os.Getenv("SPECFORGE_LLM_TIMEOUT_MS")
	if value == "" {
		return 0
	}
	ms, err := strconv.Atoi(value)
	if err != nil || ms <= 0 {
		slog.Warn("Ignoring invalid SPECFORGE_LLM_TIMEOUT_MS", "value", value)
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// NewOpenAIClient builds the backend from an explicit config.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai backend requires an API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
		slog.Warn("OPENAI_MODEL not set, defaulting", "model", cfg.Model)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	slog.Info("Initializing OpenAI client", "model", cfg.Model, "timeout", cfg.Timeout)
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// CompleteJSON implements the Client interface.
func (o *OpenAIClient) CompleteJSON(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	slog.Debug("Requesting chat completion", "model", o.model, "max_tokens", maxTokens)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		classified := classifyOpenAIError(err)
		slog.Error("OpenAI API call failed", "kind", classified.Kind, "error", err)
		return nil, classified
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		slog.Warn("OpenAI returned no choices or empty content")
		return nil, &ProviderError{Kind: KindEmptyResponse, Message: "provider returned an empty response"}
	}

	slog.Debug("Received chat completion",
		"finish_reason", resp.Choices[0].FinishReason, "total_tokens", resp.Usage.TotalTokens)
	return &ChatResult{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
		Model:      resp.Model,
	}, nil
}

// classifyOpenAIError maps transport and API errors onto the provider
// error taxonomy. Kind names stay identical to the provider's own kind
// strings where the provider has one.
func classifyOpenAIError(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Kind:       kindFromStatus(apiErr.HTTPStatusCode, apiErr.Type, apiErr.Message),
			Message:    apiErr.Message,
			StatusCode: apiErr.HTTPStatusCode,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Kind:       kindFromStatus(reqErr.HTTPStatusCode, "", reqErr.Error()),
			Message:    reqErr.Error(),
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &ProviderError{Kind: KindTimeout, Message: netErr.Error(), Err: err}
		}
		return &ProviderError{Kind: KindConnectionError, Message: netErr.Error(), Err: err}
	}

	return &ProviderError{Kind: KindConnectionError, Message: err.Error(), Err: err}
}

// kindFromStatus maps an HTTP status plus provider hints to a kind.
func kindFromStatus(status int, errType, message string) ErrorKind {
	hint := strings.ToLower(errType + " " + message)
	switch {
	case status == 401 || status == 403:
		return KindInvalidAPIKey
	case status == 404:
		return KindModelNotFound
	case status == 429:
		if strings.Contains(hint, "insufficient_quota") || strings.Contains(hint, "quota") {
			return KindInsufficientQuota
		}
		return KindRateLimited
	case status == 400 && strings.Contains(hint, "context_length"):
		return KindContextLength
	case status == 503:
		return KindServiceUnavailable
	case status >= 500:
		return KindServerError
	case status == 408:
		return KindTimeout
	default:
		return KindServerError
	}
}
