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
	"net"
	"strings"
)

// ErrorKind classifies a provider failure. The values mirror the kind
// strings providers use on the wire, so breaker expected-error matching
// can work on either.
type ErrorKind string

const (
	KindRateLimited        ErrorKind = "rate_limit_exceeded"
	KindInsufficientQuota  ErrorKind = "insufficient_quota"
	KindInvalidAPIKey      ErrorKind = "invalid_api_key"
	KindModelNotFound      ErrorKind = "model_not_found"
	KindContextLength      ErrorKind = "context_length_exceeded"
	KindServerError        ErrorKind = "server_error"
	KindTimeout            ErrorKind = "timeout"
	KindConnectionError    ErrorKind = "connection_error"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindEmptyResponse      ErrorKind = "empty_response"
)

// retryableKinds are the transient failures worth another attempt.
var retryableKinds = map[ErrorKind]bool{
	KindRateLimited:        true,
	KindServerError:        true,
	KindTimeout:            true,
	KindConnectionError:    true,
	KindServiceUnavailable: true,
}

// retryableSubstrings catch transient failures from providers that do
// not emit a structured kind.
var retryableSubstrings = []string{
	"timeout", "network", "connection", "temporary", "service unavailable",
}

// ProviderError is a classified LLM provider failure.
type ProviderError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindOf extracts the classified kind, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryable reports whether a failure is transient: a retryable kind,
// a timeout, or a message that smells like a network hiccup. Permanent
// provider errors (bad key, unknown model, oversized context) are not
// retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return retryableKinds[pe.Kind]
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range retryableSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
