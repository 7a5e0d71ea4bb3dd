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
	"testing"
)

func TestProviderError_Error(t *testing.T) {
	err := &ProviderError{Kind: KindRateLimited, Message: "slow down"}
	if got := err.Error(); got != "rate_limit_exceeded: slow down" {
		t.Errorf("Error() = %q", got)
	}

	bare := &ProviderError{Kind: KindTimeout}
	if got := bare.Error(); got != "timeout" {
		t.Errorf("Error() without message = %q", got)
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &ProviderError{Kind: KindServerError, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should see the wrapped error")
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ProviderError{Kind: KindModelNotFound})
	if got := KindOf(err); got != KindModelNotFound {
		t.Errorf("KindOf = %q, want model_not_found", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}

func TestIsRetryable_Kinds(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindRateLimited, true},
		{KindServerError, true},
		{KindTimeout, true},
		{KindConnectionError, true},
		{KindServiceUnavailable, true},
		{KindInvalidAPIKey, false},
		{KindModelNotFound, false},
		{KindContextLength, false},
		{KindInsufficientQuota, false},
		{KindEmptyResponse, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &ProviderError{Kind: tt.kind, Message: "x"}
			if got := IsRetryable(err); got != tt.want {
				t.Errorf("IsRetryable(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestIsRetryable_Unclassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), true},
		{"timeout text", errors.New("i/o timeout while reading"), true},
		{"connection text", errors.New("connection refused"), true},
		{"temporary text", errors.New("temporary failure in name resolution"), true},
		{"service unavailable text", errors.New("Service Unavailable"), true},
		{"permanent text", errors.New("invalid request payload"), false},
		{"cancellation", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		status  int
		errType string
		message string
		want    ErrorKind
	}{
		{401, "", "bad key", KindInvalidAPIKey},
		{403, "", "forbidden", KindInvalidAPIKey},
		{404, "", "no such model", KindModelNotFound},
		{429, "insufficient_quota", "You exceeded your current quota", KindInsufficientQuota},
		{429, "", "Rate limit reached", KindRateLimited},
		{400, "invalid_request_error", "context_length_exceeded", KindContextLength},
		{408, "", "request timeout", KindTimeout},
		{503, "", "overloaded", KindServiceUnavailable},
		{500, "", "internal error", KindServerError},
		{502, "", "bad gateway", KindServerError},
	}

	for _, tt := range tests {
		if got := kindFromStatus(tt.status, tt.errType, tt.message); got != tt.want {
			t.Errorf("kindFromStatus(%d, %q, %q) = %q, want %q",
				tt.status, tt.errType, tt.message, got, tt.want)
		}
	}
}
