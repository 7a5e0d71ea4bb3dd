// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidType is returned when the candidate document is not a JSON
// object at all.
var ErrInvalidType = errors.New("specification document is not a JSON object")

// Issue kinds used in structural validation.
const (
	IssueMissing    = "missing"
	IssueUnknownKey = "unknown_key"
	IssueWrongType  = "wrong_type"
	IssueEmpty      = "empty"
	IssuePattern    = "pattern_mismatch"
	IssueEnum       = "enum_mismatch"
	IssueRange      = "out_of_range"
)

// Issue is a single structural validation finding.
type Issue struct {
	// Path locates the finding, e.g. "requirements.functional[0].id".
	Path string `json:"path"`

	// Message is a human-readable description of the mismatch.
	Message string `json:"message"`

	// Value is the offending value, when it is small enough to report.
	Value any `json:"offendingValue,omitempty"`

	// Kind classifies the mismatch (missing, wrong_type, pattern_mismatch, ...).
	Kind string `json:"kind"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Report collects everything the validator found. Structural issues and
// business-rule violations are kept separate: structural issues mean
// the document does not match the schema shape, business violations
// mean the shape is fine but a cross-reference or invariant is broken.
type Report struct {
	Structural []Issue
	Business   []string
}

// OK reports whether the document passed both passes.
func (r *Report) OK() bool {
	return len(r.Structural) == 0 && len(r.Business) == 0
}

// ValidationError wraps a failed Report as an error.
type ValidationError struct {
	Report *Report
}

func (e *ValidationError) Error() string {
	var parts []string
	if n := len(e.Report.Structural); n > 0 {
		parts = append(parts, fmt.Sprintf("%d structural error(s), first: %s",
			n, e.Report.Structural[0].String()))
	}
	if n := len(e.Report.Business); n > 0 {
		parts = append(parts, fmt.Sprintf("%d business rule violation(s), first: %s",
			n, e.Report.Business[0]))
	}
	if len(parts) == 0 {
		return "specification validation failed"
	}
	return "specification validation failed: " + strings.Join(parts, "; ")
}
