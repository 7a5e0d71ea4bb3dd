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
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
)

// maxLoggedErrors caps how many findings are written to the log.
// The full list is always returned to the caller.
const maxLoggedErrors = 10

// maxReportedValueLen caps the size of offending values echoed back in
// issues, so a pathological document cannot balloon the report.
const maxReportedValueLen = 120

// requiredGroups are the six top-level groups every document must have.
var requiredGroups = []string{
	"metadata", "requirements", "architecture", "implementation", "testing", "deployment",
}

// QuickValidate cheaply rejects documents that are missing any of the
// six top-level groups. Used by the orchestrator as a fast gate before
// the full walk.
func QuickValidate(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return ErrInvalidType
	}
	var missing []string
	for _, g := range requiredGroups {
		if _, present := obj[g]; !present {
			missing = append(missing, g)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("document is missing top-level group(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks a decoded JSON document against the specification
// schema and business rules.
//
// Inputs:
//   - raw: The decoded document. Must be a map[string]any.
//
// Outputs:
//   - *datatypes.Specification: The typed document, non-nil only when
//     validation passed.
//   - *Report: Every structural issue and business violation found.
//     Never nil.
//   - error: ErrInvalidType, a *ValidationError wrapping the report,
//     or nil on success.
//
// The structural pass never aborts early; all findings are collected.
// The business pass runs whenever the document decodes into the typed
// model, so cross-reference findings (duplicate IDs, dangling
// references) are reported even alongside structural findings.
func Validate(raw any) (*datatypes.Specification, *Report, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &Report{}, ErrInvalidType
	}

	report := &Report{}
	walkField(specificationSchema, "", obj, report)

	spec := decodeTyped(obj)
	if spec != nil {
		report.Business = append(report.Business, applyRules(spec)...)
	}

	logReport(report)

	if !report.OK() {
		return nil, report, &ValidationError{Report: report}
	}
	return spec, report, nil
}

// ValidateSpec round-trips a typed document through JSON and validates
// it. Used for fixed-point checks on enriched and fallback output.
func ValidateSpec(spec *datatypes.Specification) (*Report, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return &Report{}, fmt.Errorf("marshal specification: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return &Report{}, fmt.Errorf("decode specification: %w", err)
	}
	_, report, err := Validate(raw)
	return report, err
}

// decodeTyped converts the raw map into the typed model. Returns nil
// when the shapes are too far off to decode; the structural pass has
// already recorded why.
func decodeTyped(obj map[string]any) *datatypes.Specification {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	var spec datatypes.Specification
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil
	}
	return &spec
}

func logReport(report *Report) {
	for i, issue := range report.Structural {
		if i == maxLoggedErrors {
			slog.Warn("structural errors truncated in log",
				"logged", maxLoggedErrors, "total", len(report.Structural))
			break
		}
		slog.Warn("structural validation error",
			"path", issue.Path, "kind", issue.Kind, "message", issue.Message)
	}
	for i, v := range report.Business {
		if i == maxLoggedErrors {
			slog.Warn("business rule violations truncated in log",
				"logged", maxLoggedErrors, "total", len(report.Business))
			break
		}
		slog.Warn("business rule violation", "violation", v)
	}
}

// =============================================================================
// Structural walk
// =============================================================================

func walkField(f Field, path string, value any, report *Report) {
	switch f.Kind {
	case KindAny:
		return
	case KindObject:
		walkObject(f, path, value, report)
	case KindArray:
		walkArray(f, path, value, report)
	case KindString:
		walkString(f, path, value, report)
	case KindInt:
		walkInt(f, path, value, report)
	case KindBool:
		if _, ok := value.(bool); !ok {
			report.add(path, "expected a boolean", value, IssueWrongType)
		}
	}
}

func walkObject(f Field, path string, value any, report *Report) {
	obj, ok := value.(map[string]any)
	if !ok {
		report.add(path, "expected an object", value, IssueWrongType)
		return
	}

	if f.FreeKeys != nil {
		for key, v := range obj {
			walkField(*f.FreeKeys, childPath(path, key), v, report)
		}
		return
	}

	known := make(map[string]Field, len(f.Fields))
	for _, member := range f.Fields {
		known[member.Name] = member
	}

	for key, v := range obj {
		member, recognized := known[key]
		if !recognized {
			report.add(childPath(path, key), "unknown key", nil, IssueUnknownKey)
			continue
		}
		walkField(member, childPath(path, key), v, report)
	}

	for _, member := range f.Fields {
		if !member.Required {
			continue
		}
		if _, present := obj[member.Name]; !present {
			report.add(childPath(path, member.Name), "required field is missing", nil, IssueMissing)
		}
	}
}

func walkArray(f Field, path string, value any, report *Report) {
	arr, ok := value.([]any)
	if !ok {
		report.add(path, "expected an array", value, IssueWrongType)
		return
	}
	if f.NonEmpty && len(arr) == 0 {
		report.add(path, "array must not be empty", nil, IssueEmpty)
		return
	}
	if f.Elem == nil {
		return
	}
	for i, v := range arr {
		walkField(*f.Elem, fmt.Sprintf("%s[%d]", path, i), v, report)
	}
}

func walkString(f Field, path string, value any, report *Report) {
	s, ok := value.(string)
	if !ok {
		report.add(path, "expected a string", value, IssueWrongType)
		return
	}
	if f.NonEmpty && strings.TrimSpace(s) == "" {
		report.add(path, "string must not be empty", s, IssueEmpty)
		return
	}
	if len(f.Enum) > 0 {
		for _, allowed := range f.Enum {
			if s == allowed {
				return
			}
		}
		report.add(path, fmt.Sprintf("value must be one of [%s]", strings.Join(f.Enum, ", ")), s, IssueEnum)
		return
	}
	if f.Pattern != nil && !f.Pattern.MatchString(s) {
		report.add(path, fmt.Sprintf("value does not match pattern %s", f.Pattern.String()), s, IssuePattern)
	}
}

func walkInt(f Field, path string, value any, report *Report) {
	// encoding/json decodes every number as float64.
	n, ok := value.(float64)
	if !ok || math.Trunc(n) != n {
		report.add(path, "expected an integer", value, IssueWrongType)
		return
	}
	if f.Bounded {
		v := int(n)
		if v < f.Min || v > f.Max {
			report.add(path, fmt.Sprintf("value must be between %d and %d", f.Min, f.Max), v, IssueRange)
		}
	}
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func (r *Report) add(path, message string, value any, kind string) {
	if s, ok := value.(string); ok && len(s) > maxReportedValueLen {
		value = s[:maxReportedValueLen] + "..."
	}
	r.Structural = append(r.Structural, Issue{Path: path, Message: message, Value: value, Kind: kind})
}
