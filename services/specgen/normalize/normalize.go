// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package normalize extracts a JSON object from a raw model response.
//
// Providers sometimes wrap JSON in markdown code fences or surround it
// with prose even when asked for a json_object response. This is a
// protocol quirk at the provider boundary, so normalization stays
// deliberately minimal: strip fences, cut to the outermost braces,
// parse. The normalizer is stateless and idempotent.
package normalize

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedResponse is returned when no parseable JSON object can be
// extracted from the raw text.
var ErrMalformedResponse = errors.New("response does not contain a valid JSON object")

// ExtractJSON strips markdown wrapping from raw and parses the result.
//
// Steps, in order: trim whitespace; drop a leading code fence
// (optionally tagged `json`); drop a trailing closing fence; cut
// everything before the first '{' and after the last '}'; parse.
func ExtractJSON(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSpace(text)
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrMalformedResponse
	}
	text = text[start : end+1]

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, ErrMalformedResponse
	}
	return doc, nil
}
