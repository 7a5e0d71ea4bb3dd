// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompt assembles the system and user prompts for the
// generation pipeline. The system prompt is a markdown file shipped
// with the service, normalized to plain text and cached for the
// process lifetime; the user prompt is built per request.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// ErrPromptUnavailable is returned when the system prompt file cannot
// be read or does not look like the specification prompt.
var ErrPromptUnavailable = errors.New("system prompt unavailable")

// DefaultSystemPromptPath is used when SPECFORGE_PROMPT_PATH is unset.
const DefaultSystemPromptPath = "prompts/specification_system.md"

// minSystemPromptLength guards against a truncated or placeholder file.
const minSystemPromptLength = 200

// sentinelTerms must all appear in the system prompt. Their absence
// means the file is not the specification prompt at all.
var sentinelTerms = []string{"technical specification", "json", "requirements", "architecture"}

var (
	boldMarker    = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	headingMarker = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// SystemLoader reads and caches the system prompt.
//
// Thread Safety: Safe for concurrent use; the file is read at most once.
type SystemLoader struct {
	path string

	once   sync.Once
	cached string
	err    error
}

// NewSystemLoader creates a loader for the given path. An empty path
// falls back to SPECFORGE_PROMPT_PATH, then DefaultSystemPromptPath.
func NewSystemLoader(path string) *SystemLoader {
	if path == "" {
		path = os.Getenv("SPECFORGE_PROMPT_PATH")
	}
	if path == "" {
		path = DefaultSystemPromptPath
	}
	return &SystemLoader{path: path}
}

// Load returns the normalized system prompt, reading the file on the
// first call only. A bad file poisons the loader for the process
// lifetime; reload requires a restart, which is intentional.
func (l *SystemLoader) Load() (string, error) {
	l.once.Do(func() {
		data, err := os.ReadFile(l.path)
		if err != nil {
			l.err = fmt.Errorf("%w: reading %s: %v", ErrPromptUnavailable, l.path, err)
			return
		}
		text := NormalizeMarkdown(string(data))
		if err := checkSystemPrompt(text); err != nil {
			l.err = err
			return
		}
		l.cached = text
	})
	return l.cached, l.err
}

// NormalizeMarkdown flattens prompt markdown to plain text: headings
// stripped, fence lines removed, bold markers dropped, runs of blank
// lines collapsed.
func NormalizeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = headingMarker.ReplaceAllString(out, "")
	out = boldMarker.ReplaceAllString(out, "$1")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func checkSystemPrompt(text string) error {
	if len(text) < minSystemPromptLength {
		return fmt.Errorf("%w: prompt is only %d characters", ErrPromptUnavailable, len(text))
	}
	lower := strings.ToLower(text)
	for _, term := range sentinelTerms {
		if !strings.Contains(lower, term) {
			return fmt.Errorf("%w: prompt is missing the term %q", ErrPromptUnavailable, term)
		}
	}
	return nil
}
