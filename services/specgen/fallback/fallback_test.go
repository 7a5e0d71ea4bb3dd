// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fallback

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
	"github.com/AleutianAI/SpecForge/services/specgen/enrich"
	"github.com/AleutianAI/SpecForge/services/specgen/schema"
)

func request(complexity string) datatypes.GenerateRequest {
	return datatypes.GenerateRequest{
		Description: "A feature the model could not specify",
		Language:    datatypes.DefaultLanguage,
		Complexity:  complexity,
	}
}

func TestGenerate_PassesFullValidation(t *testing.T) {
	for _, complexity := range []string{"simple", "medium", "complex", ""} {
		t.Run("complexity "+complexity, func(t *testing.T) {
			spec := Generate(request(complexity))
			report, err := schema.ValidateSpec(spec)
			if err != nil {
				t.Fatalf("fallback document fails validation: %+v", report)
			}
		})
	}
}

func TestGenerate_EnrichedStillValid(t *testing.T) {
	spec := Generate(request("medium"))
	enrich.Enrich(spec)
	if report, err := schema.ValidateSpec(spec); err != nil {
		t.Fatalf("enriched fallback document fails validation: %+v", report)
	}
}

func TestGenerate_HoursPerComplexity(t *testing.T) {
	tests := []struct {
		complexity string
		wantHours  int
		wantLabel  string
	}{
		{"simple", 8, "simple"},
		{"medium", 16, "medium"},
		{"complex", 40, "complex"},
		{"", 16, "medium"},
	}

	for _, tt := range tests {
		spec := Generate(request(tt.complexity))
		if spec.Metadata.EstimatedHours != tt.wantHours {
			t.Errorf("complexity %q: hours = %d, want %d",
				tt.complexity, spec.Metadata.EstimatedHours, tt.wantHours)
		}
		if spec.Metadata.Complexity != tt.wantLabel {
			t.Errorf("complexity %q: label = %q, want %q",
				tt.complexity, spec.Metadata.Complexity, tt.wantLabel)
		}
	}
}

func TestGenerate_FallbackTagged(t *testing.T) {
	spec := Generate(request("medium"))
	if spec.Extra["fallback"] != true {
		t.Errorf("wrapper metadata missing the fallback tag: %v", spec.Extra)
	}
}

func TestGenerate_Wiring(t *testing.T) {
	spec := Generate(request("medium"))

	if len(spec.Requirements.Functional) != 1 || spec.Requirements.Functional[0].ID != "FR001" {
		t.Fatalf("functional requirements = %+v", spec.Requirements.Functional)
	}
	ep := spec.Architecture.APIEndpoints[0]
	if ep.Method != "POST" || ep.Path != "/api/feature" {
		t.Errorf("endpoint = %s %s, want POST /api/feature", ep.Method, ep.Path)
	}
	if len(ep.RelatedRequirements) != 1 || ep.RelatedRequirements[0] != "FR001" {
		t.Errorf("endpoint references = %v, want [FR001]", ep.RelatedRequirements)
	}
	tc := spec.Testing.TestCases[0]
	if len(tc.RelatedRequirements) != 1 || tc.RelatedRequirements[0] != "FR001" {
		t.Errorf("test case references = %v, want [FR001]", tc.RelatedRequirements)
	}
}

func TestGenerate_DescriptionCarried(t *testing.T) {
	req := request("medium")
	spec := Generate(req)
	if spec.Metadata.Description != req.Description {
		t.Errorf("description = %q", spec.Metadata.Description)
	}
	if spec.Requirements.Functional[0].Description != req.Description {
		t.Errorf("requirement description = %q", spec.Requirements.Functional[0].Description)
	}
}

func TestSpecName(t *testing.T) {
	long := strings.Repeat("gestione ", 12) + "utenti"
	tests := []struct {
		name string
		in   string
	}{
		{"short stays intact", "User management"},
		{"long is truncated", long},
		{"empty gets a default", "   "},
		{"accented without spaces", "v" + strings.Repeat("à", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := specName(tt.in)
			if got == "" {
				t.Fatal("name must never be empty")
			}
			if len(got) > maxNameLength {
				t.Errorf("name %q longer than %d", got, maxNameLength)
			}
			if !utf8.ValidString(got) {
				t.Errorf("name %q is not valid UTF-8", got)
			}
			if strings.TrimSpace(tt.in) != "" && !strings.HasPrefix(strings.TrimSpace(tt.in), got) {
				t.Errorf("name %q is not a prefix of the description", got)
			}
		})
	}
}
