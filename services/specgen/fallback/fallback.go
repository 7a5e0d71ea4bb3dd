// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fallback builds the deterministic minimal specification used
// when the LLM pipeline fails. Self-consistency is a hard contract:
// the generated document must pass the full schema validator,
// including the hours-vs-complexity band and every referential rule.
package fallback

import (
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
)

// Hours assigned per requested complexity. Each value sits inside the
// validator's band for its complexity; 40 is the inclusive lower
// boundary of the complex band.
const (
	simpleHours  = 8
	mediumHours  = 16
	complexHours = 40
)

// maxNameLength caps how much of the description is reused as the
// specification name.
const maxNameLength = 60

// Generate returns a minimal specification for the request: one
// functional requirement, one endpoint and one test case, wired
// together, plus the minimum required content of every other group.
// The wrapper metadata is tagged with fallback = true.
func Generate(req datatypes.GenerateRequest) *datatypes.Specification {
	hours := mediumHours
	complexity := req.Complexity
	switch complexity {
	case datatypes.ComplexitySimple:
		hours = simpleHours
	case datatypes.ComplexityComplex:
		hours = complexHours
	case datatypes.ComplexityMedium:
		hours = mediumHours
	default:
		complexity = datatypes.ComplexityMedium
	}

	return &datatypes.Specification{
		Metadata: datatypes.Metadata{
			Name:           specName(req.Description),
			Description:    req.Description,
			Complexity:     complexity,
			EstimatedHours: hours,
			Tags:           []string{"fallback", "auto-generated"},
			Version:        "1.0.0",
		},
		Requirements: datatypes.Requirements{
			Functional: []datatypes.FunctionalRequirement{
				{
					ID:          "FR001",
					Title:       "Implement the described feature",
					Description: req.Description,
					Priority:    "high",
				},
			},
			NonFunctional: []datatypes.NonFunctionalRequirement{},
		},
		Architecture: datatypes.Architecture{
			APIEndpoints: []datatypes.APIEndpoint{
				{
					ID:             "EP001",
					Method:         "POST",
					Path:           "/api/feature",
					Description:    "Entry point for the described feature",
					Authentication: true,
					StatusCodes: []datatypes.StatusCode{
						{Code: 200, Description: "Success"},
						{Code: 400, Description: "Invalid request"},
					},
					RelatedRequirements: []string{"FR001"},
				},
			},
			DataModels: []datatypes.DataModel{},
			Services:   []datatypes.Service{},
		},
		Implementation: datatypes.Implementation{
			Dependencies: datatypes.ImplementationDependencies{
				Runtime: []datatypes.Dependency{
					{Name: "runtime-framework", Version: "latest", Purpose: "application runtime", Critical: true},
				},
			},
			Security: datatypes.SecurityPlan{
				Authentication: "session-based authentication",
				Authorization:  "role-based access control",
				DataProtection: []string{"input sanitization", "encryption at rest"},
				EdgeCaseHandling: datatypes.EdgeCaseHandling{
					InputValidation: "validate all request fields",
					ErrorHandling:   "structured error responses",
					RateLimiting:    "per-client request limits",
				},
			},
		},
		Testing: datatypes.Testing{
			TestCases: []datatypes.TestCase{
				{
					ID:                  "TC001",
					Title:               "Feature happy path",
					Type:                "integration",
					Category:            "happy_path",
					Priority:            "high",
					Steps:               []string{"Send a valid request to the feature endpoint", "Inspect the response"},
					ExpectedResult:      "The endpoint answers with status 200",
					RelatedRequirements: []string{"FR001"},
				},
			},
			AcceptanceCriteria: []datatypes.AcceptanceCriterion{},
		},
		Deployment: datatypes.Deployment{
			Environments:   []string{"development", "staging", "production"},
			Infrastructure: []string{"container runtime"},
			Monitoring:     []string{"structured logs", "request metrics"},
		},
		Extra: map[string]any{"fallback": true},
	}
}

// specName derives a short name from the description. The cut point
// always lands on a word break or a rune boundary, never inside a
// multi-byte character.
func specName(description string) string {
	name := strings.TrimSpace(description)
	if len(name) > maxNameLength {
		cut := strings.LastIndex(name[:maxNameLength], " ")
		if cut <= 0 {
			cut = maxNameLength
			for cut > 0 && !utf8.RuneStart(name[cut]) {
				cut--
			}
		}
		name = name[:cut]
	}
	if name == "" {
		name = "Generated feature"
	}
	return name
}
