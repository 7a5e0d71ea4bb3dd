// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package enrich

import (
	"reflect"
	"strings"
	"testing"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
)

func sampleSpec() *datatypes.Specification {
	return &datatypes.Specification{
		Metadata: datatypes.Metadata{
			Name: "sample", Description: "sample spec", Complexity: "medium",
			EstimatedHours: 24, Version: "1.0.0",
		},
		Requirements: datatypes.Requirements{
			Functional: []datatypes.FunctionalRequirement{
				{ID: "FR001", Title: "List", Description: "list things", Priority: "high"},
				{ID: "FR002", Title: "Create", Description: "create things", Priority: "medium",
					Dependencies: []string{"FR001"}},
				{ID: "FR003", Title: "Delete", Description: "delete things", Priority: "high",
					Dependencies: []string{"FR001"}},
			},
			NonFunctional: []datatypes.NonFunctionalRequirement{
				{ID: "NFR001", Category: "performance", Description: "fast lists", Priority: "high"},
				{ID: "NFR002", Category: "security", Description: "audit trail", Priority: "low"},
			},
		},
		Architecture: datatypes.Architecture{
			APIEndpoints: []datatypes.APIEndpoint{
				{ID: "EP001", Method: "GET", Path: "/api/things", Description: "list",
					Authentication:      true,
					StatusCodes:         []datatypes.StatusCode{{Code: 200, Description: "ok"}},
					RelatedRequirements: []string{"FR001"}},
				{ID: "EP002", Method: "POST", Path: "/api/things", Description: "create",
					Authentication:      true,
					StatusCodes:         []datatypes.StatusCode{{Code: 201, Description: "created"}},
					RelatedRequirements: []string{"FR002"}},
				{ID: "EP003", Method: "GET", Path: "/api/things/:id", Description: "read",
					Authentication:      false,
					StatusCodes:         []datatypes.StatusCode{{Code: 200, Description: "ok"}},
					RelatedRequirements: []string{"FR001"}},
			},
			DataModels: []datatypes.DataModel{
				{ID: "DM001", Name: "Thing", Description: "a thing",
					Fields: []datatypes.ModelField{{Name: "id", Type: "string", Required: true}},
					Relationships: []datatypes.ModelRelationship{
						{Type: "one-to-many", Target: "Tag", Description: "thing tags"},
					}},
				{ID: "DM002", Name: "Tag", Description: "a tag",
					Fields: []datatypes.ModelField{{Name: "label", Type: "string", Required: true}}},
			},
			Services: []datatypes.Service{
				{ID: "SV001", Name: "ThingService", Type: "internal", Description: "thing logic"},
			},
		},
		Testing: datatypes.Testing{
			TestCases: []datatypes.TestCase{
				{ID: "TC001", Title: "list happy path", Type: "unit", Category: "happy_path",
					Priority: "high", Steps: []string{"call"}, ExpectedResult: "ok",
					RelatedRequirements: []string{"FR001", "NFR001"}},
				{ID: "TC002", Title: "create edge", Type: "integration", Category: "edge_case",
					Priority: "medium", Steps: []string{"call"}, ExpectedResult: "ok",
					RelatedRequirements: []string{"FR002"}},
			},
			AcceptanceCriteria: []datatypes.AcceptanceCriterion{
				{ID: "AC001", Given: "a thing", When: "it is deleted", Then: "it is gone",
					RelatedRequirements: []string{"FR003"}},
			},
		},
	}
}

func TestEnrich_RequirementStatistics(t *testing.T) {
	spec := sampleSpec()
	Enrich(spec)

	stats := spec.Requirements.Statistics
	if stats == nil {
		t.Fatal("requirement statistics not derived")
	}
	if stats.TotalFunctional != 3 || stats.TotalNonFunctional != 2 {
		t.Errorf("totals = %d/%d, want 3/2", stats.TotalFunctional, stats.TotalNonFunctional)
	}
	if stats.HighPriority != 3 {
		t.Errorf("highPriority = %d, want 3 (FR001, FR003, NFR001)", stats.HighPriority)
	}
	if !reflect.DeepEqual(stats.Categories, []string{"performance", "security"}) {
		t.Errorf("categories = %v, want sorted [performance security]", stats.Categories)
	}
}

func TestEnrich_DependencyGraph(t *testing.T) {
	spec := sampleSpec()
	Enrich(spec)

	graph := spec.Requirements.DependencyGraph
	if len(graph) != 3 {
		t.Fatalf("graph has %d nodes, want 3", len(graph))
	}

	root := graph["FR001"]
	if len(root.Dependencies) != 0 {
		t.Errorf("FR001 dependencies = %v, want empty", root.Dependencies)
	}
	if !reflect.DeepEqual(root.Dependents, []string{"FR002", "FR003"}) {
		t.Errorf("FR001 dependents = %v, want [FR002 FR003]", root.Dependents)
	}

	leaf := graph["FR002"]
	if !reflect.DeepEqual(leaf.Dependencies, []string{"FR001"}) {
		t.Errorf("FR002 dependencies = %v", leaf.Dependencies)
	}
	if len(leaf.Dependents) != 0 {
		t.Errorf("FR002 dependents = %v, want empty", leaf.Dependents)
	}
}

func TestEnrich_ArchitectureStatistics(t *testing.T) {
	spec := sampleSpec()
	Enrich(spec)

	stats := spec.Architecture.Statistics
	if stats == nil {
		t.Fatal("architecture statistics not derived")
	}
	if stats.TotalEndpoints != 3 || stats.TotalModels != 2 || stats.TotalServices != 1 {
		t.Errorf("totals = %d/%d/%d, want 3/2/1",
			stats.TotalEndpoints, stats.TotalModels, stats.TotalServices)
	}
	if stats.MethodsDistribution["GET"] != 2 || stats.MethodsDistribution["POST"] != 1 {
		t.Errorf("methodsDistribution = %v", stats.MethodsDistribution)
	}
	if stats.AuthenticatedEndpoints != 2 {
		t.Errorf("authenticatedEndpoints = %d, want 2", stats.AuthenticatedEndpoints)
	}
}

func TestEnrich_RelationshipsMap(t *testing.T) {
	spec := sampleSpec()
	Enrich(spec)

	views := spec.Architecture.RelationshipsMap
	thing, ok := views["Thing"]
	if !ok {
		t.Fatal("no view for Thing")
	}
	if len(thing.Outgoing) != 1 || thing.Outgoing[0].Target != "Tag" {
		t.Errorf("Thing outgoing = %v", thing.Outgoing)
	}
	if len(thing.Incoming) != 0 {
		t.Errorf("Thing incoming = %v, want empty", thing.Incoming)
	}

	tag := views["Tag"]
	if len(tag.Incoming) != 1 || tag.Incoming[0].From != "Thing" || tag.Incoming[0].Type != "one-to-many" {
		t.Errorf("Tag incoming = %v", tag.Incoming)
	}
	if len(tag.Outgoing) != 0 {
		t.Errorf("Tag outgoing = %v, want empty", tag.Outgoing)
	}
}

func TestEnrich_TestingStatisticsAndCoverage(t *testing.T) {
	spec := sampleSpec()
	Enrich(spec)

	stats := spec.Testing.Statistics
	if stats == nil {
		t.Fatal("testing statistics not derived")
	}
	if stats.TotalTestCases != 2 || stats.TotalAcceptanceCriteria != 1 {
		t.Errorf("totals = %d/%d, want 2/1", stats.TotalTestCases, stats.TotalAcceptanceCriteria)
	}
	if stats.EdgeCaseTests != 1 {
		t.Errorf("edgeCaseTests = %d, want 1", stats.EdgeCaseTests)
	}

	cov := spec.Testing.RequirementCoverage
	if cov == nil {
		t.Fatal("coverage not derived")
	}
	// Universe: FR001-3 + NFR001-2 = 5. Tests cover FR001, FR002,
	// NFR001; criteria cover FR003. NFR002 stays uncovered.
	if cov.Total != 5 || cov.Covered != 4 || cov.Uncovered != 1 {
		t.Errorf("coverage = %d/%d/%d, want 5/4/1", cov.Total, cov.Covered, cov.Uncovered)
	}
	if cov.CoveragePercentage != 80 {
		t.Errorf("coveragePercentage = %d, want 80", cov.CoveragePercentage)
	}
	if cov.TestCoverage != 60 {
		t.Errorf("testCoverage = %d, want 60 (3 of 5)", cov.TestCoverage)
	}
	if cov.CriteriaCoverage != 20 {
		t.Errorf("criteriaCoverage = %d, want 20 (1 of 5)", cov.CriteriaCoverage)
	}
	if !reflect.DeepEqual(cov.UncoveredRequirements, []string{"NFR002"}) {
		t.Errorf("uncoveredRequirements = %v, want [NFR002]", cov.UncoveredRequirements)
	}
}

func TestEnrich_DanglingReferencesIgnoredInCoverage(t *testing.T) {
	spec := sampleSpec()
	spec.Testing.TestCases[0].RelatedRequirements = append(
		spec.Testing.TestCases[0].RelatedRequirements, "FR999")
	Enrich(spec)

	cov := spec.Testing.RequirementCoverage
	if cov.Total != 5 || cov.Covered != 4 {
		t.Errorf("unknown references must not inflate coverage: %d/%d", cov.Covered, cov.Total)
	}
}

func TestEnrich_EmptyUniverse(t *testing.T) {
	spec := &datatypes.Specification{}
	Enrich(spec)

	cov := spec.Testing.RequirementCoverage
	if cov.Total != 0 || cov.CoveragePercentage != 0 {
		t.Errorf("empty universe coverage = %+v, want zeros", cov)
	}
	if cov.UncoveredRequirements == nil {
		t.Error("uncoveredRequirements must be an empty slice, not nil")
	}
}

func TestEnrich_Idempotent(t *testing.T) {
	first := sampleSpec()
	Enrich(first)

	second := sampleSpec()
	Enrich(second)
	Enrich(second)

	if !reflect.DeepEqual(first, second) {
		t.Error("enriching twice diverges from enriching once")
	}
}

func TestEnrich_Warnings(t *testing.T) {
	spec := sampleSpec()
	// FR003 is high priority; dropping its acceptance criterion leaves
	// it uncovered. EP003 losing its requirement link warns too.
	spec.Testing.AcceptanceCriteria = nil
	spec.Architecture.APIEndpoints[2].RelatedRequirements = nil

	warnings := Enrich(spec)
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2 entries", warnings)
	}
	if !strings.Contains(warnings[0], "FR003") {
		t.Errorf("first warning should name FR003: %q", warnings[0])
	}
	if !strings.Contains(warnings[1], "EP003") {
		t.Errorf("second warning should name EP003: %q", warnings[1])
	}
}
