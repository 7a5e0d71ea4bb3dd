// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package enrich derives read-only analytics over a validated
// specification: statistics, the bidirectional dependency and
// relationship views, and requirement coverage.
//
// Every derivation reads only the authoritative lists (functional
// requirements, endpoints, models, tests), never the derived fields,
// so enrichment is idempotent: enriching twice yields the same result.
package enrich

import (
	"log/slog"
	"math"
	"sort"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
)

// Enrich computes the derived fields of spec in place and returns the
// non-fatal consistency warnings it found along the way. Warnings are
// logged but never fail the pipeline.
func Enrich(spec *datatypes.Specification) []string {
	enrichRequirements(spec)
	enrichArchitecture(spec)
	enrichTesting(spec)

	warnings := consistencyWarnings(spec)
	for _, w := range warnings {
		slog.Warn("specification consistency warning", "warning", w)
	}
	return warnings
}

func enrichRequirements(spec *datatypes.Specification) {
	high := 0
	categories := make(map[string]bool)
	for _, fr := range spec.Requirements.Functional {
		if fr.Priority == "high" {
			high++
		}
	}
	for _, nfr := range spec.Requirements.NonFunctional {
		if nfr.Priority == "high" {
			high++
		}
		categories[nfr.Category] = true
	}

	spec.Requirements.Statistics = &datatypes.RequirementStatistics{
		TotalFunctional:    len(spec.Requirements.Functional),
		TotalNonFunctional: len(spec.Requirements.NonFunctional),
		HighPriority:       high,
		Categories:         sortedKeys(categories),
	}
	spec.Requirements.DependencyGraph = buildDependencyGraph(spec.Requirements.Functional)
}

// buildDependencyGraph derives the bidirectional FR graph in two
// passes: forward edges as declared, then reverse edges. Only the
// forward direction is authoritative; the reverse view exists only
// here.
func buildDependencyGraph(functional []datatypes.FunctionalRequirement) map[string]datatypes.DependencyNode {
	graph := make(map[string]datatypes.DependencyNode, len(functional))

	for _, fr := range functional {
		deps := make([]string, 0, len(fr.Dependencies))
		deps = append(deps, fr.Dependencies...)
		graph[fr.ID] = datatypes.DependencyNode{
			Dependencies: deps,
			Dependents:   make([]string, 0),
		}
	}

	for _, fr := range functional {
		for _, dep := range fr.Dependencies {
			node, ok := graph[dep]
			if !ok {
				continue
			}
			node.Dependents = append(node.Dependents, fr.ID)
			graph[dep] = node
		}
	}
	return graph
}

func enrichArchitecture(spec *datatypes.Specification) {
	methods := make(map[string]int)
	authenticated := 0
	for _, ep := range spec.Architecture.APIEndpoints {
		methods[ep.Method]++
		if ep.Authentication {
			authenticated++
		}
	}

	spec.Architecture.Statistics = &datatypes.ArchitectureStatistics{
		TotalEndpoints:         len(spec.Architecture.APIEndpoints),
		MethodsDistribution:    methods,
		AuthenticatedEndpoints: authenticated,
		TotalModels:            len(spec.Architecture.DataModels),
		TotalServices:          len(spec.Architecture.Services),
	}
	spec.Architecture.RelationshipsMap = buildRelationshipsMap(spec.Architecture.DataModels)
}

// buildRelationshipsMap derives the bidirectional model view. Outgoing
// repeats the declared edges; incoming is derived from the other
// models' declarations.
func buildRelationshipsMap(models []datatypes.DataModel) map[string]datatypes.ModelRelationships {
	views := make(map[string]datatypes.ModelRelationships, len(models))

	for _, dm := range models {
		out := make([]datatypes.ModelRelationship, 0, len(dm.Relationships))
		out = append(out, dm.Relationships...)
		views[dm.Name] = datatypes.ModelRelationships{
			Outgoing: out,
			Incoming: make([]datatypes.IncomingRelationship, 0),
		}
	}

	for _, dm := range models {
		for _, rel := range dm.Relationships {
			view, ok := views[rel.Target]
			if !ok {
				continue
			}
			view.Incoming = append(view.Incoming, datatypes.IncomingRelationship{
				From:        dm.Name,
				Type:        rel.Type,
				Description: rel.Description,
			})
			views[rel.Target] = view
		}
	}
	return views
}

func enrichTesting(spec *datatypes.Specification) {
	types := make(map[string]int)
	priorities := make(map[string]int)
	edgeCases := 0
	for _, tc := range spec.Testing.TestCases {
		types[tc.Type]++
		priorities[tc.Priority]++
		if tc.Type == "edge_case" || tc.Category == "edge_case" {
			edgeCases++
		}
	}

	spec.Testing.Statistics = &datatypes.TestingStatistics{
		TotalTestCases:          len(spec.Testing.TestCases),
		TotalAcceptanceCriteria: len(spec.Testing.AcceptanceCriteria),
		TypesDistribution:       types,
		PrioritiesDistribution:  priorities,
		EdgeCaseTests:           edgeCases,
	}
	spec.Testing.RequirementCoverage = buildCoverage(spec)
}

// buildCoverage computes requirement coverage from the union of
// test-case and acceptance-criterion references.
func buildCoverage(spec *datatypes.Specification) *datatypes.RequirementCoverage {
	all := make(map[string]bool)
	for _, fr := range spec.Requirements.Functional {
		all[fr.ID] = true
	}
	for _, nfr := range spec.Requirements.NonFunctional {
		all[nfr.ID] = true
	}

	testRefs := make(map[string]bool)
	for _, tc := range spec.Testing.TestCases {
		for _, ref := range tc.RelatedRequirements {
			if all[ref] {
				testRefs[ref] = true
			}
		}
	}
	criteriaRefs := make(map[string]bool)
	for _, ac := range spec.Testing.AcceptanceCriteria {
		for _, ref := range ac.RelatedRequirements {
			if all[ref] {
				criteriaRefs[ref] = true
			}
		}
	}

	covered := make(map[string]bool, len(testRefs))
	for id := range testRefs {
		covered[id] = true
	}
	for id := range criteriaRefs {
		covered[id] = true
	}

	uncovered := make([]string, 0)
	for id := range all {
		if !covered[id] {
			uncovered = append(uncovered, id)
		}
	}
	sort.Strings(uncovered)

	return &datatypes.RequirementCoverage{
		Total:                 len(all),
		Covered:               len(covered),
		Uncovered:             len(uncovered),
		CoveragePercentage:    percentage(len(covered), len(all)),
		UncoveredRequirements: uncovered,
		TestCoverage:          percentage(len(testRefs), len(all)),
		CriteriaCoverage:      percentage(len(criteriaRefs), len(all)),
	}
}

// percentage rounds to the nearest integer; an empty universe is 0,
// not a division error.
func percentage(covered, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(covered) / float64(total)))
}

// consistencyWarnings reports soft issues: high-priority functional
// requirements nothing tests, and endpoints tied to no requirement.
func consistencyWarnings(spec *datatypes.Specification) []string {
	covered := make(map[string]bool)
	for _, tc := range spec.Testing.TestCases {
		for _, ref := range tc.RelatedRequirements {
			covered[ref] = true
		}
	}
	for _, ac := range spec.Testing.AcceptanceCriteria {
		for _, ref := range ac.RelatedRequirements {
			covered[ref] = true
		}
	}

	var warnings []string
	for _, fr := range spec.Requirements.Functional {
		if fr.Priority == "high" && !covered[fr.ID] {
			warnings = append(warnings,
				"high-priority requirement "+fr.ID+" is not covered by any test case or acceptance criterion")
		}
	}
	for _, ep := range spec.Architecture.APIEndpoints {
		if len(ep.RelatedRequirements) == 0 {
			warnings = append(warnings, "endpoint "+ep.ID+" is not related to any requirement")
		}
	}
	return warnings
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
