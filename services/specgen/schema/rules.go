// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Business rules over the typed document: cross-references and
// invariants the structural pass cannot see. Each rule is a predicate
// returning its violations; rules never abort each other.
package schema

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
)

// Hours bands per complexity. The boundaries are inclusive on both
// sides, so 16 is valid for simple and medium, 40 for medium and complex.
const (
	simpleMaxHours  = 16
	mediumMinHours  = 16
	mediumMaxHours  = 40
	complexMinHours = 40
)

type rule func(*datatypes.Specification) []string

var businessRules = []rule{
	ruleUniqueIDs,
	ruleRequirementReferences,
	ruleModelTargets,
	ruleMinimumContent,
	ruleHoursBand,
}

func applyRules(spec *datatypes.Specification) []string {
	var violations []string
	for _, r := range businessRules {
		violations = append(violations, r(spec)...)
	}
	return violations
}

// collectIDs walks every identified entry in document order.
func collectIDs(spec *datatypes.Specification) []string {
	var ids []string
	for _, fr := range spec.Requirements.Functional {
		ids = append(ids, fr.ID)
	}
	for _, nfr := range spec.Requirements.NonFunctional {
		ids = append(ids, nfr.ID)
	}
	for _, ep := range spec.Architecture.APIEndpoints {
		ids = append(ids, ep.ID)
	}
	for _, dm := range spec.Architecture.DataModels {
		ids = append(ids, dm.ID)
	}
	for _, sv := range spec.Architecture.Services {
		ids = append(ids, sv.ID)
	}
	for _, tc := range spec.Testing.TestCases {
		ids = append(ids, tc.ID)
	}
	for _, ac := range spec.Testing.AcceptanceCriteria {
		ids = append(ids, ac.ID)
	}
	return ids
}

// ruleUniqueIDs enforces uniqueness across the global ID set, not just
// within one kind: an FR and a service may not share an ID either.
func ruleUniqueIDs(spec *datatypes.Specification) []string {
	seen := make(map[string]bool)
	var violations []string
	for _, id := range collectIDs(spec) {
		if id == "" {
			continue
		}
		if seen[id] {
			violations = append(violations, fmt.Sprintf("duplicate id %q in the global id set", id))
			continue
		}
		seen[id] = true
	}
	return violations
}

// requirementIDSet is the FR union NFR reference target set.
func requirementIDSet(spec *datatypes.Specification) map[string]bool {
	set := make(map[string]bool)
	for _, fr := range spec.Requirements.Functional {
		set[fr.ID] = true
	}
	for _, nfr := range spec.Requirements.NonFunctional {
		set[nfr.ID] = true
	}
	return set
}

// ruleRequirementReferences checks every reference to a requirement:
// FR dependencies must name existing FRs, while endpoint, test case and
// acceptance criterion references may name any FR or NFR.
func ruleRequirementReferences(spec *datatypes.Specification) []string {
	frSet := make(map[string]bool)
	for _, fr := range spec.Requirements.Functional {
		frSet[fr.ID] = true
	}
	refSet := requirementIDSet(spec)

	var violations []string
	for _, fr := range spec.Requirements.Functional {
		for _, dep := range fr.Dependencies {
			if !frSet[dep] {
				violations = append(violations, fmt.Sprintf(
					"functional requirement %s depends on unknown requirement %q", fr.ID, dep))
			}
		}
	}
	for _, ep := range spec.Architecture.APIEndpoints {
		for _, ref := range ep.RelatedRequirements {
			if !refSet[ref] {
				violations = append(violations, fmt.Sprintf(
					"endpoint %s references unknown requirement %q", ep.ID, ref))
			}
		}
	}
	for _, tc := range spec.Testing.TestCases {
		for _, ref := range tc.RelatedRequirements {
			if !refSet[ref] {
				violations = append(violations, fmt.Sprintf(
					"test case %s references unknown requirement %q", tc.ID, ref))
			}
		}
	}
	for _, ac := range spec.Testing.AcceptanceCriteria {
		for _, ref := range ac.RelatedRequirements {
			if !refSet[ref] {
				violations = append(violations, fmt.Sprintf(
					"acceptance criterion %s references unknown requirement %q", ac.ID, ref))
			}
		}
	}
	return violations
}

// ruleModelTargets checks that every declared relationship points at an
// existing data model by name.
func ruleModelTargets(spec *datatypes.Specification) []string {
	names := make(map[string]bool)
	for _, dm := range spec.Architecture.DataModels {
		names[dm.Name] = true
	}

	var violations []string
	for _, dm := range spec.Architecture.DataModels {
		for _, rel := range dm.Relationships {
			if !names[rel.Target] {
				violations = append(violations, fmt.Sprintf(
					"data model %s declares a relationship to unknown model %q", dm.Name, rel.Target))
			}
		}
	}
	return violations
}

// ruleMinimumContent enforces the minimum useful document: at least one
// functional requirement, one endpoint and one test case.
func ruleMinimumContent(spec *datatypes.Specification) []string {
	var violations []string
	if len(spec.Requirements.Functional) == 0 {
		violations = append(violations, "at least one functional requirement is required")
	}
	if len(spec.Architecture.APIEndpoints) == 0 {
		violations = append(violations, "at least one api endpoint is required")
	}
	if len(spec.Testing.TestCases) == 0 {
		violations = append(violations, "at least one test case is required")
	}
	return violations
}

// ruleHoursBand ties the hours estimate to the declared complexity.
func ruleHoursBand(spec *datatypes.Specification) []string {
	hours := spec.Metadata.EstimatedHours
	switch spec.Metadata.Complexity {
	case datatypes.ComplexitySimple:
		if hours > simpleMaxHours {
			return []string{fmt.Sprintf(
				"estimatedHours %d exceeds the simple complexity limit of %d", hours, simpleMaxHours)}
		}
	case datatypes.ComplexityMedium:
		if hours < mediumMinHours || hours > mediumMaxHours {
			return []string{fmt.Sprintf(
				"estimatedHours %d is outside the medium complexity band [%d, %d]",
				hours, mediumMinHours, mediumMaxHours)}
		}
	case datatypes.ComplexityComplex:
		if hours < complexMinHours {
			return []string{fmt.Sprintf(
				"estimatedHours %d is below the complex complexity minimum of %d", hours, complexMinHours)}
		}
	}
	return nil
}

// SortedRequirementIDs returns the FR union NFR set in stable order.
// Shared with the enricher for coverage math.
func SortedRequirementIDs(spec *datatypes.Specification) []string {
	set := requirementIDSet(spec)
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
