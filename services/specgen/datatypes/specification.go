// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the specgen service.
//
// This file contains the canonical Specification document model. A
// Specification is the structured artifact produced by the generation
// pipeline: metadata, requirements, architecture, implementation plan,
// testing plan and deployment plan, plus derived analytics attached by
// the enricher. JSON field names are camelCase because the document is
// consumed directly by browser clients and project-management exports.
package datatypes

// Complexity levels accepted in metadata and in generation requests.
const (
	ComplexitySimple  = "simple"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

// Specification is the full generated document.
//
// The six top-level groups are mandatory. Extra is the `_metadata`
// wrapper the pipeline uses for annotations such as the fallback flag;
// it is passed through validation untouched.
type Specification struct {
	Metadata       Metadata       `json:"metadata"`
	Requirements   Requirements   `json:"requirements"`
	Architecture   Architecture   `json:"architecture"`
	Implementation Implementation `json:"implementation"`
	Testing        Testing        `json:"testing"`
	Deployment     Deployment     `json:"deployment"`

	Extra map[string]any `json:"_metadata,omitempty"`
}

// Metadata describes the feature being specified.
type Metadata struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Complexity     string   `json:"complexity"`
	EstimatedHours int      `json:"estimatedHours"`
	Tags           []string `json:"tags"`
	Version        string   `json:"version"`
}

// Requirements groups functional and non-functional requirements.
// Statistics and DependencyGraph are derived fields written by the
// enricher; the LLM is not expected to produce them.
type Requirements struct {
	Functional    []FunctionalRequirement    `json:"functional"`
	NonFunctional []NonFunctionalRequirement `json:"nonFunctional"`

	Statistics      *RequirementStatistics    `json:"statistics,omitempty"`
	DependencyGraph map[string]DependencyNode `json:"dependencyGraph,omitempty"`
}

// FunctionalRequirement is one FR entry. IDs follow the FR\d{3} pattern.
type FunctionalRequirement struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Priority     string   `json:"priority"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// NonFunctionalRequirement is one NFR entry. IDs follow NFR\d{3}.
type NonFunctionalRequirement struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// Architecture groups endpoints, data models and services.
// Statistics and RelationshipsMap are derived fields.
type Architecture struct {
	APIEndpoints []APIEndpoint `json:"apiEndpoints"`
	DataModels   []DataModel   `json:"dataModels"`
	Services     []Service     `json:"services"`

	Statistics       *ArchitectureStatistics       `json:"statistics,omitempty"`
	RelationshipsMap map[string]ModelRelationships `json:"relationshipsMap,omitempty"`
}

// APIEndpoint is one EP entry.
type APIEndpoint struct {
	ID                  string       `json:"id"`
	Method              string       `json:"method"`
	Path                string       `json:"path"`
	Description         string       `json:"description"`
	Authentication      bool         `json:"authentication"`
	StatusCodes         []StatusCode `json:"statusCodes"`
	RelatedRequirements []string     `json:"relatedRequirements"`
}

// StatusCode is one expected response code of an endpoint.
type StatusCode struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// DataModel is one DM entry. Relationship targets reference other
// data models by name, not by id.
type DataModel struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Fields        []ModelField        `json:"fields"`
	Relationships []ModelRelationship `json:"relationships,omitempty"`
}

// ModelField is one field of a data model.
type ModelField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// ModelRelationship is a forward edge declared on the owning model.
// The reverse view lives only in the derived RelationshipsMap.
type ModelRelationship struct {
	Type        string `json:"type"`
	Target      string `json:"target"`
	Description string `json:"description,omitempty"`
}

// Service is one SV entry.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Implementation groups dependencies, configuration and security.
type Implementation struct {
	Dependencies  ImplementationDependencies `json:"dependencies"`
	Configuration []ConfigurationEntry       `json:"configuration,omitempty"`
	Security      SecurityPlan               `json:"security"`
}

// ImplementationDependencies splits runtime from development deps.
// Runtime must be non-empty; development is optional.
type ImplementationDependencies struct {
	Runtime     []Dependency `json:"runtime"`
	Development []Dependency `json:"development,omitempty"`
}

// Dependency is one third-party dependency of the planned feature.
type Dependency struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Purpose  string `json:"purpose"`
	Critical bool   `json:"critical"`
}

// ConfigurationEntry is one configuration option of the planned feature.
type ConfigurationEntry struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Required     bool   `json:"required"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// SecurityPlan enumerates the security posture of the planned feature.
type SecurityPlan struct {
	Authentication   string           `json:"authentication"`
	Authorization    string           `json:"authorization"`
	DataProtection   []string         `json:"dataProtection"`
	EdgeCaseHandling EdgeCaseHandling `json:"edgeCaseHandling"`
}

// EdgeCaseHandling is the edge-case sub-record of the security plan.
type EdgeCaseHandling struct {
	InputValidation string `json:"inputValidation"`
	ErrorHandling   string `json:"errorHandling"`
	RateLimiting    string `json:"rateLimiting"`
}

// Testing groups test cases and acceptance criteria.
// Statistics and RequirementCoverage are derived fields.
type Testing struct {
	TestCases          []TestCase            `json:"testCases"`
	AcceptanceCriteria []AcceptanceCriterion `json:"acceptanceCriteria"`

	Statistics          *TestingStatistics   `json:"statistics,omitempty"`
	RequirementCoverage *RequirementCoverage `json:"requirementCoverage,omitempty"`
}

// TestCase is one TC entry.
type TestCase struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Type                string   `json:"type"`
	Category            string   `json:"category"`
	Priority            string   `json:"priority"`
	Steps               []string `json:"steps"`
	ExpectedResult      string   `json:"expectedResult"`
	RelatedRequirements []string `json:"relatedRequirements"`
}

// AcceptanceCriterion is one AC entry in given/when/then form.
// RelatedRequirements is optional but feeds criteria coverage when set.
type AcceptanceCriterion struct {
	ID                  string   `json:"id"`
	Given               string   `json:"given"`
	When                string   `json:"when"`
	Then                string   `json:"then"`
	RelatedRequirements []string `json:"relatedRequirements,omitempty"`
}

// Deployment describes target environments and operations tooling.
type Deployment struct {
	Environments   []string `json:"environments"`
	Infrastructure []string `json:"infrastructure"`
	Monitoring     []string `json:"monitoring"`
}

// =============================================================================
// Derived analytics (written by the enricher, never by the LLM)
// =============================================================================

// RequirementStatistics summarizes the requirements group.
type RequirementStatistics struct {
	TotalFunctional    int      `json:"totalFunctional"`
	TotalNonFunctional int      `json:"totalNonFunctional"`
	HighPriority       int      `json:"highPriority"`
	Categories         []string `json:"categories"`
}

// DependencyNode is one vertex of the FR dependency graph: the declared
// forward edges plus the derived reverse edges.
type DependencyNode struct {
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

// ArchitectureStatistics summarizes the architecture group.
type ArchitectureStatistics struct {
	TotalEndpoints         int            `json:"totalEndpoints"`
	MethodsDistribution    map[string]int `json:"methodsDistribution"`
	AuthenticatedEndpoints int            `json:"authenticatedEndpoints"`
	TotalModels            int            `json:"totalModels"`
	TotalServices          int            `json:"totalServices"`
}

// ModelRelationships is the bidirectional view of one data model's
// relationships. Outgoing repeats the declared edges; Incoming is
// derived from the other models' declarations.
type ModelRelationships struct {
	Outgoing []ModelRelationship    `json:"outgoing"`
	Incoming []IncomingRelationship `json:"incoming"`
}

// IncomingRelationship is a reverse edge pointing at the map key model.
type IncomingRelationship struct {
	From        string `json:"from"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// TestingStatistics summarizes the testing group.
type TestingStatistics struct {
	TotalTestCases          int            `json:"totalTestCases"`
	TotalAcceptanceCriteria int            `json:"totalAcceptanceCriteria"`
	TypesDistribution       map[string]int `json:"typesDistribution"`
	PrioritiesDistribution  map[string]int `json:"prioritiesDistribution"`
	EdgeCaseTests           int            `json:"edgeCaseTests"`
}

// RequirementCoverage reports which requirements are exercised by at
// least one test case or acceptance criterion.
type RequirementCoverage struct {
	Total                 int      `json:"total"`
	Covered               int      `json:"covered"`
	Uncovered             int      `json:"uncovered"`
	CoveragePercentage    int      `json:"coveragePercentage"`
	UncoveredRequirements []string `json:"uncoveredRequirements"`
	TestCoverage          int      `json:"testCoverage"`
	CriteriaCoverage      int      `json:"criteriaCoverage"`
}
