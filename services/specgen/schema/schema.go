// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema validates candidate specification documents.
//
// # Description
//
// Validation runs in two passes. The structural pass walks the raw
// decoded JSON against a declarative field schema (types, enums, ID
// patterns, non-emptiness) and collects every mismatch instead of
// stopping at the first. The business pass then checks cross-reference
// and invariant rules (global ID uniqueness, referential integrity,
// hours-vs-complexity) over the typed document.
//
// The schema is data, not code: each field is a record describing its
// kind and constraints. Derived analytics written by the enricher are
// part of the schema as optional members, so an enriched document is
// itself a valid document.
//
// # Thread Safety
//
// The schema tables are built once at init and never mutated; all
// entry points are safe for concurrent use.
package schema

import "regexp"

// Kind is the JSON shape a field must have.
type Kind int

const (
	KindObject Kind = iota
	KindString
	KindInt
	KindBool
	KindArray
	// KindAny accepts any JSON value without descending into it.
	// Used for the `_metadata` passthrough.
	KindAny
)

// Field is one declarative schema record.
type Field struct {
	// Name is the JSON key. Empty for array elements.
	Name string

	// Kind is the expected JSON shape.
	Kind Kind

	// Required marks the field as mandatory in its parent object.
	Required bool

	// NonEmpty forbids blank strings and zero-length arrays.
	NonEmpty bool

	// Enum restricts a string to a fixed value set.
	Enum []string

	// Pattern restricts a string to a regular expression (full match).
	Pattern *regexp.Regexp

	// Min and Max bound an integer when Bounded is set.
	Min, Max int
	Bounded  bool

	// Fields are the members of an object field.
	Fields []Field

	// FreeKeys validates an object with arbitrary keys: every value is
	// checked against this element schema. Used for distribution maps
	// and the derived graph views.
	FreeKeys *Field

	// Elem is the element schema of an array field.
	Elem *Field
}

// ID patterns. Anchored so a prefix match cannot slip through.
var (
	frIDPattern  = regexp.MustCompile(`^FR\d{3}$`)
	nfrIDPattern = regexp.MustCompile(`^NFR\d{3}$`)
	epIDPattern  = regexp.MustCompile(`^EP\d{3}$`)
	dmIDPattern  = regexp.MustCompile(`^DM\d{3}$`)
	svIDPattern  = regexp.MustCompile(`^SV\d{3}$`)
	tcIDPattern  = regexp.MustCompile(`^TC\d{3}$`)
	acIDPattern  = regexp.MustCompile(`^AC\d{3}$`)

	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	apiPathPattern = regexp.MustCompile(`^/api/.*$`)

	// anyIDPattern recognizes every well-formed ID regardless of kind.
	anyIDPattern = regexp.MustCompile(`^(FR|NFR|EP|DM|SV|TC|AC)\d{3}$`)
)

// Enumerations from the domain model.
var (
	complexityEnum = []string{"simple", "medium", "complex"}
	priorityEnum   = []string{"high", "medium", "low"}
	categoryEnum   = []string{"performance", "security", "usability", "reliability", "scalability", "maintainability"}
	methodEnum     = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}
	serviceEnum    = []string{"internal", "external", "database", "cache", "queue"}
	testTypeEnum   = []string{"unit", "integration", "e2e", "performance", "security", "edge_case"}
	testCatEnum    = []string{"happy_path", "edge_case", "error_handling", "boundary_test", "security_test"}
)

func str(name string, required, nonEmpty bool) Field {
	return Field{Name: name, Kind: KindString, Required: required, NonEmpty: nonEmpty}
}

func strEnum(name string, required bool, enum []string) Field {
	return Field{Name: name, Kind: KindString, Required: required, NonEmpty: true, Enum: enum}
}

func strPattern(name string, required bool, p *regexp.Regexp) Field {
	return Field{Name: name, Kind: KindString, Required: required, NonEmpty: true, Pattern: p}
}

func boolean(name string, required bool) Field {
	return Field{Name: name, Kind: KindBool, Required: required}
}

func intField(name string) Field {
	return Field{Name: name, Kind: KindInt, Required: false}
}

func stringArray(name string, required, nonEmpty bool) Field {
	el := str("", true, true)
	return Field{Name: name, Kind: KindArray, Required: required, NonEmpty: nonEmpty, Elem: &el}
}

func objArray(name string, required, nonEmpty bool, fields []Field) Field {
	return Field{
		Name: name, Kind: KindArray, Required: required, NonEmpty: nonEmpty,
		Elem: &Field{Kind: KindObject, Fields: fields},
	}
}

// specificationSchema is the root schema. Built once at init.
var specificationSchema Field

func init() {
	specificationSchema = Field{
		Kind: KindObject,
		Fields: []Field{
			metadataSchema(),
			requirementsSchema(),
			architectureSchema(),
			implementationSchema(),
			testingSchema(),
			deploymentSchema(),
			{Name: "_metadata", Kind: KindAny},
		},
	}
}

func metadataSchema() Field {
	return Field{
		Name: "metadata", Kind: KindObject, Required: true,
		Fields: []Field{
			str("name", true, true),
			str("description", true, true),
			strEnum("complexity", true, complexityEnum),
			{Name: "estimatedHours", Kind: KindInt, Required: true, Bounded: true, Min: 1, Max: 1000},
			stringArray("tags", true, true),
			strPattern("version", true, versionPattern),
		},
	}
}

func requirementsSchema() Field {
	functional := objArray("functional", true, false, []Field{
		strPattern("id", true, frIDPattern),
		str("title", true, true),
		str("description", true, true),
		strEnum("priority", true, priorityEnum),
		stringArray("dependencies", false, false),
	})
	nonFunctional := objArray("nonFunctional", true, false, []Field{
		strPattern("id", true, nfrIDPattern),
		strEnum("category", true, categoryEnum),
		str("description", true, true),
		strEnum("priority", true, priorityEnum),
	})

	// Derived members (enricher output).
	statistics := Field{
		Name: "statistics", Kind: KindObject,
		Fields: []Field{
			intField("totalFunctional"),
			intField("totalNonFunctional"),
			intField("highPriority"),
			stringArray("categories", false, false),
		},
	}
	graphNode := Field{
		Kind: KindObject,
		Fields: []Field{
			stringArray("dependencies", true, false),
			stringArray("dependents", true, false),
		},
	}
	dependencyGraph := Field{Name: "dependencyGraph", Kind: KindObject, FreeKeys: &graphNode}

	return Field{
		Name: "requirements", Kind: KindObject, Required: true,
		Fields: []Field{functional, nonFunctional, statistics, dependencyGraph},
	}
}

func architectureSchema() Field {
	statusCodes := objArray("statusCodes", true, true, []Field{
		{Name: "code", Kind: KindInt, Required: true, Bounded: true, Min: 100, Max: 599},
		str("description", false, false),
	})
	endpoints := objArray("apiEndpoints", true, false, []Field{
		strPattern("id", true, epIDPattern),
		strEnum("method", true, methodEnum),
		strPattern("path", true, apiPathPattern),
		str("description", false, false),
		boolean("authentication", false),
		statusCodes,
		stringArray("relatedRequirements", true, false),
	})

	relationships := objArray("relationships", false, false, []Field{
		str("type", true, true),
		str("target", true, true),
		str("description", false, false),
	})
	dataModels := objArray("dataModels", true, false, []Field{
		strPattern("id", true, dmIDPattern),
		str("name", true, true),
		str("description", false, false),
		objArray("fields", true, true, []Field{
			str("name", true, true),
			str("type", true, true),
			boolean("required", false),
			str("description", false, false),
		}),
		relationships,
	})

	services := objArray("services", true, false, []Field{
		strPattern("id", true, svIDPattern),
		str("name", true, true),
		strEnum("type", true, serviceEnum),
		str("description", false, false),
	})

	// Derived members.
	statistics := Field{
		Name: "statistics", Kind: KindObject,
		Fields: []Field{
			intField("totalEndpoints"),
			{Name: "methodsDistribution", Kind: KindObject, FreeKeys: &Field{Kind: KindInt}},
			intField("authenticatedEndpoints"),
			intField("totalModels"),
			intField("totalServices"),
		},
	}
	modelView := Field{
		Kind: KindObject,
		Fields: []Field{
			objArray("outgoing", true, false, []Field{
				str("type", true, true),
				str("target", true, true),
				str("description", false, false),
			}),
			objArray("incoming", true, false, []Field{
				str("from", true, true),
				str("type", true, true),
				str("description", false, false),
			}),
		},
	}
	relationshipsMap := Field{Name: "relationshipsMap", Kind: KindObject, FreeKeys: &modelView}

	return Field{
		Name: "architecture", Kind: KindObject, Required: true,
		Fields: []Field{endpoints, dataModels, services, statistics, relationshipsMap},
	}
}

func implementationSchema() Field {
	dependency := []Field{
		str("name", true, true),
		str("version", false, false),
		str("purpose", false, false),
		boolean("critical", true),
	}
	dependencies := Field{
		Name: "dependencies", Kind: KindObject, Required: true,
		Fields: []Field{
			objArray("runtime", true, true, dependency),
			objArray("development", false, false, dependency),
		},
	}
	configuration := objArray("configuration", false, false, []Field{
		str("name", true, true),
		str("description", false, false),
		boolean("required", false),
		str("defaultValue", false, false),
	})
	security := Field{
		Name: "security", Kind: KindObject, Required: true,
		Fields: []Field{
			str("authentication", true, true),
			str("authorization", true, true),
			stringArray("dataProtection", true, true),
			{
				Name: "edgeCaseHandling", Kind: KindObject, Required: true,
				Fields: []Field{
					str("inputValidation", true, true),
					str("errorHandling", true, true),
					str("rateLimiting", false, false),
				},
			},
		},
	}

	return Field{
		Name: "implementation", Kind: KindObject, Required: true,
		Fields: []Field{dependencies, configuration, security},
	}
}

func testingSchema() Field {
	testCases := objArray("testCases", true, false, []Field{
		strPattern("id", true, tcIDPattern),
		str("title", true, true),
		strEnum("type", true, testTypeEnum),
		strEnum("category", true, testCatEnum),
		strEnum("priority", true, priorityEnum),
		stringArray("steps", true, true),
		str("expectedResult", false, false),
		stringArray("relatedRequirements", true, false),
	})
	acceptanceCriteria := objArray("acceptanceCriteria", true, false, []Field{
		strPattern("id", true, acIDPattern),
		str("given", true, true),
		str("when", true, true),
		str("then", true, true),
		stringArray("relatedRequirements", false, false),
	})

	// Derived members.
	statistics := Field{
		Name: "statistics", Kind: KindObject,
		Fields: []Field{
			intField("totalTestCases"),
			intField("totalAcceptanceCriteria"),
			{Name: "typesDistribution", Kind: KindObject, FreeKeys: &Field{Kind: KindInt}},
			{Name: "prioritiesDistribution", Kind: KindObject, FreeKeys: &Field{Kind: KindInt}},
			intField("edgeCaseTests"),
		},
	}
	coverage := Field{
		Name: "requirementCoverage", Kind: KindObject,
		Fields: []Field{
			intField("total"),
			intField("covered"),
			intField("uncovered"),
			intField("coveragePercentage"),
			stringArray("uncoveredRequirements", false, false),
			intField("testCoverage"),
			intField("criteriaCoverage"),
		},
	}

	return Field{
		Name: "testing", Kind: KindObject, Required: true,
		Fields: []Field{testCases, acceptanceCriteria, statistics, coverage},
	}
}

func deploymentSchema() Field {
	return Field{
		Name: "deployment", Kind: KindObject, Required: true,
		Fields: []Field{
			stringArray("environments", true, true),
			stringArray("infrastructure", true, true),
			stringArray("monitoring", true, true),
		},
	}
}
