// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompt

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
)

// BuildUserPrompt renders the per-request prompt. Section order is
// stable: description, language (only when it differs from the
// default), template-family context, complexity, tests note, and the
// closing instruction to answer with valid JSON.
func BuildUserPrompt(req datatypes.GenerateRequest, family *TemplateFamily) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Feature description:\n%s\n", req.Description)

	if req.Language != "" && req.Language != datatypes.DefaultLanguage {
		fmt.Fprintf(&b, "\nWrite the specification content in language: %s\n", req.Language)
	}

	if family != nil {
		fmt.Fprintf(&b, "\nTemplate family: %s\n", family.Name)
		if family.Description != "" {
			fmt.Fprintf(&b, "%s\n", family.Description)
		}
		if len(family.CommonRequirements) > 0 {
			b.WriteString("Common requirements for this family:\n")
			for _, cr := range family.CommonRequirements {
				fmt.Fprintf(&b, "- %s\n", cr)
			}
		}
	}

	fmt.Fprintf(&b, "\nExpected complexity: %s\n", req.Complexity)

	if req.IncludeTests {
		b.WriteString("\nInclude a thorough testing section: test cases for happy paths, " +
			"edge cases and error handling, plus acceptance criteria in given/when/then form.\n")
	}

	b.WriteString("\nReturn only a valid JSON object conforming to the schema in the system prompt. " +
		"No prose, no markdown fences.")

	return b.String()
}
