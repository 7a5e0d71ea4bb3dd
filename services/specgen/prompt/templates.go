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
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTemplatesPath is used when SPECFORGE_TEMPLATES_PATH is unset.
const DefaultTemplatesPath = "configs/template_families.yaml"

// TemplateFamily carries the extra prompt context attached when a
// request names a known template family.
type TemplateFamily struct {
	ID                 string   `yaml:"id" json:"id"`
	Name               string   `yaml:"name" json:"name"`
	Description        string   `yaml:"description" json:"description"`
	CommonRequirements []string `yaml:"commonRequirements" json:"commonRequirements"`
}

// TemplateRegistry resolves template-family ids. The registry is
// loaded once at startup and read-only afterwards.
type TemplateRegistry struct {
	families map[string]TemplateFamily
	ordered  []TemplateFamily
}

// LoadTemplateRegistry reads the family registry from a YAML file. An
// empty path falls back to SPECFORGE_TEMPLATES_PATH, then the default.
// A missing or unreadable file degrades to an empty registry with a
// warning: template context is an enrichment, not a requirement.
func LoadTemplateRegistry(path string) *TemplateRegistry {
	if path == "" {
		path = os.Getenv("SPECFORGE_TEMPLATES_PATH")
	}
	if path == "" {
		path = DefaultTemplatesPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("template registry unavailable, continuing without template context",
			"path", path, "error", err)
		return &TemplateRegistry{families: map[string]TemplateFamily{}}
	}

	var doc struct {
		Families []TemplateFamily `yaml:"families"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Error("template registry is not valid YAML, continuing without template context",
			"path", path, "error", err)
		return &TemplateRegistry{families: map[string]TemplateFamily{}}
	}

	reg := &TemplateRegistry{families: make(map[string]TemplateFamily, len(doc.Families))}
	for _, f := range doc.Families {
		if f.ID == "" {
			slog.Warn("skipping template family without id", "name", f.Name)
			continue
		}
		if _, dup := reg.families[f.ID]; dup {
			slog.Warn("skipping duplicate template family", "id", f.ID)
			continue
		}
		reg.families[f.ID] = f
		reg.ordered = append(reg.ordered, f)
	}
	slog.Info("loaded template registry", "path", path, "families", len(reg.ordered))
	return reg
}

// Lookup returns the family for id, or nil when unknown.
func (r *TemplateRegistry) Lookup(id string) *TemplateFamily {
	if id == "" {
		return nil
	}
	f, ok := r.families[id]
	if !ok {
		return nil
	}
	return &f
}

// List returns every family in file order.
func (r *TemplateRegistry) List() []TemplateFamily {
	out := make([]TemplateFamily, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// String implements fmt.Stringer for log lines.
func (f TemplateFamily) String() string {
	return fmt.Sprintf("%s (%s)", f.ID, f.Name)
}
