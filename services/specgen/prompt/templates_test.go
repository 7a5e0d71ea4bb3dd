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
	"os"
	"path/filepath"
	"testing"
)

const templatesFixture = `families:
  - id: crud
    name: CRUD application
    description: Create, read, update and delete a primary entity.
    commonRequirements:
      - Input validation on every write
      - Pagination on list endpoints
  - id: auth
    name: Authentication
    description: Login, session and credential management.
    commonRequirements:
      - Password hashing
  - id: ""
    name: Broken entry without id
  - id: crud
    name: Duplicate of crud
`

func writeTemplates(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "families.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing templates fixture: %v", err)
	}
	return path
}

func TestLoadTemplateRegistry(t *testing.T) {
	reg := LoadTemplateRegistry(writeTemplates(t, templatesFixture))

	// The empty-id entry and the duplicate are skipped.
	if got := len(reg.List()); got != 2 {
		t.Fatalf("List() has %d families, want 2", got)
	}

	crud := reg.Lookup("crud")
	if crud == nil {
		t.Fatal("Lookup(crud) = nil")
	}
	if crud.Name != "CRUD application" {
		t.Errorf("duplicate overwrote the first entry: %q", crud.Name)
	}
	if len(crud.CommonRequirements) != 2 {
		t.Errorf("crud commonRequirements = %v", crud.CommonRequirements)
	}
}

func TestLoadTemplateRegistry_MissingFileDegrades(t *testing.T) {
	reg := LoadTemplateRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	if reg == nil {
		t.Fatal("registry must never be nil")
	}
	if len(reg.List()) != 0 {
		t.Errorf("missing file should give an empty registry, got %v", reg.List())
	}
	if reg.Lookup("crud") != nil {
		t.Error("empty registry should resolve nothing")
	}
}

func TestLoadTemplateRegistry_BadYAMLDegrades(t *testing.T) {
	reg := LoadTemplateRegistry(writeTemplates(t, "families: [unclosed"))
	if len(reg.List()) != 0 {
		t.Errorf("bad YAML should give an empty registry, got %v", reg.List())
	}
}

func TestTemplateRegistry_Lookup(t *testing.T) {
	reg := LoadTemplateRegistry(writeTemplates(t, templatesFixture))

	if reg.Lookup("") != nil {
		t.Error("Lookup of the empty id should be nil")
	}
	if reg.Lookup("nope") != nil {
		t.Error("Lookup of an unknown id should be nil")
	}

	// Lookup hands out a copy, not registry state.
	f := reg.Lookup("auth")
	f.Name = "mutated"
	if reg.Lookup("auth").Name != "Authentication" {
		t.Error("Lookup result aliases the registry")
	}
}

func TestShippedTemplateRegistry(t *testing.T) {
	path := filepath.Join("..", "..", "..", "configs", "template_families.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("repo config not reachable from the test dir: %v", err)
	}
	reg := LoadTemplateRegistry(path)

	for _, id := range []string{"crud", "auth", "ecommerce", "api", "dashboard", "notification", "file-upload"} {
		if reg.Lookup(id) == nil {
			t.Errorf("shipped registry missing family %q", id)
		}
	}
}
