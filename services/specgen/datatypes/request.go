// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains the generation request type and its validation.
// Request validation happens before any prompt is assembled; a request
// that fails here never reaches the LLM.
package datatypes

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxDescriptionBytes is the maximum size of the feature description.
	// Oversized descriptions would blow the prompt token budget anyway.
	MaxDescriptionBytes = 16 * 1024 // 16KB

	// MinDescriptionLength is the minimum length of a useful description.
	MinDescriptionLength = 10

	// DefaultLanguage is assumed when a request omits the language.
	// The prompt only mentions the language when it differs from this.
	DefaultLanguage = "it"
)

// TemplateIDs lists the known template families.
var TemplateIDs = []string{
	"crud", "auth", "ecommerce", "api", "dashboard", "notification", "file-upload",
}

// requestValidate is the validator instance for generation requests.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	_ = requestValidate.RegisterValidation("maxbytes", validateDescriptionBytes)
}

// validateDescriptionBytes enforces MaxDescriptionBytes on string fields.
// Byte length, not rune count, so multi-byte payloads cannot dodge the cap.
func validateDescriptionBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxDescriptionBytes
}

// GenerateRequest is the input of the specification pipeline.
type GenerateRequest struct {
	// Description is the free-text feature description.
	Description string `json:"description" validate:"required,min=10,maxbytes"`

	// Language selects the output language of the generated document.
	Language string `json:"language" validate:"omitempty,oneof=it en"`

	// Template optionally names a template family for extra prompt context.
	Template string `json:"template" validate:"omitempty,oneof=crud auth ecommerce api dashboard notification file-upload"`

	// Complexity is the expected implementation complexity.
	Complexity string `json:"complexity" validate:"omitempty,oneof=simple medium complex"`

	// IncludeTests asks the model for an extended testing section.
	IncludeTests bool `json:"includeTests"`
}

// RequestValidationError reports the fields a request failed on.
type RequestValidationError struct {
	Fields []string
}

func (e *RequestValidationError) Error() string {
	return fmt.Sprintf("invalid generation request: %s", strings.Join(e.Fields, "; "))
}

// Normalize fills defaults and trims the description in place.
func (r *GenerateRequest) Normalize() {
	r.Description = strings.TrimSpace(r.Description)
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Complexity == "" {
		r.Complexity = ComplexityMedium
	}
}

// Validate normalizes the request and checks it against the request
// schema. Returns a *RequestValidationError listing every offending
// field, or nil if the request is acceptable.
func (r *GenerateRequest) Validate() error {
	r.Normalize()

	err := requestValidate.Struct(r)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &RequestValidationError{Fields: []string{err.Error()}}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return &RequestValidationError{Fields: fields}
}
