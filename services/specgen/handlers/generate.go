// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin handlers of the specgen service.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/SpecForge/services/specgen/datatypes"
	"github.com/AleutianAI/SpecForge/services/specgen/pipeline"
)

var generateTracer = otel.Tracer("aleutian.specgen.handlers")

// HandleGenerate runs the generation pipeline for one request.
//
// Responses:
//   - 200 with {specification, meta} on success (fallback included:
//     meta.fallback tells them apart).
//   - 400 with the offending fields when the request is invalid.
//   - 503 when neither the LLM pipeline nor the fallback could produce
//     a valid document.
func HandleGenerate(env *pipeline.Environment) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := generateTracer.Start(c.Request.Context(), "HandleGenerate")
		defer span.End()

		var req datatypes.GenerateRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the generation request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		result, err := env.Generate(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			var reqErr *datatypes.RequestValidationError
			if errors.As(err, &reqErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":  "invalid generation request",
					"fields": reqErr.Fields,
				})
				return
			}
			if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
				// Client went away; nothing useful to send.
				c.Status(http.StatusRequestTimeout)
				return
			}

			slog.Error("Specification generation failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "specification generation unavailable"})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
