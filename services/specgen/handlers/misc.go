// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/SpecForge/services/specgen/pipeline"
	"github.com/AleutianAI/SpecForge/services/specgen/prompt"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleListTemplates returns the template-family registry so clients
// can populate their template pickers.
func HandleListTemplates(reg *prompt.TemplateRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"templates": reg.List()})
	}
}

// HandleBreakerStats exposes the pipeline breaker snapshot for
// operators.
func HandleBreakerStats(env *pipeline.Environment) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, env.BreakerStats())
	}
}
