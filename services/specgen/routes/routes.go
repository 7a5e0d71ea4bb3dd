// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/SpecForge/services/specgen/handlers"
	"github.com/AleutianAI/SpecForge/services/specgen/pipeline"
	"github.com/AleutianAI/SpecForge/services/specgen/prompt"
)

// SetupRoutes wires the specgen route table.
func SetupRoutes(router *gin.Engine, env *pipeline.Environment, templates *prompt.TemplateRegistry) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/specifications", handlers.HandleGenerate(env))
		v1.GET("/templates", handlers.HandleListTemplates(templates))
		v1.GET("/breaker", handlers.HandleBreakerStats(env))
	}
}
