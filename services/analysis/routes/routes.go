// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/intelfuse/warroom/services/analysis/handlers"
	"github.com/intelfuse/warroom/services/analysis/pipeline"
	"github.com/intelfuse/warroom/services/llm"
)

// SetupRoutes registers the full HTTP surface of the analysis service.
func SetupRoutes(router *gin.Engine, p *pipeline.Pipeline, llmClient llm.Client) {
	router.GET("/health", handlers.HealthCheck(llmClient))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/analyze", handlers.HandleAnalyze(p))
		v1.GET("/analyze/ws/:conflict", handlers.HandleWatch(p))
		v1.POST("/export", handlers.HandleExport())
	}
}
