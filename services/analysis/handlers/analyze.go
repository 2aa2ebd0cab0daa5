// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package handlers holds the gin handlers for the analysis service.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/pipeline"
	"github.com/intelfuse/warroom/services/llm"
)

var analysisTracer = otel.Tracer("warroom.analysis.handlers")

// HandleAnalyze runs one full assessment for the requested conflict.
func HandleAnalyze(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := analysisTracer.Start(c.Request.Context(), "HandleAnalyze")
		defer span.End()

		var req datatypes.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the analyze request", "error", err)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}

		assessment, err := p.Analyze(ctx, req.Conflict)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Assessment run failed", "conflict", req.Conflict, "error", err)
			if strings.Contains(err.Error(), "invalid conflict name") {
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
				return
			}
			c.JSON(http.StatusBadGateway, datatypes.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, assessment)
	}
}

// HealthCheck reports liveness plus the configured reasoning backend so a
// probe can tell a misconfigured service from a dead one.
func HealthCheck(client llm.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.HealthResponse{
			Status:  "ok",
			Service: "analysis",
			Backend: client.Backend(),
		})
	}
}
