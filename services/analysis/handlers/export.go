// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/export"
)

// HandleExport renders a caller-supplied assessment as a plaintext
// intelligence brief. The service keeps no run history, so the full
// assessment travels in the request body.
func HandleExport() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ExportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Error("Failed to parse the export request", "error", err)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}
		if req.Assessment.Conflict == "" {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "assessment.conflict is required"})
			return
		}

		report := export.Render(&req.Assessment)
		filename := export.Filename(&req.Assessment)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
	}
}
