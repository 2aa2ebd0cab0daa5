// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package datatypes

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/intelfuse/warroom/pkg/validation"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("conflictname", func(fl validator.FieldLevel) bool {
			return validation.ValidateConflict(fl.Field().String()) == nil
		})
	}
}

// AnalyzeRequest starts one assessment run for a named conflict.
type AnalyzeRequest struct {
	Conflict string `json:"conflict" binding:"required,conflictname"`
}

// WatchRequest opens a recurring assessment stream over a websocket.
type WatchRequest struct {
	Conflict string `json:"conflict" binding:"required,conflictname"`
}

// ExportRequest renders a previously produced assessment as a briefing
// document. The assessment is supplied by the caller rather than looked up,
// the service keeps no run history.
type ExportRequest struct {
	Assessment CompositeAssessment `json:"assessment" binding:"required"`
}

// ErrorResponse is the uniform error body for the HTTP surface.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports service liveness and backend readiness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Backend string `json:"backend,omitempty"`
}
