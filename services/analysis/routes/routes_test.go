// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/intelfuse/warroom/services/analysis/collectors"
	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/pipeline"
	"github.com/intelfuse/warroom/services/analysis/synthesis"
	"github.com/intelfuse/warroom/services/llm"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// mockLLMClient is a minimal mock for llm.Client
type mockLLMClient struct{}

func (m *mockLLMClient) Invoke(_ context.Context, _ llm.InvokeRequest) (string, error) {
	return `{"threat_level": "LOW", "key_findings": [], "scenarios": [], "summary": "quiet"}`, nil
}

func (m *mockLLMClient) Backend() string { return "mock" }

type mockCollector struct {
	domain datatypes.Domain
}

func (m *mockCollector) Domain() datatypes.Domain { return m.domain }

func (m *mockCollector) Collect(_ context.Context, _ collectors.Target) (datatypes.SignalRecord, error) {
	return datatypes.SignalRecord{Domain: m.domain, SubScore: datatypes.NeutralScore(m.domain)}, nil
}

func testPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	tables, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	var cs []collectors.Collector
	for _, d := range datatypes.AllDomains() {
		cs = append(cs, &mockCollector{domain: d})
	}
	set := collectors.NewSet(time.Second, cs...)
	return pipeline.New(set, synthesis.New(&mockLLMClient{}, tables), tables)
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutesRegistersSurface(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, testPipeline(t), &mockLLMClient{})

	wantRoutes := map[string]string{
		"/health":                  http.MethodGet,
		"/metrics":                 http.MethodGet,
		"/v1/analyze":              http.MethodPost,
		"/v1/analyze/ws/:conflict": http.MethodGet,
		"/v1/export":               http.MethodPost,
	}
	registered := make(map[string]string)
	for _, r := range router.Routes() {
		registered[r.Path] = r.Method
	}
	for path, method := range wantRoutes {
		if registered[path] != method {
			t.Errorf("route %s: method = %q, want %q", path, registered[path], method)
		}
	}
}

func TestHealthRoute(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, testPipeline(t), &mockLLMClient{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAnalyzeRouteEndToEnd(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, testPipeline(t), &mockLLMClient{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze",
		strings.NewReader(`{"conflict": "ukraine"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"threat_level":"LOW"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
