// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/intelfuse/warroom/services/analysis/datatypes"
)

func sampleAssessment() *datatypes.CompositeAssessment {
	a := &datatypes.CompositeAssessment{
		ID:             "run-1",
		Conflict:       "iran",
		GeneratedAt:    time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC),
		CompositeScore: 49.5,
		ThreatLevel:    datatypes.ThreatHigh,
		KeyFindings:    []string{"Surveillance surge east of the strait"},
		Scenarios: []datatypes.Scenario{
			{Description: "Limited exchange within 30 days", Probability: 0.35},
		},
		Summary: "Activity is trending up.",
	}
	a.SetSignal(datatypes.SignalRecord{Domain: datatypes.DomainMarket, SubScore: 70})
	a.SetSignal(datatypes.SignalRecord{Domain: datatypes.DomainMovement, SubScore: 62})
	a.SetSignal(datatypes.SignalRecord{Domain: datatypes.DomainMedia, SubScore: 55})
	a.SetSignal(datatypes.SignalRecord{
		Domain: datatypes.DomainImagery, SubScore: 20, Error: "feed offline"})
	a.SetSignal(datatypes.SignalRecord{Domain: datatypes.DomainSocial, SubScore: 30})
	return a
}

func TestWatchURL(t *testing.T) {
	cases := []struct {
		base     string
		conflict string
		want     string
	}{
		{"http://localhost:12300", "iran", "ws://localhost:12300/v1/analyze/ws/iran"},
		{"https://warroom.example.com", "iran", "wss://warroom.example.com/v1/analyze/ws/iran"},
		{"http://localhost:12300", "US-Iran Gulf", "ws://localhost:12300/v1/analyze/ws/US-Iran%20Gulf"},
	}
	for _, tc := range cases {
		got, err := watchURL(tc.base, tc.conflict)
		if err != nil {
			t.Fatalf("watchURL(%q, %q): %v", tc.base, tc.conflict, err)
		}
		if got != tc.want {
			t.Errorf("watchURL(%q, %q) = %q, want %q", tc.base, tc.conflict, got, tc.want)
		}
	}
}

func TestRenderAssessment(t *testing.T) {
	out := renderAssessment(sampleAssessment())

	for _, want := range []string{
		"SUBJECT: IRAN",
		"THREAT: HIGH",
		"SCORE: 49.5/100",
		"Activity is trending up.",
		"MARKET      70.0",
		"degraded: feed offline",
		"01. Surveillance surge east of the strait",
		"35%  Limited exchange within 30 days",
		"run run-1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered assessment missing %q\n%s", want, out)
		}
	}
}

func TestSendAnalyzeRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/analyze" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req datatypes.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Conflict != "iran" {
			t.Errorf("conflict = %q", req.Conflict)
		}
		json.NewEncoder(w).Encode(sampleAssessment())
	}))
	defer srv.Close()

	old := serverURL
	serverURL = srv.URL
	defer func() { serverURL = old }()

	a, err := sendAnalyzeRequest("iran")
	if err != nil {
		t.Fatal(err)
	}
	if a.CompositeScore != 49.5 {
		t.Errorf("composite = %v", a.CompositeScore)
	}
}

func TestSendAnalyzeRequestServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(datatypes.ErrorResponse{Error: "reasoning backend unreachable: connection refused"})
	}))
	defer srv.Close()

	old := serverURL
	serverURL = srv.URL
	defer func() { serverURL = old }()

	_, err := sendAnalyzeRequest("iran")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "reasoning backend unreachable") {
		t.Errorf("error = %v", err)
	}
}
