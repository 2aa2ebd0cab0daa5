// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package datatypes

import (
	"fmt"
	"time"
)

// ThreatLevel is the five-step escalation verdict.
type ThreatLevel string

const (
	ThreatMinimal  ThreatLevel = "MINIMAL"
	ThreatLow      ThreatLevel = "LOW"
	ThreatElevated ThreatLevel = "ELEVATED"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// ParseThreatLevel validates a free-form level string, as returned by the
// reasoning engine, against the known enum.
func ParseThreatLevel(s string) (ThreatLevel, error) {
	switch ThreatLevel(s) {
	case ThreatMinimal, ThreatLow, ThreatElevated, ThreatHigh, ThreatCritical:
		return ThreatLevel(s), nil
	}
	return "", fmt.Errorf("unknown threat level %q", s)
}

// Scenario is one forward-looking outcome with an estimated probability in
// [0,1].
type Scenario struct {
	Description string  `json:"description"`
	Probability float64 `json:"probability"`
}

// Verdict is the structured judgment produced by synthesis, either from the
// reasoning engine or from the deterministic fallback.
type Verdict struct {
	ThreatLevel ThreatLevel `json:"threat_level"`
	KeyFindings []string    `json:"key_findings"`
	Scenarios   []Scenario  `json:"scenarios"`
	Summary     string      `json:"summary"`
}

// CompositeAssessment is the full result of one pipeline run: the weighted
// composite score, the verdict, and the five contributing signal records.
type CompositeAssessment struct {
	ID             string      `json:"id"`
	Conflict       string      `json:"conflict"`
	GeneratedAt    time.Time   `json:"generated_at"`
	CompositeScore float64     `json:"composite_score"`
	ThreatLevel    ThreatLevel `json:"threat_level"`
	KeyFindings    []string    `json:"key_findings"`
	Scenarios      []Scenario  `json:"scenarios"`
	Summary        string      `json:"summary"`

	Market   SignalRecord `json:"market"`
	Movement SignalRecord `json:"movement"`
	Media    SignalRecord `json:"media"`
	Imagery  SignalRecord `json:"imagery"`
	Social   SignalRecord `json:"social"`
}

// Signal returns the record for a domain. Unknown domains return a zero
// record.
func (a *CompositeAssessment) Signal(d Domain) SignalRecord {
	switch d {
	case DomainMarket:
		return a.Market
	case DomainMovement:
		return a.Movement
	case DomainMedia:
		return a.Media
	case DomainImagery:
		return a.Imagery
	case DomainSocial:
		return a.Social
	}
	return SignalRecord{}
}

// SetSignal stores the record under its domain slot.
func (a *CompositeAssessment) SetSignal(rec SignalRecord) {
	switch rec.Domain {
	case DomainMarket:
		a.Market = rec
	case DomainMovement:
		a.Movement = rec
	case DomainMedia:
		a.Media = rec
	case DomainImagery:
		a.Imagery = rec
	case DomainSocial:
		a.Social = rec
	}
}

// Signals returns the five records in synthesis order.
func (a *CompositeAssessment) Signals() []SignalRecord {
	return []SignalRecord{a.Market, a.Movement, a.Media, a.Imagery, a.Social}
}
