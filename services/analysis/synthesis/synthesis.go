// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package synthesis folds the five signal records into one assessment:
// deterministic weighted composite first, then a reasoning-backed verdict
// with a fixed fallback when the model output cannot be used.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/observability"
	"github.com/intelfuse/warroom/services/analysis/scoring"
	"github.com/intelfuse/warroom/services/llm"
)

const (
	maxFindingHeadlines = 3
	maxFindingSignals   = 3
	maxFindingHotspots  = 2
)

const analystSystemPrompt = `You are a senior intelligence analyst with access to 5 intelligence streams:
- MARKET: Financial markets and oil price indicators
- MOVEMENT: Military aircraft and naval vessel movements
- MEDIA: Open-source media sentiment analysis
- IMAGERY: Satellite thermal anomaly detection
- SOCIAL: Social media signals from Telegram, Reddit, and RSS

Analyze all streams holistically and return ONLY valid JSON with no markdown:
{
  "escalation_score": <number 0-100>,
  "threat_level": <"MINIMAL"|"LOW"|"ELEVATED"|"HIGH"|"CRITICAL">,
  "key_findings": [<array of concise finding strings>],
  "scenarios": [{"description": <string>, "probability": <0-1>}],
  "summary": "<2-3 sentence BLUF summary>"
}`

// Synthesizer produces the final CompositeAssessment for a run.
type Synthesizer struct {
	client  llm.Client
	weights config.Weights
	now     func() time.Time
}

func New(client llm.Client, tables *config.Tables) *Synthesizer {
	return &Synthesizer{client: client, weights: tables.Weights, now: time.Now}
}

// Synthesize computes the weighted composite and asks the reasoning
// backend for a verdict over the full record set. A malformed verdict is
// replaced by the deterministic fallback; only an unreachable backend is
// an error.
func (s *Synthesizer) Synthesize(ctx context.Context, conflict string, records map[datatypes.Domain]datatypes.SignalRecord) (*datatypes.CompositeAssessment, error) {
	assessment := &datatypes.CompositeAssessment{
		ID:          uuid.New().String(),
		Conflict:    conflict,
		GeneratedAt: s.now().UTC(),
	}
	for _, d := range datatypes.AllDomains() {
		rec := records[d]
		rec.Domain = d
		assessment.SetSignal(rec)
	}

	assessment.CompositeScore = scoring.Composite(s.weights,
		assessment.Market.SubScore,
		assessment.Movement.SubScore,
		assessment.Media.SubScore,
		assessment.Imagery.SubScore,
		assessment.Social.SubScore,
	)

	verdict, err := s.requestVerdict(ctx, assessment)
	if err != nil {
		return nil, err
	}

	assessment.ThreatLevel = verdict.ThreatLevel
	assessment.KeyFindings = verdict.KeyFindings
	assessment.Scenarios = verdict.Scenarios
	assessment.Summary = verdict.Summary
	s.appendDomainFindings(assessment)
	return assessment, nil
}

func (s *Synthesizer) requestVerdict(ctx context.Context, a *datatypes.CompositeAssessment) (datatypes.Verdict, error) {
	payload := map[string]any{
		"conflict":        a.Conflict,
		"composite_score": a.CompositeScore,
		"domain_scores": map[string]float64{
			"market":   a.Market.SubScore,
			"movement": a.Movement.SubScore,
			"media":    a.Media.SubScore,
			"imagery":  a.Imagery.SubScore,
			"social":   a.Social.SubScore,
		},
		"market":   a.Market,
		"movement": a.Movement,
		"media":    a.Media,
		"imagery":  a.Imagery,
		"social":   a.Social,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return datatypes.Verdict{}, fmt.Errorf("failed to marshal analyst context: %w", err)
	}

	out, err := s.client.Invoke(ctx, llm.InvokeRequest{
		System: analystSystemPrompt,
		User:   string(body),
	})
	if err != nil {
		// An unreachable reasoning backend is the one synthesis failure
		// that surfaces to the caller.
		return datatypes.Verdict{}, fmt.Errorf("reasoning backend unreachable: %w", err)
	}

	verdict, parseErr := parseVerdict(out)
	if parseErr != nil {
		slog.Warn("Analyst verdict rejected, using fallback",
			"conflict", a.Conflict, "error", parseErr)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordSynthesisFallback()
		}
		return fallbackVerdict(), nil
	}
	return verdict, nil
}

func parseVerdict(out string) (datatypes.Verdict, error) {
	var raw struct {
		ThreatLevel string               `json:"threat_level"`
		KeyFindings []string             `json:"key_findings"`
		Scenarios   []datatypes.Scenario `json:"scenarios"`
		Summary     string               `json:"summary"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(out)), &raw); err != nil {
		return datatypes.Verdict{}, fmt.Errorf("verdict is not valid JSON: %w", err)
	}

	level, err := datatypes.ParseThreatLevel(raw.ThreatLevel)
	if err != nil {
		return datatypes.Verdict{}, err
	}
	for _, sc := range raw.Scenarios {
		if sc.Probability < 0 || sc.Probability > 1 {
			return datatypes.Verdict{}, fmt.Errorf("scenario probability %v out of range", sc.Probability)
		}
	}

	verdict := datatypes.Verdict{
		ThreatLevel: level,
		KeyFindings: raw.KeyFindings,
		Scenarios:   raw.Scenarios,
		Summary:     raw.Summary,
	}
	if verdict.KeyFindings == nil {
		verdict.KeyFindings = []string{}
	}
	if verdict.Scenarios == nil {
		verdict.Scenarios = []datatypes.Scenario{}
	}
	return verdict, nil
}

// fallbackVerdict is the deterministic stand-in when the model's output
// cannot be parsed or validated.
func fallbackVerdict() datatypes.Verdict {
	return datatypes.Verdict{
		ThreatLevel: datatypes.ThreatElevated,
		KeyFindings: []string{"Failed to parse analyst output."},
		Scenarios:   []datatypes.Scenario{},
		Summary:     "Analyst synthesis failed; raw collector data is available.",
	}
}

// appendDomainFindings adds the most notable raw observations after the
// verdict findings: top-sentiment headlines, top social signals, and the
// strongest imagery hotspots.
func (s *Synthesizer) appendDomainFindings(a *datatypes.CompositeAssessment) {
	if media := a.Media.Media; media != nil {
		articles := make([]datatypes.Article, len(media.Articles))
		copy(articles, media.Articles)
		sort.SliceStable(articles, func(i, j int) bool {
			return articles[i].SentimentScore > articles[j].SentimentScore
		})
		for i, art := range articles {
			if i >= maxFindingHeadlines {
				break
			}
			title := art.Title
			if title == "" {
				title = "News article"
			}
			source := art.Source
			if source == "" {
				source = "Unknown"
			}
			label := art.SentimentLabel
			if label == "" {
				label = scoring.LabelNeutral
			}
			a.KeyFindings = append(a.KeyFindings, fmt.Sprintf("MEDIA (%s) – %s [%s]", label, title, source))
		}
	}

	if social := a.Social.Social; social != nil {
		for i, signal := range social.TopSignals {
			if i >= maxFindingSignals {
				break
			}
			a.KeyFindings = append(a.KeyFindings, fmt.Sprintf("SOCIAL – %s", signal))
		}
	}

	if imagery := a.Imagery.Imagery; imagery != nil {
		for i, h := range imagery.Hotspots {
			if i >= maxFindingHotspots {
				break
			}
			typ := h.Type
			if typ == "" {
				typ = "anomaly"
			}
			a.KeyFindings = append(a.KeyFindings,
				fmt.Sprintf("IMAGERY (%s) – Thermal anomaly at %v,%v FRP=%v", typ, h.Lat, h.Lon, h.FRP))
		}
	}
}
