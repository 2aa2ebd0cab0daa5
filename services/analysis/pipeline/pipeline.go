// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package pipeline drives a full assessment run: concurrent signal
// collection, then single-threaded synthesis over the joined records.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/intelfuse/warroom/pkg/validation"
	"github.com/intelfuse/warroom/services/analysis/collectors"
	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/observability"
	"github.com/intelfuse/warroom/services/analysis/synthesis"
)

// State is the phase an assessment run is in.
type State string

const (
	StateCollecting   State = "collecting"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
)

// Pipeline joins the collector set and the synthesizer into one runnable
// unit. It is safe for concurrent runs; every run carries its own state.
type Pipeline struct {
	set    *collectors.Set
	synth  *synthesis.Synthesizer
	tables *config.Tables
}

// New builds a pipeline over the given collector set and synthesizer.
func New(set *collectors.Set, synth *synthesis.Synthesizer, tables *config.Tables) *Pipeline {
	return &Pipeline{set: set, synth: synth, tables: tables}
}

// Analyze executes one assessment run for the named conflict. Collector
// failures degrade to neutral baselines inside the set; the only error
// surfaced from a healthy service is an unreachable reasoning backend.
func (p *Pipeline) Analyze(ctx context.Context, conflict string) (*datatypes.CompositeAssessment, error) {
	return p.Run(ctx, conflict, observability.TriggerAnalyze)
}

// Run is Analyze with an explicit trigger label for metrics. The watch
// loop uses it to keep periodic re-runs distinguishable from one-shot
// requests.
func (p *Pipeline) Run(ctx context.Context, conflict string, trigger observability.Trigger) (*datatypes.CompositeAssessment, error) {
	conflict, err := validation.SanitizeConflict(conflict)
	if err != nil {
		return nil, fmt.Errorf("invalid conflict name: %w", err)
	}

	start := time.Now()
	state := StateCollecting
	target := collectors.NewTarget(conflict, p.tables)
	slog.Info("Assessment run started",
		"conflict", conflict, "region", target.RegionKey, "state", state)

	records := p.set.CollectAll(ctx, target)

	state = StateSynthesizing
	slog.Info("Collection joined, synthesizing",
		"conflict", conflict, "state", state, "records", len(records))

	assessment, err := p.synth.Synthesize(ctx, conflict, records)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRun(trigger, time.Since(start), err == nil)
	}
	if err != nil {
		slog.Error("Assessment run failed",
			"conflict", conflict, "state", state, "error", err)
		return nil, err
	}

	state = StateDone
	slog.Info("Assessment run finished",
		"conflict", conflict, "state", state,
		"assessment_id", assessment.ID,
		"composite_score", assessment.CompositeScore,
		"threat_level", assessment.ThreatLevel,
		"duration_ms", time.Since(start).Milliseconds())
	return assessment, nil
}
