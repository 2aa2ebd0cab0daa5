// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package collectors gathers raw escalation signals from public sources.
// Every collector returns a SignalRecord with a sub-score in [0,100]; the
// runner substitutes a neutral baseline for anything that fails, times out,
// or panics so one dead feed never sinks a run.
package collectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/observability"
)

// DefaultTimeout is the per-collector wall clock budget.
const DefaultTimeout = 45 * time.Second

// Target is the resolved subject of a run: the conflict name plus the
// region and keyword context derived from the lookup tables.
type Target struct {
	Conflict  string
	RegionKey string
	Region    config.Region
	Keywords  []string
}

// NewTarget resolves a conflict name against the tables.
func NewTarget(conflict string, tables *config.Tables) Target {
	key := tables.RegionFor(conflict)
	return Target{
		Conflict:  conflict,
		RegionKey: key,
		Region:    tables.Regions[key],
		Keywords:  tables.KeywordsFor(conflict),
	}
}

// Collector produces one domain's signal for a target.
type Collector interface {
	Domain() datatypes.Domain
	Collect(ctx context.Context, target Target) (datatypes.SignalRecord, error)
}

// Set runs a group of collectors concurrently.
type Set struct {
	collectors []Collector
	timeout    time.Duration
}

// NewSet builds a runner over the given collectors. A non-positive timeout
// falls back to DefaultTimeout.
func NewSet(timeout time.Duration, cs ...Collector) *Set {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Set{collectors: cs, timeout: timeout}
}

// CollectAll fans the target out to every collector and waits for all of
// them. The result always holds one record per collector; failures come
// back as neutral-baseline records carrying the cause.
func (s *Set) CollectAll(ctx context.Context, target Target) map[datatypes.Domain]datatypes.SignalRecord {
	var wg sync.WaitGroup
	results := make(chan datatypes.SignalRecord, len(s.collectors))

	for _, c := range s.collectors {
		wg.Add(1)
		go func(c Collector) {
			defer wg.Done()
			results <- s.collectOne(ctx, c, target)
		}(c)
	}

	wg.Wait()
	close(results)

	records := make(map[datatypes.Domain]datatypes.SignalRecord, len(s.collectors))
	for rec := range results {
		records[rec.Domain] = rec
	}
	return records
}

func (s *Set) collectOne(ctx context.Context, c Collector, target Target) (rec datatypes.SignalRecord) {
	domain := c.Domain()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Collector panicked", "domain", domain, "panic", r)
			recordFailure(domain, observability.CausePanic)
			rec = datatypes.NeutralRecord(domain, fmt.Errorf("collector panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rec, err := c.Collect(ctx, target)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordCollector(string(domain), time.Since(start))
	}
	if err != nil {
		slog.Warn("Collector failed, using neutral baseline",
			"domain", domain, "conflict", target.Conflict, "error", err)
		cause := observability.CauseError
		if errors.Is(err, context.DeadlineExceeded) {
			cause = observability.CauseTimeout
		}
		recordFailure(domain, cause)
		return datatypes.NeutralRecord(domain, err)
	}

	rec.Domain = domain
	slog.Info("Collector finished",
		"domain", domain, "conflict", target.Conflict,
		"sub_score", rec.SubScore, "duration_ms", time.Since(start).Milliseconds())
	return rec
}

func recordFailure(domain datatypes.Domain, cause observability.FailureCause) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordCollectorFailure(string(domain), cause)
	}
}
