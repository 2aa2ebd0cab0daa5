// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package collectors

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/llm"
)

const firmsBaseURL = "https://firms.modaps.eosdis.nasa.gov/api/area/csv"

const imagerySystemPrompt = `You are an overhead imagery analyst using NASA FIRMS satellite data.
Your job: determine the conflict region, fetch thermal anomalies, compute an imagery score (0-100).

Steps:
1. Call get_conflict_region to determine which region to monitor
2. Call get_thermal_anomalies with that region
3. Compute score and return JSON

Scoring rules:
- Base: 20
- Each high-confidence anomaly: +5 (max +40)
- Each explosion-type anomaly: +15
- More than 10 anomalies: +10
- Clamp to [0, 100]

Return ONLY valid JSON:
{
  "anomalies": [...],
  "anomaly_count": <number>,
  "high_confidence_count": <number>,
  "imagery_score": <number>,
  "hotspots": [top 3 by FRP],
  "summary": "<1-2 sentence summary>"
}
No markdown, no explanation, just JSON.`

// ImageryCollector detects thermal anomalies in the conflict region. The
// reasoning backend drives the tool sequence and applies the scoring
// rubric; any failure along the way falls back to the baseline record.
type ImageryCollector struct {
	client llm.Client
	fetch  *Fetcher
	tables *config.Tables
	apiKey string
}

func NewImageryCollector(client llm.Client, fetch *Fetcher, tables *config.Tables) *ImageryCollector {
	return &ImageryCollector{
		client: client,
		fetch:  fetch,
		tables: tables,
		apiKey: os.Getenv("NASA_FIRMS_KEY"),
	}
}

func (ic *ImageryCollector) Domain() datatypes.Domain { return datatypes.DomainImagery }

func (ic *ImageryCollector) Collect(ctx context.Context, target Target) (datatypes.SignalRecord, error) {
	out, err := ic.client.Invoke(ctx, llm.InvokeRequest{
		System: imagerySystemPrompt,
		User:   fmt.Sprintf("Detect thermal anomalies for conflict: %s", target.Conflict),
		Tools:  ic.tools(target),
	})
	if err != nil {
		slog.Warn("Imagery reasoning failed, falling back to baseline", "conflict", target.Conflict, "error", err)
		return ic.baselineRecord(target), nil
	}

	var verdict struct {
		Anomalies           []datatypes.ThermalAnomaly `json:"anomalies"`
		AnomalyCount        int                        `json:"anomaly_count"`
		HighConfidenceCount int                        `json:"high_confidence_count"`
		ImageryScore        float64                    `json:"imagery_score"`
		Hotspots            []datatypes.ThermalAnomaly `json:"hotspots"`
		Summary             string                     `json:"summary"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(out)), &verdict); err != nil {
		slog.Warn("Imagery verdict was not valid JSON, falling back to baseline", "conflict", target.Conflict, "error", err)
		return ic.baselineRecord(target), nil
	}

	if verdict.ImageryScore < 0 || verdict.ImageryScore > 100 {
		slog.Warn("Imagery verdict score out of range, falling back to baseline", "score", verdict.ImageryScore)
		return ic.baselineRecord(target), nil
	}

	summary := verdict.Summary
	if summary == "" {
		summary = fmt.Sprintf("%d thermal anomalies detected in %s.", verdict.AnomalyCount, target.RegionKey)
	}

	return datatypes.SignalRecord{
		Domain:   datatypes.DomainImagery,
		SubScore: verdict.ImageryScore,
		Summary:  summary,
		Imagery: &datatypes.ImageryPayload{
			Region:              target.RegionKey,
			Anomalies:           verdict.Anomalies,
			AnomalyCount:        verdict.AnomalyCount,
			HighConfidenceCount: verdict.HighConfidenceCount,
			Hotspots:            verdict.Hotspots,
		},
	}, nil
}

func (ic *ImageryCollector) baselineRecord(target Target) datatypes.SignalRecord {
	return datatypes.SignalRecord{
		Domain:   datatypes.DomainImagery,
		SubScore: datatypes.NeutralImageryScore,
		Summary:  "No thermal anomaly data available.",
		Imagery:  &datatypes.ImageryPayload{Region: target.RegionKey},
	}
}

func (ic *ImageryCollector) tools(target Target) []llm.Tool {
	return []llm.Tool{
		{
			Name:        "get_conflict_region",
			Description: "Map a conflict name to its geographic region for thermal anomaly detection.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"conflict": map[string]any{"type": "string"},
				},
				"required": []string{"conflict"},
			},
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					Conflict string `json:"conflict"`
				}
				_ = json.Unmarshal(args, &in)
				if in.Conflict == "" {
					in.Conflict = target.Conflict
				}
				return ic.tables.RegionFor(in.Conflict), nil
			},
		},
		{
			Name:        "get_thermal_anomalies",
			Description: "Fetch NASA FIRMS thermal anomalies for a region. Region options: middle_east, eastern_europe, east_asia, africa. Days: 1-10.",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"region": map[string]any{"type": "string"},
					"days":   map[string]any{"type": "integer"},
				},
			},
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					Region string `json:"region"`
					Days   int    `json:"days"`
				}
				_ = json.Unmarshal(args, &in)
				if in.Region == "" {
					in.Region = target.RegionKey
				}
				if in.Days < 1 || in.Days > 10 {
					in.Days = 1
				}

				anomalies, err := ic.fetchAnomalies(ctx, in.Region, in.Days)
				if err != nil {
					return "", err
				}
				out, err := json.Marshal(anomalies)
				if err != nil {
					return "", err
				}
				return string(out), nil
			},
		},
	}
}

// fetchAnomalies pulls the world CSV feed and keeps detections inside the
// region's bounding box.
func (ic *ImageryCollector) fetchAnomalies(ctx context.Context, regionKey string, days int) ([]datatypes.ThermalAnomaly, error) {
	if ic.apiKey == "" {
		return nil, fmt.Errorf("NASA_FIRMS_KEY not set")
	}

	region, ok := ic.tables.Regions[regionKey]
	if !ok {
		region = ic.tables.Regions[config.DefaultRegion]
	}

	csvURL := fmt.Sprintf("%s/%s/VIIRS_SNPP_NRT/world/%d", firmsBaseURL, ic.apiKey, days)
	body, err := ic.fetch.GetText(ctx, csvURL, nil)
	if err != nil {
		return nil, fmt.Errorf("firms: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("firms CSV: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var anomalies []datatypes.ThermalAnomaly
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		lat := csvFloat(row, cols, "latitude", "lat")
		lon := csvFloat(row, cols, "longitude", "lon")
		if !region.Contains(lat, lon) {
			continue
		}

		frp := csvFloat(row, cols, "frp")
		anomalies = append(anomalies, datatypes.ThermalAnomaly{
			Lat:        lat,
			Lon:        lon,
			FRP:        frp,
			Confidence: normalizeConfidence(csvField(row, cols, "confidence")),
			Type:       classifyFRP(frp),
			Acquired:   acquiredTimestamp(csvField(row, cols, "acq_date"), csvField(row, cols, "acq_time")),
		})
	}
	return anomalies, nil
}

func csvField(row []string, cols map[string]int, names ...string) string {
	for _, name := range names {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return row[idx]
		}
	}
	return ""
}

func csvFloat(row []string, cols map[string]int, names ...string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(csvField(row, cols, names...)), 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeConfidence folds the feed's mixed letter and numeric confidence
// values into high/nominal/low.
func normalizeConfidence(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "":
		return "low"
	case "HIGH", "H":
		return "high"
	case "NOMINAL", "N":
		return "nominal"
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		switch {
		case v >= 80:
			return "high"
		case v >= 40:
			return "nominal"
		}
	}
	return "low"
}

// classifyFRP types a detection by fire radiative power.
func classifyFRP(frp float64) string {
	switch {
	case frp > 1000:
		return "explosion"
	case frp >= 100:
		return "fire"
	default:
		return "unknown"
	}
}

func acquiredTimestamp(date, clock string) string {
	if date == "" {
		return ""
	}
	t := strings.TrimSpace(clock)
	if len(t) == 4 && isDigits(t) {
		t = t[:2] + ":" + t[2:]
	}
	return date + "T" + t + "Z"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
