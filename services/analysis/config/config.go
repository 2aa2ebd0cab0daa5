// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config holds the static lookup tables used by the collectors
// and the synthesis stage: region bounding boxes, keyword lexicons,
// provider filter lists, and composite weights.
//
// Tables are parsed once from an embedded YAML document (overridable via
// the WARROOM_TABLES environment variable) and are read-only afterwards,
// so they can be shared across concurrent collector goroutines without
// locking.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Weights are the fixed composite-score weights per signal domain.
// They must sum to 1.0; this is a design constant, not a tunable.
type Weights struct {
	Market   float64 `yaml:"market"`
	Movement float64 `yaml:"movement"`
	Media    float64 `yaml:"media"`
	Imagery  float64 `yaml:"imagery"`
	Social   float64 `yaml:"social"`
}

// Sum returns the total of all five weights.
func (w Weights) Sum() float64 {
	return w.Market + w.Movement + w.Media + w.Imagery + w.Social
}

// MarketTables filters prediction-market listings.
type MarketTables struct {
	// Keywords select conflict-relevant markets by question text.
	Keywords []string `yaml:"keywords"`
	// EntityKeywords trigger the named-entity probability bonus.
	EntityKeywords []string `yaml:"entity_keywords"`
}

// MovementTables classify aircraft and vessels.
type MovementTables struct {
	MilitaryCallsigns []string `yaml:"military_callsigns"`
	SurveillanceTypes []string `yaml:"surveillance_types"`
	TankerTypes       []string `yaml:"tanker_types"`
	WarshipKeywords   []string `yaml:"warship_keywords"`
	HullPrefixes      []string `yaml:"hull_prefixes"`
}

// MediaTables drive article filtering and sentiment.
type MediaTables struct {
	// Domains is the allow-list of trusted outlets.
	Domains      []string `yaml:"domains"`
	TitleExclude []string `yaml:"title_exclude"`
	Escalatory   []string `yaml:"escalatory"`
	DeEscalatory []string `yaml:"de_escalatory"`
}

// Region is a named geographic bounding box with the conflict keywords
// that map onto it.
type Region struct {
	LatMin   float64  `yaml:"lat_min"`
	LatMax   float64  `yaml:"lat_max"`
	LonMin   float64  `yaml:"lon_min"`
	LonMax   float64  `yaml:"lon_max"`
	Keywords []string `yaml:"keywords"`
}

// Contains reports whether the coordinate falls inside the box.
func (r Region) Contains(lat, lon float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax && lon >= r.LonMin && lon <= r.LonMax
}

// SocialTables drive the three social sub-sources.
type SocialTables struct {
	TelegramChannels map[string][]string `yaml:"telegram_channels"`
	Subreddits       map[string][]string `yaml:"subreddits"`
	RSSFeeds         []string            `yaml:"rss_feeds"`
	Escalatory       []string            `yaml:"escalatory"`
	DeEscalatory     []string            `yaml:"de_escalatory"`
	ConflictKeywords map[string][]string `yaml:"conflict_keywords"`
}

// Tables is the full set of static lookup data.
type Tables struct {
	Weights  Weights           `yaml:"weights"`
	Market   MarketTables      `yaml:"market"`
	Movement MovementTables    `yaml:"movement"`
	Media    MediaTables       `yaml:"media"`
	Regions  map[string]Region `yaml:"regions"`
	Social   SocialTables      `yaml:"social"`
}

// DefaultRegion is used when no region keyword matches a conflict.
const DefaultRegion = "middle_east"

// RegionFor maps a conflict identifier to a region name by keyword
// match, falling back to DefaultRegion. Matching is case-insensitive.
func (t *Tables) RegionFor(conflict string) string {
	cl := strings.ToLower(conflict)
	// Fixed iteration order keeps the mapping deterministic when keyword
	// sets overlap.
	for _, name := range []string{"middle_east", "eastern_europe", "east_asia", "africa"} {
		region, ok := t.Regions[name]
		if !ok {
			continue
		}
		for _, kw := range region.Keywords {
			if strings.Contains(cl, kw) {
				return name
			}
		}
	}
	return DefaultRegion
}

// KeywordsFor returns the relevance keywords for a conflict. Unknown
// conflicts fall back to their own lowercase tokens.
func (t *Tables) KeywordsFor(conflict string) []string {
	cl := strings.ToLower(conflict)
	// Fixed precedence so conflicts matching several keys always resolve
	// to the same set, with "iran" winning over "israel" and "gaza".
	for _, key := range []string{"iran", "ukraine", "israel", "gaza", "taiwan"} {
		kws, ok := t.Social.ConflictKeywords[key]
		if !ok {
			continue
		}
		if strings.Contains(cl, key) {
			return kws
		}
	}
	if fields := strings.Fields(cl); len(fields) > 0 {
		return fields
	}
	return []string{"conflict"}
}

// Load parses tables from data and validates the invariants the rest of
// the pipeline depends on.
func Load(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}

	const tolerance = 1e-9
	if diff := t.Weights.Sum() - 1.0; diff > tolerance || diff < -tolerance {
		return nil, fmt.Errorf("composite weights must sum to 1.0, got %v", t.Weights.Sum())
	}
	if _, ok := t.Regions[DefaultRegion]; !ok {
		return nil, fmt.Errorf("tables missing default region %q", DefaultRegion)
	}
	return &t, nil
}

var (
	defaultOnce   sync.Once
	defaultLoaded *Tables
	defaultErr    error
)

// Default returns the process-wide tables, loading them on first use.
// WARROOM_TABLES may point at an override YAML file; otherwise the
// embedded defaults are used.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		data := defaultTables
		if path := os.Getenv("WARROOM_TABLES"); path != "" {
			content, err := os.ReadFile(path)
			if err != nil {
				defaultErr = fmt.Errorf("failed to read WARROOM_TABLES %q: %w", path, err)
				return
			}
			data = content
		}
		defaultLoaded, defaultErr = Load(data)
	})
	return defaultLoaded, defaultErr
}
