// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package datatypes

import "fmt"

// Domain identifies one of the five collection disciplines feeding an
// assessment.
type Domain string

const (
	DomainMarket   Domain = "market"
	DomainMovement Domain = "movement"
	DomainMedia    Domain = "media"
	DomainImagery  Domain = "imagery"
	DomainSocial   Domain = "social"
)

// AllDomains returns the five domains in synthesis order.
func AllDomains() []Domain {
	return []Domain{DomainMarket, DomainMovement, DomainMedia, DomainImagery, DomainSocial}
}

// Neutral baseline sub-scores used when a collector fails, times out, or
// panics. The pipeline continues on these instead of aborting the run.
const (
	NeutralMarketScore   = 50.0
	NeutralMovementScore = 30.0
	NeutralMediaScore    = 50.0
	NeutralImageryScore  = 20.0
	NeutralSocialScore   = 30.0
)

// CommodityQuote is a single benchmark price observation. ChangePct is nil
// when no prior close was available to compute a move against.
type CommodityQuote struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price,omitempty"`
	ChangePct *float64 `json:"change_pct,omitempty"`
	AsOf      string   `json:"as_of,omitempty"`
}

// PredictionMarket is one conflict-relevant event contract.
type PredictionMarket struct {
	Question    string  `json:"question"`
	Probability float64 `json:"probability"`
	Volume      float64 `json:"volume,omitempty"`
}

// MarketPayload carries the financial picture behind the market sub-score.
type MarketPayload struct {
	Benchmarks []CommodityQuote   `json:"benchmarks,omitempty"`
	Markets    []PredictionMarket `json:"markets,omitempty"`
}

// Aircraft is one tracked airframe of interest.
type Aircraft struct {
	Callsign   string  `json:"callsign"`
	Type       string  `json:"type,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AltitudeFt *int    `json:"altitude_ft,omitempty"`
	Category   string  `json:"category,omitempty"`
}

// Vessel is one tracked ship of interest.
type Vessel struct {
	Name string  `json:"name"`
	Type string  `json:"type,omitempty"`
	Lat  float64 `json:"lat,omitempty"`
	Lon  float64 `json:"lon,omitempty"`
}

// MovementPayload carries air and maritime activity behind the movement
// sub-score. Alerts are short human-readable flags, capped by the collector.
type MovementPayload struct {
	Aircraft []Aircraft `json:"aircraft,omitempty"`
	Vessels  []Vessel   `json:"vessels,omitempty"`
	Alerts   []string   `json:"alerts,omitempty"`
}

// Article is one scored news item.
type Article struct {
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	URL            string  `json:"url,omitempty"`
	PublishedAt    string  `json:"published_at,omitempty"`
	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel string  `json:"sentiment_label"`
}

// MediaPayload carries press coverage behind the media sub-score.
type MediaPayload struct {
	Articles         []Article `json:"articles,omitempty"`
	OverallSentiment float64   `json:"overall_sentiment"`
	SentimentLabel   string    `json:"sentiment_label"`
	TopSources       []string  `json:"top_sources,omitempty"`
	Recent24h        int       `json:"recent_24h"`
}

// ThermalAnomaly is one satellite fire detection. FRP is fire radiative
// power in megawatts.
type ThermalAnomaly struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	FRP        float64 `json:"frp"`
	Confidence string  `json:"confidence,omitempty"`
	Type       string  `json:"type,omitempty"`
	Acquired   string  `json:"acquired,omitempty"`
}

// ImageryPayload carries overhead detections behind the imagery sub-score.
// Hotspots are the strongest anomalies by FRP, capped by the collector.
type ImageryPayload struct {
	Region              string           `json:"region"`
	Anomalies           []ThermalAnomaly `json:"anomalies,omitempty"`
	AnomalyCount        int              `json:"anomaly_count"`
	HighConfidenceCount int              `json:"high_confidence_count"`
	Hotspots            []ThermalAnomaly `json:"hotspots,omitempty"`
}

// SocialPost is one open-source chatter item from any platform.
type SocialPost struct {
	Platform       string  `json:"platform"`
	Source         string  `json:"source"`
	Title          string  `json:"title,omitempty"`
	Text           string  `json:"text,omitempty"`
	URL            string  `json:"url,omitempty"`
	PublishedAt    string  `json:"published_at,omitempty"`
	Upvotes        int     `json:"upvotes,omitempty"`
	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel string  `json:"sentiment_label"`
}

// SocialPayload carries chatter behind the social sub-score. TopSignals are
// the most escalatory items, capped by the collector.
type SocialPayload struct {
	Posts             []SocialPost `json:"posts,omitempty"`
	TotalSignals      int          `json:"total_signals"`
	EscalatoryCount   int          `json:"escalatory_count"`
	DeEscalatoryCount int          `json:"de_escalatory_count"`
	OverallSentiment  float64      `json:"overall_sentiment"`
	TopSignals        []string     `json:"top_signals,omitempty"`
}

// SignalRecord is the uniform envelope every collector returns. Exactly one
// payload pointer matching Domain is set on success; on failure Error holds
// the cause and the payload is nil with SubScore at the domain baseline.
type SignalRecord struct {
	Domain   Domain  `json:"domain"`
	SubScore float64 `json:"sub_score"`
	Summary  string  `json:"summary"`
	Error    string  `json:"error,omitempty"`

	Market   *MarketPayload   `json:"market,omitempty"`
	Movement *MovementPayload `json:"movement,omitempty"`
	Media    *MediaPayload    `json:"media,omitempty"`
	Imagery  *ImageryPayload  `json:"imagery,omitempty"`
	Social   *SocialPayload   `json:"social,omitempty"`
}

// NeutralScore returns the baseline sub-score for a domain.
func NeutralScore(d Domain) float64 {
	switch d {
	case DomainMarket:
		return NeutralMarketScore
	case DomainMovement:
		return NeutralMovementScore
	case DomainMedia:
		return NeutralMediaScore
	case DomainImagery:
		return NeutralImageryScore
	case DomainSocial:
		return NeutralSocialScore
	default:
		return 0
	}
}

// NeutralRecord builds the record substituted for a collector that could
// not produce one. The cause ends up in Error so the assessment shows which
// feeds were degraded.
func NeutralRecord(d Domain, cause error) SignalRecord {
	rec := SignalRecord{
		Domain:   d,
		SubScore: NeutralScore(d),
		Summary:  fmt.Sprintf("%s collection unavailable, holding neutral baseline", d),
	}
	if cause != nil {
		rec.Error = cause.Error()
	}
	return rec
}
