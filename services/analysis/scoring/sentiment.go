// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import "strings"

// Sentiment labels. Positive sentiment means escalatory language.
const (
	LabelEscalatory   = "ESCALATORY"
	LabelDeEscalatory = "DE-ESCALATORY"
	LabelNeutral      = "NEUTRAL"
)

// labelThreshold is the cutoff for ESCALATORY / DE-ESCALATORY labels.
const labelThreshold = 0.2

// sentimentCap saturates the raw net keyword count before normalizing.
const sentimentCap = 3

// Lexicon is a pair of keyword lists for sentiment scoring. Keywords
// are expected lowercase; matching is case-insensitive substring
// containment, each keyword counted at most once.
type Lexicon struct {
	Escalatory   []string
	DeEscalatory []string
}

// Score returns a sentiment in [-1,1] for the text: +1 strongly
// escalatory, -1 strongly de-escalatory. Net keyword hits beyond ±3
// saturate, so the output never exceeds ±1 regardless of text length.
func (l Lexicon) Score(text string) float64 {
	if text == "" {
		return 0.0
	}

	lower := strings.ToLower(text)
	net := 0
	for _, kw := range l.Escalatory {
		if strings.Contains(lower, kw) {
			net++
		}
	}
	for _, kw := range l.DeEscalatory {
		if strings.Contains(lower, kw) {
			net--
		}
	}

	if net == 0 {
		return 0.0
	}
	if net > sentimentCap {
		net = sentimentCap
	}
	if net < -sentimentCap {
		net = -sentimentCap
	}
	return float64(net) / float64(sentimentCap)
}

// Label maps a sentiment score to its discrete label at the ±0.2
// thresholds.
func Label(score float64) string {
	if score > labelThreshold {
		return LabelEscalatory
	}
	if score < -labelThreshold {
		return LabelDeEscalatory
	}
	return LabelNeutral
}
