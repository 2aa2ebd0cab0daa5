// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scoring provides the shared heuristics the collectors and the
// synthesis stage build on: score clamping, zero-guarded percent change,
// keyword sentiment, and the fixed-weight composite.
//
// Every function here is total: no input combination yields NaN, Inf, or
// a value outside the documented range.
package scoring

import (
	"github.com/intelfuse/warroom/services/analysis/config"
)

// Score bounds for all sub-scores and the composite.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore bounds v to the canonical [0,100] score range.
func ClampScore(v float64) float64 {
	return Clamp(v, MinScore, MaxScore)
}

// PercentChange computes (latest-prev)/prev*100. The second return is
// false when prev is exactly zero: "no prior observation" is not a 0%
// move and must not be reported as one.
func PercentChange(latest, prev float64) (float64, bool) {
	if prev == 0 {
		return 0, false
	}
	return (latest - prev) / prev * 100.0, true
}

// Composite blends the five sub-scores with the fixed domain weights.
// The result is clamped to [0,100]; with weights summing to 1.0 and
// sub-scores already in range the clamp is a no-op.
func Composite(w config.Weights, market, movement, media, imagery, social float64) float64 {
	total := market*w.Market +
		movement*w.Movement +
		media*w.Media +
		imagery*w.Imagery +
		social*w.Social
	return ClampScore(total)
}
