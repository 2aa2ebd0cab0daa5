// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/intelfuse/warroom/services/analysis/datatypes"
)

// Warroom palette - terminal green on black with threat accents
var (
	colorGreen  = lipgloss.Color("#00FF41")
	colorDim    = lipgloss.Color("#00AA2A")
	colorAmber  = lipgloss.Color("#F4D03F")
	colorOrange = lipgloss.Color("#F97316")
	colorRed    = lipgloss.Color("#EF4444")
	colorGrey   = lipgloss.Color("#6B7280")
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	styleMuted = lipgloss.NewStyle().Foreground(colorGrey)
	styleScore = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
	styleBanner = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// threatStyle maps a threat level to its display color.
func threatStyle(level datatypes.ThreatLevel) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch level {
	case datatypes.ThreatCritical:
		return s.Foreground(colorRed)
	case datatypes.ThreatHigh:
		return s.Foreground(colorOrange)
	case datatypes.ThreatElevated:
		return s.Foreground(colorAmber)
	case datatypes.ThreatLow, datatypes.ThreatMinimal:
		return s.Foreground(colorDim)
	default:
		return s.Foreground(colorGrey)
	}
}

// renderAssessment builds the terminal view of a finished assessment.
func renderAssessment(a *datatypes.CompositeAssessment) string {
	var b strings.Builder

	banner := fmt.Sprintf("%s  %s  %s",
		styleTitle.Render("SUBJECT: "+strings.ToUpper(a.Conflict)),
		threatStyle(a.ThreatLevel).Render("THREAT: "+string(a.ThreatLevel)),
		styleScore.Render(fmt.Sprintf("SCORE: %.1f/100", a.CompositeScore)),
	)
	b.WriteString(styleBanner.Render(banner))
	b.WriteString("\n\n")

	if a.Summary != "" {
		b.WriteString(styleTitle.Render("SUMMARY"))
		b.WriteString("\n" + a.Summary + "\n\n")
	}

	b.WriteString(styleTitle.Render("DOMAIN SCORES"))
	b.WriteString("\n")
	for _, rec := range a.Signals() {
		line := fmt.Sprintf("  %-10s %5.1f", strings.ToUpper(string(rec.Domain)), rec.SubScore)
		if rec.Error != "" {
			line += "  " + styleMuted.Render("degraded: "+rec.Error)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	if len(a.KeyFindings) > 0 {
		b.WriteString(styleTitle.Render("KEY FINDINGS"))
		b.WriteString("\n")
		for i, finding := range a.KeyFindings {
			b.WriteString(fmt.Sprintf("  %02d. %s\n", i+1, finding))
		}
		b.WriteString("\n")
	}

	if len(a.Scenarios) > 0 {
		b.WriteString(styleTitle.Render("SCENARIOS"))
		b.WriteString("\n")
		for _, sc := range a.Scenarios {
			b.WriteString(fmt.Sprintf("  %3.0f%%  %s\n", sc.Probability*100, sc.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString(styleMuted.Render(fmt.Sprintf("run %s  ·  generated %s",
		a.ID, a.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))))
	b.WriteString("\n")
	return b.String()
}
