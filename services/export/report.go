// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package export renders a finished assessment as a fixed-layout plaintext
// intelligence brief suitable for download or terminal display.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/intelfuse/warroom/services/analysis/datatypes"
)

const (
	reportWidth    = 78
	maxFindings    = 10
	timestampForm  = "2006-01-02 15:04:05 UTC"
	classification = "// CLASSIFIED – OSINT INTELLIGENCE BRIEF //"
	disclaimer     = "// UNCLASSIFIED // FOR TRAINING AND RESEARCH PURPOSES ONLY //"
)

// Render builds the full report text. The layout is stable so downstream
// consumers can diff consecutive briefs for the same conflict.
func Render(a *datatypes.CompositeAssessment) string {
	var b strings.Builder
	ts := a.GeneratedAt.UTC().Format(timestampForm)

	// Header
	writeCentered(&b, classification)
	b.WriteString("\n")
	writeCentered(&b, "DIGITAL WAR ROOM")
	writeCentered(&b, fmt.Sprintf("CONFLICT ANALYSIS REPORT  ·  %s", ts))
	rule(&b, '=')

	// Threat banner
	b.WriteString(fmt.Sprintf("SUBJECT: %s  ·  THREAT LEVEL: %s  ·  ESCALATION SCORE: %.1f/100\n",
		strings.ToUpper(a.Conflict), threatLabel(a.ThreatLevel), a.CompositeScore))

	if a.Summary != "" {
		section(&b, "EXECUTIVE SUMMARY")
		b.WriteString(wrap(a.Summary, reportWidth))
		b.WriteString("\n")
	}

	section(&b, "DOMAIN SCORES")
	b.WriteString(fmt.Sprintf("%-10s %7s  %s\n", "DOMAIN", "SCORE", "STATUS"))
	for _, d := range datatypes.AllDomains() {
		rec := a.Signal(d)
		status := "ACTIVE"
		if rec.Error != "" {
			status = "OFFLINE"
		}
		b.WriteString(fmt.Sprintf("%-10s %7.1f  %s\n", strings.ToUpper(string(d)), rec.SubScore, status))
	}

	if len(a.KeyFindings) > 0 {
		section(&b, "KEY FINDINGS")
		for i, finding := range a.KeyFindings {
			if i >= maxFindings {
				break
			}
			b.WriteString(fmt.Sprintf("%02d.  %s\n", i+1, finding))
		}
	}

	if len(a.Scenarios) > 0 {
		section(&b, "SCENARIO ASSESSMENT")
		b.WriteString(fmt.Sprintf("%5s  %s\n", "PROB", "SCENARIO"))
		for _, sc := range a.Scenarios {
			pct := fmt.Sprintf("%d%%", int(math.Round(sc.Probability*100)))
			b.WriteString(fmt.Sprintf("%5s  %s\n", pct, sc.Description))
		}
	}

	writeMarketDetail(&b, a)

	// Footer
	b.WriteString("\n")
	rule(&b, '=')
	writeCentered(&b, fmt.Sprintf("GENERATED: %s  ·  DIGITAL WAR ROOM  ·  OSINT ONLY – NOT FOR DISTRIBUTION", ts))
	writeCentered(&b, disclaimer)
	return b.String()
}

// Filename derives the attachment name for a rendered brief.
func Filename(a *datatypes.CompositeAssessment) string {
	name := strings.ToLower(a.Conflict)
	name = strings.NewReplacer(" ", "_", "-", "_", "/", "_", ".", "_").Replace(name)
	return fmt.Sprintf("intel_brief_%s_%s.txt", name, a.GeneratedAt.UTC().Format("20060102_1504"))
}

func writeMarketDetail(b *strings.Builder, a *datatypes.CompositeAssessment) {
	payload := a.Market.Market
	if payload == nil || len(payload.Benchmarks) == 0 {
		return
	}
	section(b, "FINANCIAL INTELLIGENCE")
	for _, q := range payload.Benchmarks {
		if q.Price == nil {
			continue
		}
		line := fmt.Sprintf("%s: %.2f", q.Name, *q.Price)
		if q.ChangePct != nil {
			line += fmt.Sprintf("  (%+.1f%%)", *q.ChangePct)
		}
		if q.AsOf != "" {
			line += fmt.Sprintf("  as of %s", q.AsOf)
		}
		b.WriteString(line + "\n")
	}
	if a.Market.Summary != "" {
		b.WriteString(wrap(a.Market.Summary, reportWidth))
		b.WriteString("\n")
	}
}

func threatLabel(level datatypes.ThreatLevel) string {
	if level == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(string(level))
}

func section(b *strings.Builder, title string) {
	b.WriteString("\n[ " + title + " ]\n")
	rule(b, '-')
}

func rule(b *strings.Builder, ch byte) {
	b.WriteString(strings.Repeat(string(ch), reportWidth))
	b.WriteString("\n")
}

func writeCentered(b *strings.Builder, s string) {
	pad := (reportWidth - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + s + "\n")
}

// wrap folds text at word boundaries to the given width. Words longer than
// the width are emitted on their own line unbroken.
func wrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		if i > 0 {
			if lineLen+1+len(w) > width {
				b.WriteString("\n")
				lineLen = 0
			} else {
				b.WriteString(" ")
				lineLen++
			}
		}
		b.WriteString(w)
		lineLen += len(w)
	}
	return b.String()
}
