// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package collectors

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/scoring"
)

const (
	newsAPIURL = "https://newsapi.org/v2/everything"

	mediaLookback = 48 * time.Hour
	maxTopSources = 5
)

// MediaCollector scores press coverage via NewsAPI.
type MediaCollector struct {
	fetch  *Fetcher
	tables *config.Tables
	lex    scoring.Lexicon
	apiKey string
	now    func() time.Time
}

func NewMediaCollector(fetch *Fetcher, tables *config.Tables) *MediaCollector {
	return &MediaCollector{
		fetch:  fetch,
		tables: tables,
		lex: scoring.Lexicon{
			Escalatory:   tables.Media.Escalatory,
			DeEscalatory: tables.Media.DeEscalatory,
		},
		apiKey: os.Getenv("NEWS_API_KEY"),
		now:    time.Now,
	}
}

func (m *MediaCollector) Domain() datatypes.Domain { return datatypes.DomainMedia }

func (m *MediaCollector) Collect(ctx context.Context, target Target) (datatypes.SignalRecord, error) {
	if m.apiKey == "" {
		return datatypes.SignalRecord{}, fmt.Errorf("NEWS_API_KEY is not set")
	}

	payload, err := m.fetchArticles(ctx, target.Conflict)
	if err != nil {
		return datatypes.SignalRecord{}, err
	}

	media := m.processArticles(payload)
	score := m.score(media.OverallSentiment, media.Recent24h)

	return datatypes.SignalRecord{
		Domain:   datatypes.DomainMedia,
		SubScore: score,
		Summary:  fmt.Sprintf("%d articles analyzed. Sentiment: %s.", len(media.Articles), media.SentimentLabel),
		Media:    media,
	}, nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (m *MediaCollector) fetchArticles(ctx context.Context, conflict string) (*newsAPIResponse, error) {
	from := m.now().UTC().Add(-mediaLookback).Format("2006-01-02T15:04:05Z")
	params := url.Values{
		"q":        {buildMediaQuery(conflict)},
		"language": {"en"},
		"sortBy":   {"relevance"},
		"pageSize": {"20"},
		"from":     {from},
		"domains":  {strings.Join(m.tables.Media.Domains, ",")},
		"apiKey":   {m.apiKey},
	}

	var payload newsAPIResponse
	if err := m.fetch.GetJSON(ctx, newsAPIURL, params, &payload); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	return &payload, nil
}

// buildMediaQuery expands well-known conflicts into a targeted boolean
// query; anything else searches for the conflict name itself.
func buildMediaQuery(conflict string) string {
	cl := strings.ToLower(strings.TrimSpace(conflict))

	if strings.Contains(cl, "iran") {
		return `(Iran OR IRGC OR "Persian Gulf" OR "Strait of Hormuz" ` +
			`OR Khamenei OR Rouhani OR "nuclear deal" OR "Iranian military") ` +
			`AND (US OR America OR strike OR sanctions OR military OR nuclear)`
	}
	if strings.Contains(cl, "ukraine") {
		return `(Ukraine OR Zelensky OR Kyiv OR Donbas OR "Donbass" OR Crimea) ` +
			`AND (Russia OR invasion OR NATO OR military OR sanctions OR war)`
	}

	term := strings.TrimSpace(conflict)
	if term == "" {
		return "conflict OR military OR war"
	}
	if strings.Contains(term, " ") {
		return `"` + term + `"`
	}
	return term
}

func (m *MediaCollector) processArticles(payload *newsAPIResponse) *datatypes.MediaPayload {
	var (
		articles    []datatypes.Article
		scoreSum    float64
		recent24h   int
		sourceCount = make(map[string]int)
	)
	cutoff24h := m.now().UTC().Add(-24 * time.Hour)

	for _, raw := range payload.Articles {
		if containsAnyKeyword(raw.Title, m.tables.Media.TitleExclude) {
			continue
		}

		sentiment := m.lex.Score(raw.Title + "\n" + raw.Description)
		scoreSum += sentiment

		if published, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
			if !published.Before(cutoff24h) {
				recent24h++
			}
		}
		if raw.Source.Name != "" {
			sourceCount[raw.Source.Name]++
		}

		articles = append(articles, datatypes.Article{
			Title:          raw.Title,
			Source:         raw.Source.Name,
			URL:            raw.URL,
			PublishedAt:    raw.PublishedAt,
			SentimentScore: sentiment,
			SentimentLabel: scoring.Label(sentiment),
		})
	}

	var overall float64
	if len(articles) > 0 {
		overall = scoreSum / float64(len(articles))
	}

	return &datatypes.MediaPayload{
		Articles:         articles,
		OverallSentiment: overall,
		SentimentLabel:   scoring.Label(overall),
		TopSources:       topSources(sourceCount, maxTopSources),
		Recent24h:        recent24h,
	}
}

func topSources(counts map[string]int, limit int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}

func (m *MediaCollector) score(overallSentiment float64, recent24h int) float64 {
	score := 50.0

	switch {
	case overallSentiment > 0.5:
		score += 20
	case overallSentiment >= 0.2:
		score += 10
	case overallSentiment < -0.2:
		score -= 15
	}
	if recent24h > 10 {
		score += 10
	}
	return scoring.ClampScore(score)
}
