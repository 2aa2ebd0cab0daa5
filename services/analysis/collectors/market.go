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
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/scoring"
)

const (
	alphaVantageURL = "https://www.alphavantage.co/query"
	polymarketURL   = "https://gamma-api.polymarket.com/markets"

	maxPredictionMarkets = 5
)

// MarketCollector reads oil benchmarks from Alpha Vantage and conflict
// odds from Polymarket.
type MarketCollector struct {
	fetch  *Fetcher
	tables *config.Tables
	apiKey string
}

func NewMarketCollector(fetch *Fetcher, tables *config.Tables) *MarketCollector {
	return &MarketCollector{
		fetch:  fetch,
		tables: tables,
		apiKey: os.Getenv("ALPHAVANTAGE_API_KEY"),
	}
}

func (m *MarketCollector) Domain() datatypes.Domain { return datatypes.DomainMarket }

func (m *MarketCollector) Collect(ctx context.Context, target Target) (datatypes.SignalRecord, error) {
	if m.apiKey == "" {
		return datatypes.SignalRecord{}, fmt.Errorf("ALPHAVANTAGE_API_KEY is not set")
	}

	var (
		brent, wti datatypes.CommodityQuote
		markets    []datatypes.PredictionMarket
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		brent, err = m.fetchBenchmark(gctx, "BRENT", "Brent crude")
		return err
	})
	g.Go(func() error {
		var err error
		wti, err = m.fetchBenchmark(gctx, "WTI", "WTI crude")
		return err
	})
	g.Go(func() error {
		var err error
		markets, err = m.fetchPredictionMarkets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return datatypes.SignalRecord{}, err
	}

	score := m.score(brent.ChangePct, markets)
	return datatypes.SignalRecord{
		Domain:   datatypes.DomainMarket,
		SubScore: score,
		Summary:  marketSummary(brent, wti, markets, score),
		Market: &datatypes.MarketPayload{
			Benchmarks: []datatypes.CommodityQuote{brent, wti},
			Markets:    markets,
		},
	}, nil
}

// alphaSeries is the Alpha Vantage commodities payload. Values arrive as
// strings and are occasionally "." for missing days.
type alphaSeries struct {
	Data []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"data"`
}

func (m *MarketCollector) fetchBenchmark(ctx context.Context, function, name string) (datatypes.CommodityQuote, error) {
	var series alphaSeries
	params := url.Values{
		"function": {function},
		"interval": {"daily"},
		"apikey":   {m.apiKey},
	}
	if err := m.fetch.GetJSON(ctx, alphaVantageURL, params, &series); err != nil {
		return datatypes.CommodityQuote{}, fmt.Errorf("alpha vantage %s: %w", function, err)
	}

	quote := datatypes.CommodityQuote{Symbol: function, Name: name}
	if len(series.Data) == 0 {
		return quote, nil
	}

	quote.AsOf = series.Data[0].Date
	latest, ok := parsePrice(series.Data[0].Value)
	if !ok {
		return quote, nil
	}
	quote.Price = &latest

	if len(series.Data) > 1 {
		if prev, ok := parsePrice(series.Data[1].Value); ok {
			if pct, ok := scoring.PercentChange(latest, prev); ok {
				quote.ChangePct = &pct
			}
		}
	}
	return quote, nil
}

func parsePrice(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// fetchPredictionMarkets pulls the market list and keeps the most liquid
// conflict-relevant contracts. The gamma API's field names drift, so the
// rows are handled as loose maps like the other scraped feeds.
func (m *MarketCollector) fetchPredictionMarkets(ctx context.Context) ([]datatypes.PredictionMarket, error) {
	var payload any
	params := url.Values{"limit": {"100"}}
	if err := m.fetch.GetJSON(ctx, polymarketURL, params, &payload); err != nil {
		return nil, fmt.Errorf("polymarket: %w", err)
	}

	// The gamma API returns either a bare array or {"markets": [...]}.
	// Unrecognized shapes yield no markets rather than a failed fetch.
	var relevant []datatypes.PredictionMarket
	for _, row := range listUnder(payload, "markets") {
		question := firstString(row, "question", "title", "name")
		if question == "" || !containsAnyKeyword(question, m.tables.Market.Keywords) {
			continue
		}
		probability := extractProbability(row)
		if probability == 0 {
			continue
		}
		relevant = append(relevant, datatypes.PredictionMarket{
			Question:    question,
			Probability: probability,
			Volume:      extractVolume(row),
		})
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		if relevant[i].Volume != relevant[j].Volume {
			return relevant[i].Volume > relevant[j].Volume
		}
		return relevant[i].Probability > relevant[j].Probability
	})
	if len(relevant) > maxPredictionMarkets {
		relevant = relevant[:maxPredictionMarkets]
	}
	return relevant, nil
}

// extractProbability takes the highest outcome price as the implied
// conflict probability.
func extractProbability(row map[string]any) float64 {
	prices, ok := row["outcomePrices"]
	if !ok {
		prices = row["prices"]
	}

	var max float64
	for _, v := range asSlice(prices) {
		if p, ok := asFloat(v); ok && p > max {
			max = p
		}
	}
	return max
}

func extractVolume(row map[string]any) float64 {
	for _, key := range []string{"volume", "volume24hr", "volume24h", "liquidity"} {
		if v, present := row[key]; present {
			if f, ok := asFloat(v); ok {
				return f
			}
		}
	}
	return 0
}

func (m *MarketCollector) score(brentChangePct *float64, markets []datatypes.PredictionMarket) float64 {
	score := 50.0

	if brentChangePct != nil {
		switch pct := *brentChangePct; {
		case pct >= 5.0:
			score += 15
		case pct >= 2.0:
			score += 8
		case pct < 0:
			score -= 10
		}
	}

	var maxProb float64
	for _, pm := range markets {
		if pm.Probability > maxProb {
			maxProb = pm.Probability
		}
	}
	if maxProb > 0.50 {
		score += 20
	} else if maxProb >= 0.30 {
		score += 10
	}

	// Named-entity bonus applies at most once.
	for _, pm := range markets {
		if pm.Probability > 0.40 && containsAnyKeyword(pm.Question, m.tables.Market.EntityKeywords) {
			score += 8
			break
		}
	}

	return scoring.ClampScore(score)
}

func marketSummary(brent, wti datatypes.CommodityQuote, markets []datatypes.PredictionMarket, score float64) string {
	var b strings.Builder
	b.WriteString(quoteSentence(brent))
	b.WriteString(" ")
	b.WriteString(quoteSentence(wti))

	if len(markets) > 0 {
		var maxProb float64
		for _, pm := range markets {
			if pm.Probability > maxProb {
				maxProb = pm.Probability
			}
		}
		fmt.Fprintf(&b, " Prediction markets imply up to %.0f%% probability on key conflict scenarios.", maxProb*100)
	} else {
		b.WriteString(" No highly relevant conflict prediction markets were detected.")
	}

	fmt.Fprintf(&b, " Market escalation score: %.1f.", score)
	return b.String()
}

func quoteSentence(q datatypes.CommodityQuote) string {
	change := "0.0%"
	if q.ChangePct != nil {
		change = fmt.Sprintf("%+.1f%%", *q.ChangePct)
	}
	price := "?"
	if q.Price != nil {
		price = fmt.Sprintf("%.2f", *q.Price)
	}
	asOf := q.AsOf
	if asOf == "" {
		asOf = "unknown"
	}
	return fmt.Sprintf("%s is %s at %s as of %s.", q.Name, change, price, asOf)
}
