package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func newsBody(t *testing.T, now time.Time, articles ...map[string]any) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{"status": "ok", "articles": articles})
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func article(title, source string, publishedAt time.Time) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "",
		"url":         "https://example.com/a",
		"publishedAt": publishedAt.Format(time.RFC3339),
		"source":      map[string]any{"name": source},
	}
}

func TestMediaCollectorScoresCoverage(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "test")
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	body := newsBody(t, now,
		article("Missile strike kills troops in attack", "Reuters", now.Add(-2*time.Hour)),
		article("Military threat of war and retaliation grows", "Reuters", now.Add(-3*time.Hour)),
		article("Nuclear explosion fear after strike", "BBC News", now.Add(-30*time.Hour)),
		article("Eurovision weekend sports roundup", "BBC News", now.Add(-time.Hour)),
	)

	mock := &mockHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		if q.Get("apiKey") != "test" {
			t.Errorf("apiKey = %q", q.Get("apiKey"))
		}
		if !strings.Contains(q.Get("domains"), "reuters.com") {
			t.Errorf("domains = %q", q.Get("domains"))
		}
		if !strings.Contains(q.Get("q"), "IRGC") {
			t.Errorf("query = %q", q.Get("q"))
		}
		return httpResponse(200, body), nil
	}}

	mc := NewMediaCollector(NewFetcher(mock), testTables(t))
	mc.now = func() time.Time { return now }

	rec, err := mc.Collect(context.Background(), Target{Conflict: "iran"})
	if err != nil {
		t.Fatal(err)
	}

	payload := rec.Media
	if payload == nil {
		t.Fatal("no media payload")
	}
	// The eurovision/sports headline is excluded.
	if len(payload.Articles) != 3 {
		t.Fatalf("articles = %+v", payload.Articles)
	}
	// Every kept article saturates the escalation cap, sentiment 1.0.
	if payload.OverallSentiment != 1.0 {
		t.Errorf("overall sentiment = %v", payload.OverallSentiment)
	}
	if payload.SentimentLabel != "ESCALATORY" {
		t.Errorf("label = %q", payload.SentimentLabel)
	}
	// Two of three inside 24h.
	if payload.Recent24h != 2 {
		t.Errorf("recent_24h = %d", payload.Recent24h)
	}
	if payload.TopSources[0] != "Reuters" {
		t.Errorf("top sources = %v", payload.TopSources)
	}
	// Base 50 + 20 for strongly escalatory sentiment.
	if rec.SubScore != 70 {
		t.Errorf("sub_score = %v, want 70", rec.SubScore)
	}
	if rec.Summary != "3 articles analyzed. Sentiment: ESCALATORY." {
		t.Errorf("summary = %q", rec.Summary)
	}
}

func TestMediaCollectorHighVolumeBump(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "test")
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	var articles []map[string]any
	for i := 0; i < 12; i++ {
		articles = append(articles, article(fmt.Sprintf("Ceasefire talks update %d", i), "AP", now.Add(-time.Hour)))
	}
	body := newsBody(t, now, articles...)

	mock := &mockHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
		return httpResponse(200, body), nil
	}}
	mc := NewMediaCollector(NewFetcher(mock), testTables(t))
	mc.now = func() time.Time { return now }

	rec, err := mc.Collect(context.Background(), Target{Conflict: "ukraine"})
	if err != nil {
		t.Fatal(err)
	}
	// Sentiment is de-escalatory (-15) but 12 articles in 24h add +10.
	if rec.SubScore != 45 {
		t.Errorf("sub_score = %v, want 45", rec.SubScore)
	}
	if rec.Media.SentimentLabel != "DE-ESCALATORY" {
		t.Errorf("label = %q", rec.Media.SentimentLabel)
	}
}

func TestMediaCollectorMissingAPIKey(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "")

	mc := NewMediaCollector(NewFetcher(nil), testTables(t))
	_, err := mc.Collect(context.Background(), Target{Conflict: "iran"})
	if err == nil || !strings.Contains(err.Error(), "NEWS_API_KEY") {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildMediaQuery(t *testing.T) {
	cases := []struct {
		conflict string
		contains string
	}{
		{"iran", "Strait of Hormuz"},
		{"Iran-Israel", "IRGC"},
		{"ukraine war", "Zelensky"},
		{"taiwan strait", `"taiwan strait"`},
		{"sudan", "sudan"},
		{"", "conflict OR military OR war"},
	}
	for _, tc := range cases {
		got := buildMediaQuery(tc.conflict)
		if !strings.Contains(got, tc.contains) {
			t.Errorf("buildMediaQuery(%q) = %q, want it to contain %q", tc.conflict, got, tc.contains)
		}
	}
}
