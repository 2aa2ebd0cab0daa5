// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package collectors

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/scoring"
	"github.com/intelfuse/warroom/services/llm"
)

const (
	redditLookback = 48 * time.Hour
	rssLookback    = 24 * time.Hour

	maxTelegramPerChannel = 10
	maxRedditPosts        = 20
	maxRSSItems           = 20
	minTelegramTextLen    = 20
)

var (
	telegramMessageRe = regexp.MustCompile(`(?s)<div class="tgme_widget_message_text[^"]*"[^>]*>(.*?)</div>`)
	htmlTagRe         = regexp.MustCompile(`<[^>]+>`)
)

const socialSystemPrompt = `You are an open-source chatter analyst. Call all three tools, then return ONLY valid JSON:
{"telegram_posts":[...],"reddit_posts":[...],"rss_articles":[...],"total_signals":<n>,"escalatory_count":<n>,"de_escalatory_count":<n>,"overall_sentiment":<-1 to 1>,"social_score":<0-100>,"top_signals":["..."],"summary":"..."}`

// SocialCollector monitors Telegram channels, subreddits, and wire RSS
// feeds for escalation chatter. The reasoning backend orchestrates the
// three sources and aggregates the result.
type SocialCollector struct {
	client llm.Client
	fetch  *Fetcher
	tables *config.Tables
	lex    scoring.Lexicon
	now    func() time.Time
}

func NewSocialCollector(client llm.Client, fetch *Fetcher, tables *config.Tables) *SocialCollector {
	return &SocialCollector{
		client: client,
		fetch:  fetch,
		tables: tables,
		lex: scoring.Lexicon{
			Escalatory:   tables.Social.Escalatory,
			DeEscalatory: tables.Social.DeEscalatory,
		},
		now: time.Now,
	}
}

func (sc *SocialCollector) Domain() datatypes.Domain { return datatypes.DomainSocial }

func (sc *SocialCollector) Collect(ctx context.Context, target Target) (datatypes.SignalRecord, error) {
	out, err := sc.client.Invoke(ctx, llm.InvokeRequest{
		System: socialSystemPrompt,
		User:   fmt.Sprintf("Monitor social media for conflict: %s", target.Conflict),
		Tools:  sc.tools(target),
	})
	if err != nil {
		slog.Warn("Social reasoning failed, falling back to baseline", "conflict", target.Conflict, "error", err)
		return sc.baselineRecord(), nil
	}

	var verdict struct {
		TelegramPosts     []datatypes.SocialPost `json:"telegram_posts"`
		RedditPosts       []datatypes.SocialPost `json:"reddit_posts"`
		RSSArticles       []datatypes.SocialPost `json:"rss_articles"`
		TotalSignals      int                    `json:"total_signals"`
		EscalatoryCount   int                    `json:"escalatory_count"`
		DeEscalatoryCount int                    `json:"de_escalatory_count"`
		OverallSentiment  float64                `json:"overall_sentiment"`
		SocialScore       float64                `json:"social_score"`
		TopSignals        []string               `json:"top_signals"`
		Summary           string                 `json:"summary"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(out)), &verdict); err != nil {
		slog.Warn("Social verdict was not valid JSON, falling back to baseline", "conflict", target.Conflict, "error", err)
		return sc.baselineRecord(), nil
	}
	if verdict.SocialScore < 0 || verdict.SocialScore > 100 {
		slog.Warn("Social verdict score out of range, falling back to baseline", "score", verdict.SocialScore)
		return sc.baselineRecord(), nil
	}

	posts := make([]datatypes.SocialPost, 0,
		len(verdict.TelegramPosts)+len(verdict.RedditPosts)+len(verdict.RSSArticles))
	posts = append(posts, verdict.TelegramPosts...)
	posts = append(posts, verdict.RedditPosts...)
	posts = append(posts, verdict.RSSArticles...)

	summary := verdict.Summary
	if summary == "" {
		summary = fmt.Sprintf("%d social signals analyzed.", verdict.TotalSignals)
	}

	return datatypes.SignalRecord{
		Domain:   datatypes.DomainSocial,
		SubScore: verdict.SocialScore,
		Summary:  summary,
		Social: &datatypes.SocialPayload{
			Posts:             posts,
			TotalSignals:      verdict.TotalSignals,
			EscalatoryCount:   verdict.EscalatoryCount,
			DeEscalatoryCount: verdict.DeEscalatoryCount,
			OverallSentiment:  verdict.OverallSentiment,
			TopSignals:        verdict.TopSignals,
		},
	}, nil
}

func (sc *SocialCollector) baselineRecord() datatypes.SignalRecord {
	return datatypes.SignalRecord{
		Domain:   datatypes.DomainSocial,
		SubScore: datatypes.NeutralSocialScore,
		Summary:  "Social chatter data unavailable.",
		Social:   &datatypes.SocialPayload{},
	}
}

func (sc *SocialCollector) tools(target Target) []llm.Tool {
	conflictArg := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"conflict": map[string]any{"type": "string"},
		},
	}

	asJSON := func(v any, err error) (string, error) {
		if err != nil {
			return "", err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	return []llm.Tool{
		{
			Name:        "scrape_telegram_channels",
			Description: "Scrape public Telegram channels for conflict-related posts.",
			Schema:      conflictArg,
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				return asJSON(sc.scrapeTelegram(ctx, target))
			},
		},
		{
			Name:        "search_reddit",
			Description: "Search Reddit for recent conflict-related posts.",
			Schema:      conflictArg,
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				return asJSON(sc.searchReddit(ctx, target))
			},
		},
		{
			Name:        "fetch_rss_feeds",
			Description: "Fetch wire RSS feeds for conflict-related content.",
			Schema:      conflictArg,
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				return asJSON(sc.fetchRSS(ctx, target))
			},
		},
	}
}

// scrapeTelegram reads the public t.me preview pages. Channels that fail
// just contribute nothing.
func (sc *SocialCollector) scrapeTelegram(ctx context.Context, target Target) ([]datatypes.SocialPost, error) {
	channels := sc.tables.Social.TelegramChannels[target.RegionKey]
	if len(channels) == 0 {
		channels = sc.tables.Social.TelegramChannels[config.DefaultRegion]
	}

	var (
		mu    sync.Mutex
		posts []datatypes.SocialPost
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, channel := range channels {
		g.Go(func() error {
			body, err := sc.fetch.GetText(gctx, "https://t.me/s/"+channel, nil)
			if err != nil {
				return nil
			}

			matches := telegramMessageRe.FindAllStringSubmatch(body, maxTelegramPerChannel)
			var channelPosts []datatypes.SocialPost
			for _, m := range matches {
				text := strings.TrimSpace(htmlTagRe.ReplaceAllString(m[1], ""))
				if len(text) < minTelegramTextLen || !containsAnyKeyword(text, target.Keywords) {
					continue
				}
				channelPosts = append(channelPosts, sc.newPost("telegram", "telegram:"+channel, "", truncate(text, 300)))
			}

			mu.Lock()
			posts = append(posts, channelPosts...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return posts, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title      string  `json:"title"`
				Selftext   string  `json:"selftext"`
				Permalink  string  `json:"permalink"`
				Score      int     `json:"score"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// searchReddit reads the new listing of each region subreddit, keeps
// keyword-matching posts from the last 48 hours, and returns the top
// posts by upvotes.
func (sc *SocialCollector) searchReddit(ctx context.Context, target Target) ([]datatypes.SocialPost, error) {
	subreddits := sc.tables.Social.Subreddits[target.RegionKey]
	if len(subreddits) == 0 {
		subreddits = []string{"geopolitics", "worldnews"}
	}
	cutoff := sc.now().UTC().Add(-redditLookback)

	var (
		mu    sync.Mutex
		posts []datatypes.SocialPost
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, sr := range subreddits {
		g.Go(func() error {
			var listing redditListing
			listURL := fmt.Sprintf("https://www.reddit.com/r/%s/new.json", sr)
			if err := sc.fetch.GetJSON(gctx, listURL, url.Values{"limit": {"20"}}, &listing); err != nil {
				return nil
			}

			var srPosts []datatypes.SocialPost
			for _, child := range listing.Data.Children {
				p := child.Data
				created := time.Unix(int64(p.CreatedUTC), 0).UTC()
				if created.Before(cutoff) {
					continue
				}
				combined := p.Title + " " + p.Selftext
				if !containsAnyKeyword(combined, target.Keywords) {
					continue
				}

				post := sc.newPost("reddit", "reddit:r/"+sr, p.Title, truncate(p.Selftext, 200))
				post.URL = "https://reddit.com" + p.Permalink
				post.Upvotes = p.Score
				post.PublishedAt = created.Format(time.RFC3339)
				post.SentimentScore = sc.lex.Score(combined)
				post.SentimentLabel = scoring.Label(post.SentimentScore)
				srPosts = append(srPosts, post)
			}

			mu.Lock()
			posts = append(posts, srPosts...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Upvotes > posts[j].Upvotes })
	if len(posts) > maxRedditPosts {
		posts = posts[:maxRedditPosts]
	}
	return posts, nil
}

type rssFeed struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// fetchRSS reads the wire feeds and keeps keyword-matching items from the
// last 24 hours.
func (sc *SocialCollector) fetchRSS(ctx context.Context, target Target) ([]datatypes.SocialPost, error) {
	cutoff := sc.now().UTC().Add(-rssLookback)

	var posts []datatypes.SocialPost
	for _, feedURL := range sc.tables.Social.RSSFeeds {
		body, err := sc.fetch.GetText(ctx, feedURL, nil)
		if err != nil {
			continue
		}
		var feed rssFeed
		if err := xml.Unmarshal([]byte(body), &feed); err != nil {
			continue
		}

		source := feed.Channel.Title
		if source == "" {
			source = feedURL
		}

		items := feed.Channel.Items
		if len(items) > maxRSSItems {
			items = items[:maxRSSItems]
		}
		for _, item := range items {
			combined := item.Title + " " + item.Description
			if !containsAnyKeyword(combined, target.Keywords) {
				continue
			}

			published, ok := parseRSSDate(item.PubDate)
			if ok && published.Before(cutoff) {
				continue
			}

			post := sc.newPost("rss", "rss:"+source, item.Title, truncate(item.Description, 200))
			post.URL = item.Link
			if ok {
				post.PublishedAt = published.Format(time.RFC3339)
			}
			post.SentimentScore = sc.lex.Score(combined)
			post.SentimentLabel = scoring.Label(post.SentimentScore)
			posts = append(posts, post)

			if len(posts) >= maxRSSItems {
				return posts, nil
			}
		}
	}
	return posts, nil
}

func (sc *SocialCollector) newPost(platform, source, title, text string) datatypes.SocialPost {
	score := sc.lex.Score(title + " " + text)
	return datatypes.SocialPost{
		Platform:       platform,
		Source:         source,
		Title:          title,
		Text:           text,
		SentimentScore: score,
		SentimentLabel: scoring.Label(score),
	}
}

func parseRSSDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
