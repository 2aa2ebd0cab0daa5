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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const fetchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// HTTPClient interface allows injecting mock HTTP clients for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher is the shared outbound HTTP helper for all collectors. A single
// rate limiter covers every upstream so a burst of runs cannot hammer the
// public endpoints.
type Fetcher struct {
	client  HTTPClient
	limiter *rate.Limiter
}

// NewFetcher wraps an HTTP client. Pass nil to get a default client with a
// 15 second timeout.
func NewFetcher(client HTTPClient) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

func (f *Fetcher) get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("bad URL %q: %w", rawURL, err)
		}
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("upstream returned status %s", resp.Status)
	}
	return resp, nil
}

// GetJSON fetches a URL and decodes the body into out.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	resp, err := f.get(ctx, rawURL, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// GetText fetches a URL and returns the raw body.
func (f *Fetcher) GetText(ctx context.Context, rawURL string, params url.Values) (string, error) {
	resp, err := f.get(ctx, rawURL, params)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}
