// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

// maxResponseSize caps the classifier response body.
const maxResponseSize = 1 << 20 // 1MB

// Keywords is the fixed local fallback list. Case-insensitive substring
// match, no scoring, no context awareness - a floor, not a ceiling.
var Keywords = []string{
	"hate",
	"violence",
	"harassment",
	"threat",
	"abuse",
	"spam",
	"scam",
	"phishing",
}

const genericReason = "Content may violate community guidelines"

// Result is a binary accept/reject decision. Any flag blocks the write.
type Result struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason,omitempty"`
}

// Gate checks user-authored text before it enters the authoritative store.
// With an endpoint configured it asks the remote classifier first; any
// remote failure degrades to the keyword fallback and is logged, never
// surfaced to the caller as an error.
type Gate struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *slog.Logger
}

func NewGate(endpoint, apiKey string) *Gate {
	return &Gate{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		apiKey:     apiKey,
		logger:     slog.Default(),
	}
}

// WithHTTPClient replaces the HTTP client. Used by tests.
func (g *Gate) WithHTTPClient(c *http.Client) *Gate {
	g.httpClient = c
	return g
}

// Check moderates a piece of text. It never returns an error.
func (g *Gate) Check(ctx context.Context, text string) Result {
	if g.endpoint != "" {
		result, err := g.checkRemote(ctx, text)
		if err == nil {
			return result
		}
		g.logger.Warn("moderation classifier unavailable, using keyword fallback", "error", err)
	}
	return KeywordCheck(text)
}

type classifierResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

func (g *Gate) checkRemote(ctx context.Context, text string) (Result, error) {
	payload, err := json.Marshal(map[string]string{"input": text})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("moderation API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read moderation response: %w", err)
	}

	var decoded classifierResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Result{}, fmt.Errorf("malformed moderation response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return Result{}, fmt.Errorf("moderation response has no results")
	}

	r := decoded.Results[0]
	if !r.Flagged {
		return Result{}, nil
	}

	var categories []string
	for name, hit := range r.Categories {
		if hit {
			categories = append(categories, name)
		}
	}
	sort.Strings(categories)

	reason := genericReason
	if len(categories) > 0 {
		reason = "Content flagged for: " + strings.Join(categories, ", ")
	}
	return Result{Flagged: true, Reason: reason}, nil
}

// KeywordCheck is the local fallback: first keyword hit flags the text with
// a generic reason.
func KeywordCheck(text string) Result {
	lower := strings.ToLower(text)
	for _, keyword := range Keywords {
		if strings.Contains(lower, keyword) {
			return Result{Flagged: true, Reason: genericReason}
		}
	}
	return Result{}
}
