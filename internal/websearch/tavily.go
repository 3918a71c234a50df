// Package websearch provides web search backends for the context fallback.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ragquiz/internal/rag"
)

const DefaultTavilyBaseURL = "https://api.tavily.com"

var ErrMissingAPIKey = errors.New("tavily api key is not configured")

type TavilyConfig struct {
	BaseURL     string
	APIKey      string
	SearchDepth string
	Timeout     time.Duration
}

type TavilyClient struct {
	cfg        TavilyConfig
	httpClient *http.Client
}

func NewTavilyClient(cfg TavilyConfig) *TavilyClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTavilyBaseURL
	}
	if cfg.SearchDepth == "" {
		cfg.SearchDepth = "basic"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &TavilyClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search returns results in the order Tavily ranks them.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]rag.WebResult, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	bodyBytes, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: c.cfg.SearchDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tavily request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build tavily request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tavily response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tavily response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse tavily json failed: %w", err)
	}
	out := make([]rag.WebResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, rag.WebResult{Title: r.Title, Content: r.Content, URL: r.URL})
	}
	return out, nil
}
