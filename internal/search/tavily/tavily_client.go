package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"calai/internal/config"
	"calai/internal/port"
)

const apiURL = "https://api.tavily.com/search"

// Client implements port.WebSearcher using the Tavily search API.
type Client struct {
	apiKey     string
	depth      string
	maxResults int
	endpoint   string
	client     *http.Client
}

// NewClient creates a Tavily search client from config.
func NewClient(cfg *config.SearchConfig) *Client {
	return newClient(cfg, apiURL)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.SearchConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.SearchConfig, endpoint string) *Client {
	depth := cfg.Depth
	if depth == "" {
		depth = "advanced"
	}
	maxResults := cfg.MaxResults
	if maxResults == 0 {
		maxResults = 5
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		depth:      depth,
		maxResults: maxResults,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (c *Client) Search(ctx context.Context, query port.SearchQuery) (*port.SearchResult, error) {
	depth := query.Depth
	if depth == "" {
		depth = c.depth
	}
	maxResults := query.MaxResults
	if maxResults == 0 {
		maxResults = c.maxResults
	}

	reqBody := map[string]interface{}{
		"api_key":        c.apiKey,
		"query":          query.Query,
		"search_depth":   depth,
		"max_results":    maxResults,
		"include_answer": true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling tavily API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	result := &port.SearchResult{Answer: parsed.Answer}
	for _, r := range parsed.Results {
		result.Hits = append(result.Hits, port.SearchHit{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}
	return result, nil
}
