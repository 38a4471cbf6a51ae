package port

import "context"

// SearchQuery describes a single web search request.
type SearchQuery struct {
	Query      string
	Depth      string
	MaxResults int
}

// SearchHit is one result returned by the search provider.
type SearchHit struct {
	Title   string
	URL     string
	Content string
}

// SearchResult is the provider's answer plus the raw hits.
type SearchResult struct {
	Answer string
	Hits   []SearchHit
}

// WebSearcher abstracts a web search provider.
type WebSearcher interface {
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
}
