package port

import "context"

// DensityCorpus abstracts semantic search over the density reference
// documents. Returned chunks are raw text excerpts ordered by relevance.
type DensityCorpus interface {
	Search(ctx context.Context, ingredient string, topK int) ([]string, error)
}
