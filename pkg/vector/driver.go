// Package vector provides interfaces and implementations for vector storage.
package vector

import "context"

// Document is one indexed entry: the embedding of a fact's canonical text,
// keyed by the fact's ID.
type Document struct {
	// ID is the fact ID this entry belongs to.
	ID uint64

	// Text is the canonical "subject predicate object" text that was embedded.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// QueryResult is a search hit.
type QueryResult struct {
	Document

	// Distance is the Euclidean (L2) distance to the query; lower is closer.
	Distance float32
}

// Driver stores embeddings and answers nearest-neighbour queries.
type Driver interface {
	// Add appends documents. Documents are never updated or removed; an ID
	// that is already stored is an error.
	Add(ctx context.Context, docs []Document) error

	// Query returns up to topK documents closest to embedding, ordered by
	// ascending distance, ties broken by ascending ID.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// CountFrom returns the number of stored documents whose ID is at least
	// id. An index holding n documents is a prefix of the fact store exactly
	// when CountFrom(n) is zero.
	CountFrom(ctx context.Context, id uint64) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
