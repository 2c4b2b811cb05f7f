// Package index keeps the vector index in lockstep with the fact store:
// every accepted fact is embedded from its canonical text and appended
// under its fact ID.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/cake/pkg/embeddings"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/vector"
)

var (
	// ErrAhead is returned when the index holds more entries than the fact
	// store.
	ErrAhead = errors.New("vector index ahead of fact store")

	// ErrOutOfOrder is returned by Sync for a batch that does not continue
	// the index: entry i must belong to fact i.
	ErrOutOfOrder = errors.New("facts do not continue the vector index")

	// ErrNotPrefix is returned by Reconcile when the index holds entries that
	// are not the leading facts of the store. The index has to be rebuilt.
	ErrNotPrefix = errors.New("vector index is not a prefix of the fact store")
)

// Hit is a search result keyed by fact ID.
type Hit struct {
	ID       uint64
	Text     string
	Distance float32
}

// Index couples an embedder with a vector driver.
type Index struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	logger   *slog.Logger
}

// New creates an index.
func New(embedder embeddings.Embedder, driver vector.Driver, logger *slog.Logger) *Index {
	return &Index{
		embedder: embedder,
		driver:   driver,
		logger:   logger,
	}
}

// Sync embeds facts and appends them to the driver. facts must continue the
// index: the first ID equals the current entry count and IDs are
// consecutive. The whole batch is embedded before anything is written, so an
// embedding failure leaves the index untouched.
func (i *Index) Sync(ctx context.Context, facts []knowledge.Fact) error {
	if len(facts) == 0 {
		return nil
	}

	n, err := i.driver.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting vector index: %w", err)
	}
	for k, f := range facts {
		if want := uint64(n + k); f.ID != want {
			return fmt.Errorf("%w: got id %d, want %d", ErrOutOfOrder, f.ID, want)
		}
	}

	texts := make([]string, len(facts))
	for n, f := range facts {
		texts[n] = f.Text()
	}

	vecs, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d facts: %w", len(facts), err)
	}
	if len(vecs) != len(facts) {
		return fmt.Errorf("%w: embedded %d of %d facts", vector.ErrEmbedding, len(vecs), len(facts))
	}

	docs := make([]vector.Document, len(facts))
	for n, f := range facts {
		docs[n] = vector.Document{ID: f.ID, Text: texts[n], Embedding: vecs[n]}
	}

	if err := i.driver.Add(ctx, docs); err != nil {
		return fmt.Errorf("adding to vector index: %w", err)
	}

	i.logger.Debug("synced facts to vector index",
		"count", len(docs),
		"first_id", docs[0].ID,
		"last_id", docs[len(docs)-1].ID,
	)
	return nil
}

// Search returns up to k facts nearest to query. An empty index answers
// without calling the embedder.
func (i *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	n, err := i.driver.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting vector index: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	vec, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := i.driver.Query(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}

	hits := make([]Hit, len(results))
	for n, r := range results {
		hits[n] = Hit{ID: r.ID, Text: r.Text, Distance: r.Distance}
	}
	return hits, nil
}

// Count returns the number of indexed entries.
func (i *Index) Count(ctx context.Context) (int, error) {
	return i.driver.Count(ctx)
}

// Reconcile appends the facts the index is missing. facts must be the full
// store in ID order. The index must hold a prefix of it, which is what a
// failed or interrupted index write leaves behind. It returns the number of
// entries added.
func (i *Index) Reconcile(ctx context.Context, facts []knowledge.Fact) (int, error) {
	n, err := i.driver.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting vector index: %w", err)
	}
	if n > len(facts) {
		return 0, fmt.Errorf("%w: index holds %d entries, store holds %d", ErrAhead, n, len(facts))
	}
	if err := i.checkPrefix(ctx, n); err != nil {
		return 0, err
	}
	if n == len(facts) {
		return 0, nil
	}

	missing := facts[n:]
	i.logger.Info("reconciling vector index", "indexed", n, "stored", len(facts), "missing", len(missing))

	if err := i.Sync(ctx, missing); err != nil {
		return 0, err
	}
	return len(missing), nil
}

// Aligned returns the entry count and whether those entries are facts 0
// through count-1. With distinct IDs that holds exactly when no entry has an
// ID of count or more.
func (i *Index) Aligned(ctx context.Context) (int, bool, error) {
	n, err := i.driver.Count(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("counting vector index: %w", err)
	}
	above, err := i.countFrom(ctx, n)
	if err != nil {
		return 0, false, err
	}
	return n, above == 0, nil
}

func (i *Index) checkPrefix(ctx context.Context, n int) error {
	above, err := i.countFrom(ctx, n)
	if err != nil {
		return err
	}
	if above > 0 {
		return fmt.Errorf("%w: %d of %d entries have an id of %d or more", ErrNotPrefix, above, n, n)
	}
	return nil
}

func (i *Index) countFrom(ctx context.Context, n int) (int, error) {
	above, err := i.driver.CountFrom(ctx, uint64(n))
	if err != nil {
		return 0, fmt.Errorf("checking vector index order: %w", err)
	}
	return above, nil
}

// Close releases the embedder and the driver.
func (i *Index) Close() error {
	return errors.Join(i.embedder.Close(), i.driver.Close())
}
