// Package knowledgebase couples the fact store with the vector index so that
// every committed fact is persisted and indexed as one unit.
package knowledgebase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/cake/pkg/eventstream"
	"github.com/papercomputeco/cake/pkg/factstore"
	"github.com/papercomputeco/cake/pkg/index"
	"github.com/papercomputeco/cake/pkg/knowledge"
)

const publishTimeout = 10 * time.Second

// Match is a retrieved fact and its distance to the query.
type Match struct {
	knowledge.Fact
	Distance float32 `json:"distance"`
}

// Stats summarises the knowledge base.
type Stats struct {
	Facts   int  `json:"facts"`
	Indexed int  `json:"indexed"`
	InSync  bool `json:"in_sync"`
}

// Base is the knowledge base.
type Base struct {
	store     *factstore.Store
	index     *index.Index
	publisher eventstream.Publisher
	logger    *slog.Logger
	clock     func() time.Time

	// mu serialises writers so the index count read by Commit stays valid
	// until its sync lands.
	mu sync.Mutex
}

// New creates a knowledge base.
func New(store *factstore.Store, idx *index.Index, publisher eventstream.Publisher, logger *slog.Logger) *Base {
	return &Base{
		store:     store,
		index:     idx,
		publisher: publisher,
		logger:    logger,
		clock:     time.Now,
	}
}

// Commit proposes candidates to the fact store and indexes the accepted
// facts, preceded by any stored facts an earlier failed sync left out of the
// index. Cancellation is honoured only before the store write begins; from
// then on both writes run to completion. The accepted facts are returned,
// together with any indexing error, so callers can report what was stored.
func (b *Base) Commit(ctx context.Context, origin string, candidates []knowledge.Triplet) ([]knowledge.Fact, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	wctx := context.WithoutCancel(ctx)

	accepted, err := b.store.Propose(wctx, candidates)
	if err != nil {
		return nil, err
	}
	if len(accepted) == 0 {
		b.logger.Debug("no new facts to commit", "candidates", len(candidates), "origin", origin)
		return nil, nil
	}

	pending, err := b.unindexed(wctx, accepted)
	if err == nil {
		err = b.index.Sync(wctx, pending)
	}
	if err != nil {
		b.logger.Error("facts stored but not indexed, run reindex to recover",
			"accepted", len(accepted),
			"first_id", accepted[0].ID,
			"error", err,
		)
		return accepted, fmt.Errorf("indexing committed facts: %w", err)
	}

	b.publish(wctx, origin, accepted)

	b.logger.Info("committed knowledge",
		"origin", origin,
		"candidates", len(candidates),
		"accepted", len(accepted),
	)
	return accepted, nil
}

// unindexed returns the stored facts missing from the index, ending with
// accepted. Usually that is accepted itself; after a failed sync it also
// holds the backlog.
func (b *Base) unindexed(ctx context.Context, accepted []knowledge.Fact) ([]knowledge.Fact, error) {
	n, err := b.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting vector index: %w", err)
	}

	first := accepted[0].ID
	switch {
	case uint64(n) == first:
		return accepted, nil
	case uint64(n) > first:
		return nil, fmt.Errorf("%w: index holds %d entries, first new fact is %d", index.ErrAhead, n, first)
	}

	facts, err := b.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Warn("indexing facts left behind by an earlier failure",
		"backlog", int(first)-n,
		"accepted", len(accepted),
	)
	return facts[n:], nil
}

func (b *Base) publish(ctx context.Context, origin string, facts []knowledge.Fact) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	event := eventstream.NewKnowledgeAcceptedEvent(origin, facts, b.clock())
	if err := b.publisher.PublishAccepted(ctx, event); err != nil {
		b.logger.Warn("failed to publish knowledge event",
			"event_id", event.EventID,
			"error", err,
		)
	}
}

// Search returns up to k stored facts nearest to query.
func (b *Base) Search(ctx context.Context, query string, k int) ([]knowledge.Fact, error) {
	matches, err := b.Matches(ctx, query, k)
	if err != nil {
		return nil, err
	}

	facts := make([]knowledge.Fact, len(matches))
	for i, m := range matches {
		facts[i] = m.Fact
	}
	return facts, nil
}

// Matches is Search with the distance of each fact.
func (b *Base) Matches(ctx context.Context, query string, k int) ([]Match, error) {
	hits, err := b.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]uint64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	facts, err := b.store.Get(ctx, ids...)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]knowledge.Fact, len(facts))
	for _, f := range facts {
		byID[f.ID] = f
	}

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		f, ok := byID[h.ID]
		if !ok {
			b.logger.Warn("index hit has no stored fact", "id", h.ID)
			continue
		}
		matches = append(matches, Match{Fact: f, Distance: h.Distance})
	}
	return matches, nil
}

// Facts returns every stored fact.
func (b *Base) Facts(ctx context.Context) ([]knowledge.Fact, error) {
	return b.store.Load(ctx)
}

// Stats reports the store and index sizes.
func (b *Base) Stats(ctx context.Context) (Stats, error) {
	n, err := b.store.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	indexed, aligned, err := b.index.Aligned(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Facts: n, Indexed: indexed, InSync: aligned && n == indexed}, nil
}

// Reconcile indexes stored facts that are missing from the index.
func (b *Base) Reconcile(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	facts, err := b.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	return b.index.Reconcile(ctx, facts)
}

// Close releases the index and the publisher.
func (b *Base) Close() error {
	indexErr := b.index.Close()
	if err := b.publisher.Close(); err != nil {
		return err
	}
	return indexErr
}
