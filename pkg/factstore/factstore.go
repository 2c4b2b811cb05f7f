// Package factstore persists knowledge facts as a single JSON document.
//
// The store only grows: Propose appends triplets whose identity triple is
// not present yet and rewrites the whole document with an atomic replace.
package factstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/papercomputeco/cake/pkg/knowledge"
)

// Store is the JSON backed fact store.
type Store struct {
	path   string
	logger *slog.Logger
	clock  func() time.Time

	// mu serialises writers inside the process.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp ingestion timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// New returns a store persisted at path. The file is created on the first
// accepted batch.
func New(path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("fact store path is required")
	}

	s := &Store{
		path:   path,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Path returns the location of the fact document.
func (s *Store) Path() string {
	return s.path
}

// Propose appends the candidates whose identity triple is new and returns
// them as facts, in input order. Duplicates of stored facts and of earlier
// candidates in the same batch are skipped. Candidates without a timestamp
// are stamped with the ingestion time. An empty batch touches nothing.
func (s *Store) Propose(ctx context.Context, candidates []knowledge.Triplet) ([]knowledge.Fact, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	facts, err := s.load()
	if err != nil {
		return nil, err
	}

	seen := make(map[knowledge.Key]int, len(facts)+len(candidates))
	for i, f := range facts {
		seen[f.Key()] = i
	}

	now := s.clock().UTC().Format(time.RFC3339)
	var accepted []knowledge.Fact
	for _, c := range candidates {
		if c.Timestamp == "" {
			c.Timestamp = now
		}

		if i, dup := seen[c.Key()]; dup {
			s.logger.Debug("skipping duplicate fact",
				"subject", c.Subject,
				"predicate", c.Predicate,
				"object", c.Object,
				"existing_id", facts[i].ID,
				"existing_range", rangeOf(facts[i].Triplet),
				"candidate_range", rangeOf(c),
			)
			continue
		}

		f := knowledge.Fact{ID: uint64(len(facts)), Triplet: c}
		seen[c.Key()] = len(facts)
		facts = append(facts, f)
		accepted = append(accepted, f)
	}

	if err := s.write(facts); err != nil {
		return nil, err
	}

	s.logger.Debug("proposed facts",
		"candidates", len(candidates),
		"accepted", len(accepted),
		"total", len(facts),
	)

	return accepted, nil
}

// Load returns every stored fact in insertion order.
func (s *Store) Load(ctx context.Context) ([]knowledge.Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load()
}

// Len returns the number of stored facts.
func (s *Store) Len(ctx context.Context) (int, error) {
	facts, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(facts), nil
}

// Get returns the facts with the given IDs, in the order requested. Unknown
// IDs are skipped.
func (s *Store) Get(ctx context.Context, ids ...uint64) ([]knowledge.Fact, error) {
	facts, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]knowledge.Fact, 0, len(ids))
	for _, id := range ids {
		if id < uint64(len(facts)) {
			out = append(out, facts[id])
		}
	}
	return out, nil
}

// storedFact accepts documents written before facts carried IDs.
type storedFact struct {
	ID *uint64 `json:"id,omitempty"`
	knowledge.Triplet
}

func (s *Store) load() ([]knowledge.Fact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading fact store %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var stored []storedFact
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", knowledge.ErrStoreCorrupt, s.path, err)
	}

	facts := make([]knowledge.Fact, len(stored))
	for i, sf := range stored {
		id := uint64(i)
		if sf.ID != nil && *sf.ID != id {
			return nil, fmt.Errorf("%w: %s: record %d carries id %d", knowledge.ErrStoreCorrupt, s.path, i, *sf.ID)
		}
		facts[i] = knowledge.Fact{ID: id, Triplet: sf.Triplet}
	}

	return facts, nil
}

func (s *Store) write(facts []knowledge.Fact) error {
	if facts == nil {
		facts = []knowledge.Fact{}
	}

	data, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding fact store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating fact store directory: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing fact store %s: %w", s.path, err)
	}

	return nil
}

func rangeOf(t knowledge.Triplet) string {
	if !t.HasRange() {
		return ""
	}
	return fmt.Sprintf("%.2f-%.2f", *t.Start, *t.End)
}
