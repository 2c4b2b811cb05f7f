// Package flat provides an exact, brute-force L2 vector driver that keeps
// every entry in memory and persists a full binary snapshot on each add.
package flat

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/papercomputeco/cake/pkg/vector"
)

const snapshotVersion = 1

// Config holds configuration for the flat driver.
type Config struct {
	// Path is the snapshot file. Empty keeps the index in memory only.
	Path string
}

// Driver implements vector.Driver over an in-memory slice of entries.
type Driver struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	dimension int
	entries   []vector.Document
}

// snapshot is the persisted form of the index.
type snapshot struct {
	Version   int
	Dimension int
	Entries   []vector.Document
}

// NewDriver opens the index, loading the snapshot at cfg.Path when present.
func NewDriver(cfg Config, logger *slog.Logger) (*Driver, error) {
	d := &Driver{
		path:   cfg.Path,
		logger: logger,
	}

	if err := d.load(); err != nil {
		return nil, err
	}

	logger.Debug("flat vector driver initialized",
		"path", cfg.Path,
		"entries", len(d.entries),
		"dimension", d.dimension,
	)

	return d, nil
}

// Dimension returns the vector length, or 0 while the index is empty.
func (d *Driver) Dimension() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dimension
}

// Add appends docs and rewrites the snapshot. The dimension is fixed by the
// first document ever added. IDs must be strictly increasing. Nothing is
// applied unless the whole batch is valid and persisted.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dim := d.dimension
	if dim == 0 {
		dim = len(docs[0].Embedding)
		if dim == 0 {
			return fmt.Errorf("%w: empty embedding for id %d", vector.ErrDimensionMismatch, docs[0].ID)
		}
	}

	next := make([]vector.Document, len(d.entries), len(d.entries)+len(docs))
	copy(next, d.entries)

	for _, doc := range docs {
		if len(doc.Embedding) != dim {
			return fmt.Errorf("%w: id %d has %d dimensions, index has %d",
				vector.ErrDimensionMismatch, doc.ID, len(doc.Embedding), dim)
		}
		if n := len(next); n > 0 && doc.ID <= next[n-1].ID {
			return fmt.Errorf("%w: id %d after %d", vector.ErrDuplicateID, doc.ID, next[n-1].ID)
		}

		emb := make([]float32, dim)
		copy(emb, doc.Embedding)
		next = append(next, vector.Document{ID: doc.ID, Text: doc.Text, Embedding: emb})
	}

	if err := d.persist(dim, next); err != nil {
		return err
	}

	d.dimension = dim
	d.entries = next

	d.logger.Debug("added documents to flat index", "count", len(docs), "total", len(next))
	return nil
}

// Query computes the exact L2 distance to every entry.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.entries) == 0 || topK <= 0 {
		return nil, nil
	}
	if len(embedding) != d.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			vector.ErrDimensionMismatch, len(embedding), d.dimension)
	}

	results := make([]vector.QueryResult, len(d.entries))
	for i, e := range d.entries {
		results[i] = vector.QueryResult{Document: e, Distance: l2(embedding, e.Embedding)}
	}

	return vector.SortResults(results, topK), nil
}

// Count returns the number of entries.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries), nil
}

// CountFrom returns the number of entries with an ID of at least id.
func (d *Driver) CountFrom(_ context.Context, id uint64) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := sort.Search(len(d.entries), func(i int) bool { return d.entries[i].ID >= id })
	return len(d.entries) - i, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) load() error {
	if d.path == "" {
		return nil
	}

	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading vector snapshot %s: %w", d.path, err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return fmt.Errorf("%w: %s: %w", vector.ErrSnapshotCorrupt, d.path, err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: %s: unsupported version %d", vector.ErrSnapshotCorrupt, d.path, snap.Version)
	}
	for i, e := range snap.Entries {
		if len(e.Embedding) != snap.Dimension {
			return fmt.Errorf("%w: %s: entry %d has %d dimensions, snapshot has %d",
				vector.ErrSnapshotCorrupt, d.path, i, len(e.Embedding), snap.Dimension)
		}
		if i > 0 && e.ID <= snap.Entries[i-1].ID {
			return fmt.Errorf("%w: %s: entry ids out of order at %d", vector.ErrSnapshotCorrupt, d.path, i)
		}
	}

	d.dimension = snap.Dimension
	d.entries = snap.Entries
	return nil
}

func (d *Driver) persist(dim int, entries []vector.Document) error {
	if d.path == "" {
		return nil
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(snapshot{
		Version:   snapshotVersion,
		Dimension: dim,
		Entries:   entries,
	})
	if err != nil {
		return fmt.Errorf("encoding vector snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("creating vector snapshot directory: %w", err)
	}
	if err := renameio.WriteFile(d.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing vector snapshot %s: %w", d.path, err)
	}
	return nil
}

func l2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return float32(math.Sqrt(sum))
}

var _ vector.Driver = (*Driver)(nil)
