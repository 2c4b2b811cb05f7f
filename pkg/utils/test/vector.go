package testutils

import (
	"context"
	"math"
	"sync"

	"github.com/papercomputeco/cake/pkg/vector"
)

// MockVectorDriver is an in-memory vector driver with injectable failures.
type MockVectorDriver struct {
	AddErr   error
	QueryErr error

	mu        sync.Mutex
	documents []vector.Document
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make([]vector.Document, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]vector.QueryResult, 0, len(m.documents))
	for _, doc := range m.documents {
		var sum float64
		for i := range embedding {
			if i < len(doc.Embedding) {
				d := float64(embedding[i] - doc.Embedding[i])
				sum += d * d
			}
		}
		results = append(results, vector.QueryResult{Document: doc, Distance: float32(math.Sqrt(sum))})
	}
	return vector.SortResults(results, topK), nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.documents), nil
}

func (m *MockVectorDriver) CountFrom(_ context.Context, id uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, doc := range m.documents {
		if doc.ID >= id {
			n++
		}
	}
	return n, nil
}

// Documents returns a copy of the stored documents.
func (m *MockVectorDriver) Documents() []vector.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.Document(nil), m.documents...)
}

func (m *MockVectorDriver) Close() error {
	return nil
}
