// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/papercomputeco/cake/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for cake embeddings.
	DefaultCollectionName = "cake"

	defaultMaxRetries    = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 5 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"

	factIDKey = "fact_id"
)

// Driver implements vector.Driver using Chroma's REST API. The collection
// uses the l2 space, which reports squared distances; Query converts them
// back to Euclidean distances.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// MaxRetries bounds the attempts made to reach Chroma at startup.
	MaxRetries int

	// RetryDelay is the initial backoff between attempts; it doubles up to
	// MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDriver connects to Chroma, creating the collection when missing.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		logger:         logger,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		id, err := d.getOrCreateCollection(context.Background())
		if err == nil {
			d.collectionID = id
			logger.Info("connected to chroma",
				"url", c.URL,
				"collection", collectionName,
				"collection_id", id,
			)
			return d, nil
		}

		lastErr = err
		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if attempt < maxRetries {
			time.Sleep(delay)
			delay = min(delay*2, maxDelay)
		}
	}

	return nil, fmt.Errorf("%w: collection %q after %d attempts: %w",
		vector.ErrConnection, collectionName, maxRetries, lastErr)
}

func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection

	status, err := d.do(ctx, http.MethodGet, collectionsPath+"/"+d.collectionName, nil, &collection)
	if err == nil {
		return collection.ID, nil
	}
	if status != http.StatusNotFound && status != http.StatusBadRequest {
		return "", err
	}

	_, err = d.do(ctx, http.MethodPost, collectionsPath, chromaCreateRequest{
		Name:     d.collectionName,
		Metadata: map[string]any{"hnsw:space": "l2"},
	}, &collection)
	if err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}
	return collection.ID, nil
}

// Add stores documents under their fact IDs.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	req := chromaAddRequest{
		IDs:        make([]string, len(docs)),
		Embeddings: make([][]float32, len(docs)),
		Documents:  make([]string, len(docs)),
		Metadatas:  make([]map[string]any, len(docs)),
	}
	for i, doc := range docs {
		req.IDs[i] = strconv.FormatUint(doc.ID, 10)
		req.Embeddings[i] = doc.Embedding
		req.Documents[i] = doc.Text
		req.Metadatas[i] = map[string]any{factIDKey: doc.ID}
	}

	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("add"), req, nil); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	d.logger.Debug("added documents to chroma", "count", len(docs))
	return nil
}

// Query finds the topK nearest documents.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	var resp chromaQueryResponse
	_, err := d.do(ctx, http.MethodPost, d.collectionPath("query"), chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"documents", "distances"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("querying chroma: %w", err)
	}

	if len(resp.IDs) == 0 {
		return nil, nil
	}

	var results []vector.QueryResult
	for i, raw := range resp.IDs[0] {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chroma returned non-numeric id %q: %w", raw, err)
		}

		result := vector.QueryResult{Document: vector.Document{ID: id}}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			result.Text = resp.Documents[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			result.Distance = float32(math.Sqrt(float64(resp.Distances[0][i])))
		}
		results = append(results, result)
	}

	d.logger.Debug("queried chroma", "results", len(results))

	return vector.SortResults(results, topK), nil
}

// Count returns the number of documents in the collection.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if _, err := d.do(ctx, http.MethodGet, d.collectionPath("count"), nil, &n); err != nil {
		return 0, fmt.Errorf("counting chroma documents: %w", err)
	}
	return n, nil
}

// CountFrom returns the number of documents with a fact ID of at least id.
func (d *Driver) CountFrom(ctx context.Context, id uint64) (int, error) {
	var resp chromaGetResponse
	_, err := d.do(ctx, http.MethodPost, d.collectionPath("get"), chromaGetRequest{
		Where:   map[string]any{factIDKey: map[string]any{"$gte": id}},
		Include: []string{},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("counting chroma documents from id %d: %w", id, err)
	}
	return len(resp.IDs), nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) collectionPath(op string) string {
	return collectionsPath + "/" + d.collectionID + "/" + op
}

// do sends a JSON request and decodes the JSON response into out. The HTTP
// status is returned even on failure.
func (d *Driver) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

var _ vector.Driver = (*Driver)(nil)
