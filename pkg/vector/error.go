package vector

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrSnapshotCorrupt is returned when a persisted index cannot be read.
	ErrSnapshotCorrupt = errors.New("vector index snapshot corrupt")

	// ErrDuplicateID is returned when a document ID is already stored or
	// does not follow the stored IDs.
	ErrDuplicateID = errors.New("document id already indexed")
)
