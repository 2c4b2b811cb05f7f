package knowledge

import "errors"

var (
	// ErrStoreCorrupt is returned when a persisted fact or conversation
	// document cannot be read back. It is never absorbed.
	ErrStoreCorrupt = errors.New("knowledge store corrupt")

	// ErrExtractionParse marks model output that does not match the
	// extraction schema. Extraction absorbs it into an empty result.
	ErrExtractionParse = errors.New("extraction output not parseable")

	// ErrGeneration marks a model failure while answering. The responder
	// absorbs it into an apology.
	ErrGeneration = errors.New("response generation failed")

	// ErrEmptyInput is returned for blank chat messages.
	ErrEmptyInput = errors.New("no message provided")
)
