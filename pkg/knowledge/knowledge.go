// Package knowledge defines the knowledge triplet, the persisted fact record
// and the error taxonomy shared by the cake components.
package knowledge

import (
	"fmt"
	"strings"
)

// Triplet is a subject-predicate-object statement extracted from text.
// Identity is the ordered (Subject, Predicate, Object) triple; Timestamp and
// the Start/End time range are payload.
type Triplet struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`

	// Timestamp is the RFC 3339 ingestion time.
	Timestamp string `json:"timestamp,omitempty"`

	// Start and End locate the source chunk in the transcript, in seconds.
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

// Key is the identity of a triplet.
type Key struct {
	Subject   string
	Predicate string
	Object    string
}

// Key returns the identity triple of t.
func (t Triplet) Key() Key {
	return Key{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object}
}

// Text renders the canonical "{subject} {predicate} {object}" form that is
// embedded into the vector index.
func (t Triplet) Text() string {
	return t.Subject + " " + t.Predicate + " " + t.Object
}

// Valid reports whether subject, predicate and object are all non-blank.
func (t Triplet) Valid() bool {
	return strings.TrimSpace(t.Subject) != "" &&
		strings.TrimSpace(t.Predicate) != "" &&
		strings.TrimSpace(t.Object) != ""
}

// HasRange reports whether the triplet carries a source time range.
func (t Triplet) HasRange() bool {
	return t.Start != nil && t.End != nil
}

// WithRange returns a copy of t carrying the given source time range.
func (t Triplet) WithRange(start, end float64) Triplet {
	t.Start = &start
	t.End = &end
	return t
}

func (t Triplet) String() string {
	return fmt.Sprintf("(%s, %s, %s)", t.Subject, t.Predicate, t.Object)
}

// Fact is a persisted triplet. ID is assigned once at insertion, is
// monotonic and equals the record's position in the fact store.
type Fact struct {
	ID uint64 `json:"id"`
	Triplet
}

// Triplets strips the IDs from facts.
func Triplets(facts []Fact) []Triplet {
	out := make([]Triplet, len(facts))
	for i, f := range facts {
		out[i] = f.Triplet
	}
	return out
}
