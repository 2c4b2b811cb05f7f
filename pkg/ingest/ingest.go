// Package ingest runs transcript chunks through extraction into the
// knowledge base.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/cake/pkg/eval"
	"github.com/papercomputeco/cake/pkg/eventstream"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/transcript"
)

// Extractor pulls triplets out of chunk text.
type Extractor interface {
	Extract(ctx context.Context, text string) []knowledge.Triplet
}

// Committer persists and indexes triplets.
type Committer interface {
	Commit(ctx context.Context, origin string, candidates []knowledge.Triplet) ([]knowledge.Fact, error)
}

// QuestionGenerator creates evaluation questions.
type QuestionGenerator interface {
	Generate(ctx context.Context, text string) []eval.Question
}

// ChunkResult describes one processed chunk.
type ChunkResult struct {
	Index     int
	Chunk     transcript.Chunk
	Extracted int
	Accepted  int
	Questions int
	Err       error
}

// Report summarises an ingestion run.
type Report struct {
	Chunks    int
	Extracted int
	Accepted  int
	Failed    int
	Questions []eval.Question
}

// Summary returns a human-readable summary of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"Ingested %d chunks: %d triplets extracted, %d new facts stored, %d chunks failed\n"+
			"Generated %d evaluation questions",
		r.Chunks, r.Extracted, r.Accepted, r.Failed, len(r.Questions),
	)
}

// Pipeline ingests chunks in order.
type Pipeline struct {
	extractor Extractor
	base      Committer
	questions QuestionGenerator
	onChunk   func(ChunkResult)
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithQuestions enables question generation for chunks that yield knowledge.
func WithQuestions(g QuestionGenerator) Option {
	return func(p *Pipeline) {
		p.questions = g
	}
}

// WithProgress registers a callback invoked after each chunk.
func WithProgress(fn func(ChunkResult)) Option {
	return func(p *Pipeline) {
		p.onChunk = fn
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(extractor Extractor, base Committer, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		base:      base,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes chunks in order. Cancellation is observed between chunks.
// A corrupt knowledge store aborts the run; other per-chunk failures are
// counted and ingestion continues.
func (p *Pipeline) Run(ctx context.Context, chunks []transcript.Chunk) (*Report, error) {
	report := &Report{}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := p.runChunk(ctx, i, chunk)
		report.Chunks++
		report.Extracted += res.Extracted
		report.Accepted += res.Accepted

		if p.onChunk != nil {
			p.onChunk(res.ChunkResult)
		}

		if res.Err != nil {
			if errors.Is(res.Err, knowledge.ErrStoreCorrupt) {
				return report, res.Err
			}
			report.Failed++
			p.logger.Error("chunk ingestion failed",
				"chunk", i,
				"start", chunk.Start,
				"end", chunk.End,
				"error", res.Err,
			)
			continue
		}

		report.Questions = append(report.Questions, res.questions...)
	}

	p.logger.Info("ingestion complete",
		"chunks", report.Chunks,
		"extracted", report.Extracted,
		"accepted", report.Accepted,
		"failed", report.Failed,
		"questions", len(report.Questions),
	)
	return report, nil
}

type chunkOutcome struct {
	ChunkResult
	questions []eval.Question
}

func (p *Pipeline) runChunk(ctx context.Context, i int, chunk transcript.Chunk) chunkOutcome {
	res := chunkOutcome{ChunkResult: ChunkResult{Index: i, Chunk: chunk}}

	triplets := p.extractor.Extract(ctx, chunk.Text)
	res.Extracted = len(triplets)
	if len(triplets) == 0 {
		p.logger.Debug("no knowledge in chunk", "chunk", i)
		return res
	}

	for n := range triplets {
		triplets[n] = triplets[n].WithRange(chunk.Start, chunk.End)
	}

	accepted, err := p.base.Commit(ctx, eventstream.OriginIngest, triplets)
	res.Accepted = len(accepted)
	if err != nil {
		res.Err = err
		return res
	}

	if p.questions != nil {
		res.questions = p.questions.Generate(ctx, questionText(triplets))
		res.Questions = len(res.questions)
	}

	p.logger.Debug("ingested chunk",
		"chunk", i,
		"extracted", res.Extracted,
		"accepted", res.Accepted,
		"questions", res.Questions,
	)
	return res
}

// questionText renders the chunk's triplets as the source for questions.
func questionText(triplets []knowledge.Triplet) string {
	lines := make([]string, len(triplets))
	for i, t := range triplets {
		lines[i] = t.Text()
	}
	return strings.Join(lines, "\n")
}
