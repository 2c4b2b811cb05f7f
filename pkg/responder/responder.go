// Package responder answers questions with a language model conditioned on
// facts retrieved from the knowledge base.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/llm"
)

const (
	// DefaultTopK is the number of facts retrieved per question.
	DefaultTopK = 5

	// Apology is returned when the model cannot produce an answer.
	Apology = "I apologize, but I'm having trouble generating a response right now."

	assistantPreamble = "You are a helpful assistant; "
	knowledgeHeader   = "Answer based on retrieved knowledge:\n"
	noKnowledge       = "No direct related knowledge found. Proceeding with general reasoning.\n"
)

// Searcher retrieves the facts nearest to a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Fact, error)
}

// Responder produces retrieval-conditioned answers.
type Responder struct {
	searcher     Searcher
	model        llm.Model
	logger       *slog.Logger
	clock        func() time.Time
	topK         int
	instructions string
	temperature  *float64
}

// Option configures a Responder.
type Option func(*Responder)

// WithTopK sets the number of facts retrieved per question.
func WithTopK(k int) Option {
	return func(r *Responder) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithInstructions appends operator instructions to the system prompt.
func WithInstructions(s string) Option {
	return func(r *Responder) {
		r.instructions = s
	}
}

// WithTemperature sets the sampling temperature for answers.
func WithTemperature(t float64) Option {
	return func(r *Responder) {
		r.temperature = &t
	}
}

// WithClock overrides the time source used in the prompt.
func WithClock(clock func() time.Time) Option {
	return func(r *Responder) {
		r.clock = clock
	}
}

// New creates a responder.
func New(searcher Searcher, model llm.Model, logger *slog.Logger, opts ...Option) *Responder {
	r := &Responder{
		searcher: searcher,
		model:    model,
		logger:   logger,
		clock:    time.Now,
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond answers query given the recent conversation history. It always
// returns displayable text: retrieval failures fall back to an answer without
// knowledge and generation failures return Apology.
func (r *Responder) Respond(ctx context.Context, history []llm.Message, query string) string {
	facts, err := r.searcher.Search(ctx, query, r.topK)
	if err != nil {
		r.logger.Warn("knowledge retrieval failed, answering without knowledge",
			"event", "retrieval_failed",
			"error", err,
		)
		facts = nil
	}

	messages := BuildMessages(r.clock(), facts, history, query, r.instructions)

	var opts []llm.CompleteOption
	if r.temperature != nil {
		opts = append(opts, llm.WithTemperature(*r.temperature))
	}

	answer, err := r.model.Complete(ctx, messages, opts...)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("empty completion from %s", r.model.Name())
	}
	if err != nil {
		r.logger.Error("response generation failed",
			"event", "generation_failed",
			"model", r.model.Name(),
			"error", fmt.Errorf("%w: %w", knowledge.ErrGeneration, err),
		)
		return Apology
	}

	r.logger.Debug("generated response", "facts", len(facts), "history", len(history))
	return answer
}

// BuildMessages assembles the system prompt, the history and the question.
func BuildMessages(now time.Time, facts []knowledge.Fact, history []llm.Message, query, instructions string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.NewTextMessage(llm.RoleSystem, SystemPrompt(now, facts, instructions)))
	messages = append(messages, history...)
	messages = append(messages, llm.NewTextMessage(llm.RoleUser, query))
	return messages
}

// SystemPrompt renders the grounding prompt for facts.
func SystemPrompt(now time.Time, facts []knowledge.Fact, instructions string) string {
	var b strings.Builder
	b.WriteString(assistantPreamble)
	fmt.Fprintf(&b, "Current date and time: %s\n", now.UTC().Format(time.RFC3339))

	if len(facts) == 0 {
		b.WriteString(noKnowledge)
	} else {
		b.WriteString(knowledgeHeader)
		for _, f := range facts {
			b.WriteString(FormatFact(f))
			b.WriteByte('\n')
		}
	}

	if instructions != "" {
		b.WriteString(instructions)
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatFact renders a fact as a prompt bullet with its provenance.
func FormatFact(f knowledge.Fact) string {
	line := "- " + f.Text()
	switch {
	case f.HasRange():
		line += fmt.Sprintf(" (Video timestamps: start: %s, end: %s)", formatSeconds(*f.Start), formatSeconds(*f.End))
	case f.Timestamp != "":
		line += fmt.Sprintf(" (Added on: %s)", f.Timestamp)
	}
	return line
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
