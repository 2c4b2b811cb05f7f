// Package chat runs one conversational turn: the exchange is recorded in the
// conversation log, answered from the knowledge base and mined for new
// knowledge.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/cake/pkg/conversation"
	"github.com/papercomputeco/cake/pkg/eventstream"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/llm"
)

// Responder answers a question given recent history.
type Responder interface {
	Respond(ctx context.Context, history []llm.Message, query string) string
}

// Extractor pulls knowledge out of a chat message.
type Extractor interface {
	ExtractMessage(ctx context.Context, text string) []knowledge.Triplet
}

// Committer persists and indexes knowledge.
type Committer interface {
	Commit(ctx context.Context, origin string, candidates []knowledge.Triplet) ([]knowledge.Fact, error)
}

// Reply is the outcome of a turn.
type Reply struct {
	Response           string              `json:"response"`
	ExtractedKnowledge []knowledge.Triplet `json:"extracted_knowledge"`
	NewFacts           int                 `json:"new_facts"`
}

// Session wires the turn collaborators together.
type Session struct {
	log       *conversation.Log
	responder Responder
	extractor Extractor
	base      Committer
	window    int
	logger    *slog.Logger
}

// NewSession creates a chat session. window is the number of previous
// messages sent to the model with each question.
func NewSession(log *conversation.Log, responder Responder, extractor Extractor, base Committer, window int, logger *slog.Logger) *Session {
	return &Session{
		log:       log,
		responder: responder,
		extractor: extractor,
		base:      base,
		window:    window,
		logger:    logger,
	}
}

// Turn handles one user message. Blank messages return
// knowledge.ErrEmptyInput. Model failures never surface here: the responder
// degrades to an apology and extraction to an empty result.
func (s *Session) Turn(ctx context.Context, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, knowledge.ErrEmptyInput
	}

	recent, err := s.log.Recent(ctx, s.window)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	history := make([]llm.Message, len(recent))
	for i, m := range recent {
		history[i] = m.LLMMessage()
	}

	if _, err := s.log.Append(ctx, llm.RoleUser, message); err != nil {
		return nil, fmt.Errorf("saving user message: %w", err)
	}

	response := s.responder.Respond(ctx, history, message)

	if _, err := s.log.Append(ctx, llm.RoleAssistant, response); err != nil {
		return nil, fmt.Errorf("saving assistant message: %w", err)
	}

	reply := &Reply{Response: response, ExtractedKnowledge: []knowledge.Triplet{}}

	extracted := s.extractor.ExtractMessage(ctx, message)
	if len(extracted) == 0 {
		return reply, nil
	}
	reply.ExtractedKnowledge = extracted

	accepted, err := s.base.Commit(ctx, eventstream.OriginChat, extracted)
	if err != nil {
		return nil, fmt.Errorf("storing extracted knowledge: %w", err)
	}
	reply.NewFacts = len(accepted)

	s.logger.Debug("chat turn complete",
		"history", len(history),
		"extracted", len(extracted),
		"new_facts", reply.NewFacts,
	)
	return reply, nil
}
