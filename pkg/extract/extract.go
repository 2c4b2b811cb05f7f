// Package extract pulls knowledge triplets out of free text with a language
// model. Extraction is best-effort: malformed output and model failures yield
// an empty result and a log event, never an error.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/utils"
)

const (
	// TranscriptTemperature is used for transcript chunks.
	TranscriptTemperature = 0.7

	// MessageTemperature is used for chat messages.
	MessageTemperature = 0.5
)

const systemPrompt = `You are a knowledge extractor. Try to extract any knowledge.
Return ONLY JSON with the following schema:
{
  "valuable_knowledge": [
    {
      "subject": "...",
      "predicate": "...",
      "object": "..."
    }
  ]
}
If no knowledge can be extracted, return:
{"valuable_knowledge": []}`

// Schema constrains the model output.
var Schema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "valuable_knowledge": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "subject": {"type": "string"},
          "predicate": {"type": "string"},
          "object": {"type": "string"}
        },
        "required": ["subject", "predicate", "object"],
        "additionalProperties": false
      }
    }
  },
  "required": ["valuable_knowledge"],
  "additionalProperties": false
}`)

// Extractor extracts triplets with a language model.
type Extractor struct {
	model  llm.Model
	logger *slog.Logger
}

// New creates an extractor around model.
func New(model llm.Model, logger *slog.Logger) *Extractor {
	return &Extractor{model: model, logger: logger}
}

// Extract returns the triplets found in a transcript chunk.
func (e *Extractor) Extract(ctx context.Context, text string) []knowledge.Triplet {
	return e.extract(ctx, text, TranscriptTemperature)
}

// ExtractMessage returns the triplets found in a chat message.
func (e *Extractor) ExtractMessage(ctx context.Context, text string) []knowledge.Triplet {
	return e.extract(ctx, text, MessageTemperature)
}

func (e *Extractor) extract(ctx context.Context, text string, temperature float64) []knowledge.Triplet {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw, err := e.model.Complete(ctx, []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, systemPrompt),
		llm.NewTextMessage(llm.RoleUser, text),
	},
		llm.WithTemperature(temperature),
		llm.WithJSONSchema(Schema),
	)
	if err != nil {
		e.logger.Warn("knowledge extraction failed",
			"event", "extraction_failed",
			"reason", "model",
			"model", e.model.Name(),
			"error", err,
		)
		return nil
	}

	triplets, err := ParseResponse(raw)
	if err != nil {
		e.logger.Warn("knowledge extraction output discarded",
			"event", "extraction_failed",
			"reason", "parse",
			"model", e.model.Name(),
			"raw_len", len(raw),
			"raw_preview", utils.Truncate(raw, 120),
			"error", err,
		)
		return nil
	}

	valid := make([]knowledge.Triplet, 0, len(triplets))
	for _, t := range triplets {
		if !t.Valid() {
			e.logger.Debug("dropping incomplete triplet",
				"subject", t.Subject,
				"predicate", t.Predicate,
				"object", t.Object,
			)
			continue
		}
		valid = append(valid, t)
	}

	e.logger.Debug("extracted knowledge", "triplets", len(valid), "dropped", len(triplets)-len(valid))
	return valid
}

type response struct {
	ValuableKnowledge *[]knowledge.Triplet `json:"valuable_knowledge"`
}

// ParseResponse decodes model output of the form
// {"valuable_knowledge": [...]}. The output must be a single JSON document;
// only a surrounding markdown code fence is removed. Errors wrap
// knowledge.ErrExtractionParse.
func ParseResponse(raw string) ([]knowledge.Triplet, error) {
	jsonStr := stripCodeFence(raw)

	var resp response
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", knowledge.ErrExtractionParse, err)
	}
	if resp.ValuableKnowledge == nil {
		return nil, fmt.Errorf("%w: %w", knowledge.ErrExtractionParse, errMissingKey)
	}

	// Payload is never taken from the model; the store stamps ingestion time.
	triplets := *resp.ValuableKnowledge
	for i := range triplets {
		triplets[i].Timestamp = ""
		triplets[i].Start = nil
		triplets[i].End = nil
	}
	return triplets, nil
}

var errMissingKey = errors.New(`missing "valuable_knowledge" key`)

// stripCodeFence removes a ```json ... ``` wrapper. Anything else is left
// for the decoder to reject.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}
