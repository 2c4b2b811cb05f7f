// Package eval measures whether retrieval from the knowledge base improves a
// language model's answers to multiple-choice questions.
package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/papercomputeco/cake/pkg/llm"
)

// QuestionsPerChunk is the number of questions requested per text.
const QuestionsPerChunk = 2

// OptionsPerQuestion is the required number of answer options.
const OptionsPerQuestion = 4

// Question is a multiple-choice question and the answers given to it.
type Question struct {
	Question        string   `json:"question"`
	Options         []string `json:"options"`
	CorrectAnswer   string   `json:"correct_answer"`
	AnswerWithKB    string   `json:"llm_answer_with_kb"`
	AnswerWithoutKB string   `json:"llm_answer_without_kb"`
}

// Valid reports whether q can be asked and scored.
func (q Question) Valid() bool {
	return strings.TrimSpace(q.Question) != "" &&
		strings.TrimSpace(q.CorrectAnswer) != "" &&
		len(q.Options) == OptionsPerQuestion
}

// Prompt renders the question and its options for the model.
func (q Question) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\nOptions:\n", q.Question)
	for _, opt := range q.Options {
		b.WriteString(opt)
		b.WriteByte('\n')
	}
	return b.String()
}

const generatorPrompt = `You are a knowledge question creator. Given an input text, generate a list of two exam multiple-choice questions
in the following JSON format:

{
  "questions": [
    {
      "question": "Question text",
      "options": [
        "Option 1",
        "Option 2",
        "Option 3",
        "Option 4"
      ],
      "correct_answer": "Correct answer"
    }
  ]
}

Return ONLY valid JSON.
If no questions can be generated, return {"questions": []}.`

// QuestionSchema constrains generated questions.
var QuestionSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "question": {"type": "string"},
          "options": {"type": "array", "items": {"type": "string"}},
          "correct_answer": {"type": "string"}
        },
        "required": ["question", "options", "correct_answer"],
        "additionalProperties": false
      }
    }
  },
  "required": ["questions"],
  "additionalProperties": false
}`)

// Generator creates evaluation questions from text.
type Generator struct {
	model  llm.Model
	logger *slog.Logger
}

// NewGenerator creates a question generator.
func NewGenerator(model llm.Model, logger *slog.Logger) *Generator {
	return &Generator{model: model, logger: logger}
}

// Generate asks the model for questions about text. It is best-effort:
// failures are logged and yield no questions.
func (g *Generator) Generate(ctx context.Context, text string) []Question {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw, err := g.model.Complete(ctx, []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, generatorPrompt),
		llm.NewTextMessage(llm.RoleUser, text),
	},
		llm.WithTemperature(0.7),
		llm.WithJSONSchema(QuestionSchema),
	)
	if err != nil {
		g.logger.Warn("question generation failed", "event", "questions_failed", "reason", "model", "error", err)
		return nil
	}

	questions, err := ParseQuestions(raw)
	if err != nil {
		g.logger.Warn("question generation output discarded",
			"event", "questions_failed",
			"reason", "parse",
			"raw_len", len(raw),
			"error", err,
		)
		return nil
	}

	valid := questions[:0]
	for _, q := range questions {
		if !q.Valid() {
			g.logger.Debug("dropping malformed question", "question", q.Question, "options", len(q.Options))
			continue
		}
		q.AnswerWithKB = ""
		q.AnswerWithoutKB = ""
		valid = append(valid, q)
	}
	return valid
}

// ParseQuestions decodes {"questions": [...]} or a bare array of questions.
func ParseQuestions(raw string) ([]Question, error) {
	trimmed := strings.TrimSpace(raw)

	arrStart := strings.Index(trimmed, "[")
	objStart := strings.Index(trimmed, "{")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		end := strings.LastIndex(trimmed, "]")
		if end < arrStart {
			return nil, errors.New("unterminated question array")
		}
		var questions []Question
		if err := json.Unmarshal([]byte(trimmed[arrStart:end+1]), &questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		return questions, nil
	}

	jsonStr := trimmed
	if objStart >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > objStart {
			jsonStr = trimmed[objStart : end+1]
		}
	}

	var doc struct {
		Questions *[]Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	if doc.Questions == nil {
		return nil, errors.New(`missing "questions" key`)
	}
	return *doc.Questions, nil
}

// LoadQuestions reads a questions file.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return questions, nil
}

// SaveQuestions replaces the questions file at path.
func SaveQuestions(path string, questions []Question) error {
	if questions == nil {
		questions = []Question{}
	}
	return writeJSON(path, questions)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, append(data, '\n'), 0o644)
}
