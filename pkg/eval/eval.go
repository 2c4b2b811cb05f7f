package eval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/responder"
)

const answerTemperature = 0.5

// Searcher retrieves the facts nearest to a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Fact, error)
}

// Scores counts correct answers.
type Scores struct {
	WithKB    int `json:"llm_with_kb"`
	WithoutKB int `json:"llm_without_kb"`
}

// Accuracy holds formatted percentages.
type Accuracy struct {
	WithKB    string `json:"llm_with_kb"`
	WithoutKB string `json:"llm_without_kb"`
}

// Summary is the scored outcome of a run.
type Summary struct {
	Model          string   `json:"llm_model"`
	TotalQuestions int      `json:"total_questions"`
	Scores         Scores   `json:"scores"`
	Accuracy       Accuracy `json:"accuracy"`
	Improvement    string   `json:"improvement"`
}

// Result is an evaluation run: the answered questions and their summary.
type Result struct {
	Questions []Question
	Summary   Summary
}

// Evaluator answers questions with and without retrieved knowledge.
type Evaluator struct {
	searcher Searcher
	model    llm.Model
	logger   *slog.Logger
	topK     int
	clock    func() time.Time
}

// NewEvaluator creates an evaluator.
func NewEvaluator(searcher Searcher, model llm.Model, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		searcher: searcher,
		model:    model,
		logger:   logger,
		topK:     responder.DefaultTopK,
		clock:    time.Now,
	}
}

// Run answers every question twice and scores the answers. A question is
// answered correctly when the answer contains the correct option, ignoring
// case. Model failures count as wrong answers; only cancellation stops the run.
func (e *Evaluator) Run(ctx context.Context, questions []Question) (*Result, error) {
	answered := make([]Question, len(questions))
	copy(answered, questions)

	for i := range answered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := &answered[i]
		prompt := q.Prompt()
		q.AnswerWithKB = e.answer(ctx, e.withKnowledge(ctx, prompt), prompt)
		q.AnswerWithoutKB = e.answer(ctx, e.withoutKnowledge(), prompt)

		e.logger.Debug("answered question", "index", i, "question", q.Question)
	}

	return &Result{
		Questions: answered,
		Summary:   Score(e.model.Name(), answered),
	}, nil
}

func (e *Evaluator) withKnowledge(ctx context.Context, prompt string) string {
	facts, err := e.searcher.Search(ctx, prompt, e.topK)
	if err != nil {
		e.logger.Warn("knowledge retrieval failed during evaluation", "error", err)
		facts = nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant; Current date and time: %s\n", e.clock().UTC().Format(time.RFC3339))
	if len(facts) == 0 {
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString("Choose only one answer without explanation, based on your knowledge:\n")
	for _, f := range facts {
		b.WriteString(responder.FormatFact(f))
		b.WriteByte('\n')
	}
	return b.String()
}

func (e *Evaluator) withoutKnowledge() string {
	return fmt.Sprintf("You are a helpful assistant. Choose only one answer without explanation; Current date and time: %s\n",
		e.clock().UTC().Format(time.RFC3339))
}

func (e *Evaluator) answer(ctx context.Context, system, prompt string) string {
	answer, err := e.model.Complete(ctx, []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, system),
		llm.NewTextMessage(llm.RoleUser, prompt),
	}, llm.WithTemperature(answerTemperature))
	if err != nil {
		e.logger.Warn("evaluation answer failed", "event", "generation_failed", "error", err)
		return ""
	}
	return answer
}

// Score computes the summary for answered questions.
func Score(model string, questions []Question) Summary {
	var scores Scores
	for _, q := range questions {
		correct := strings.ToLower(q.CorrectAnswer)
		if correct == "" {
			continue
		}
		if strings.Contains(strings.ToLower(q.AnswerWithKB), correct) {
			scores.WithKB++
		}
		if strings.Contains(strings.ToLower(q.AnswerWithoutKB), correct) {
			scores.WithoutKB++
		}
	}

	var withKB, withoutKB float64
	if total := len(questions); total > 0 {
		withKB = float64(scores.WithKB) / float64(total) * 100
		withoutKB = float64(scores.WithoutKB) / float64(total) * 100
	}

	return Summary{
		Model:          model,
		TotalQuestions: len(questions),
		Scores:         scores,
		Accuracy: Accuracy{
			WithKB:    fmt.Sprintf("%.2f%%", withKB),
			WithoutKB: fmt.Sprintf("%.2f%%", withoutKB),
		},
		Improvement: fmt.Sprintf("%.2f%%", withKB-withoutKB),
	}
}

// WriteResults writes result_eval_<model>.json with the answered questions
// and scores_eval_<model>.json with the summary into dir. It returns both
// paths.
func WriteResults(dir string, result *Result) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	name := fileSafe(result.Summary.Model)
	resultPath := filepath.Join(dir, "result_eval_"+name+".json")
	scoresPath := filepath.Join(dir, "scores_eval_"+name+".json")

	questions := result.Questions
	if questions == nil {
		questions = []Question{}
	}
	if err := writeJSON(resultPath, questions); err != nil {
		return "", "", fmt.Errorf("writing results: %w", err)
	}
	if err := writeJSON(scoresPath, result.Summary); err != nil {
		return "", "", fmt.Errorf("writing scores: %w", err)
	}
	return resultPath, scoresPath, nil
}

func fileSafe(name string) string {
	if name == "" {
		return "model"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}
