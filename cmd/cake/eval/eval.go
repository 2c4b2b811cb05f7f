// Package evalcmder provides the eval command, which measures how much the
// knowledge base improves answers to multiple-choice questions.
package evalcmder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/cmd/cake/cmdutil"
	"github.com/papercomputeco/cake/pkg/cliui"
	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/eval"
)

type evalCommander struct {
	questionsPath string
	outDir        string

	logger *slog.Logger
}

const evalLongDesc string = `Evaluate the knowledge base against multiple-choice questions.

Each question is answered twice: once with the facts retrieved for it and
once from the model alone. An answer counts as correct when it contains the
expected option. Answered questions are written to
result_eval_<model>.json and the scores to scores_eval_<model>.json.

Questions come from "cake ingest --questions".

Examples:
  cake eval --questions questions.json
  cake eval --questions questions.json --out results/ --model llama3.2`

const evalShortDesc string = "Score answers with and without the knowledge base"

func NewEvalCmd() *cobra.Command {
	cmder := &evalCommander{}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: evalShortDesc,
		Long:  evalLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = cmdutil.NewLogger(cmd)
			return cmder.run(cmd)
		},
	}

	cmdutil.AddFlags(cmd, config.KnowledgeFlags)
	cmd.Flags().StringVarP(&cmder.questionsPath, "questions", "q", "questions.json", "Questions file to evaluate")
	cmd.Flags().StringVarP(&cmder.outDir, "out", "o", ".", "Directory for the result and score files")

	return cmd
}

func (c *evalCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	questions, err := eval.LoadQuestions(c.questionsPath)
	if err != nil {
		return fmt.Errorf("loading questions: %w", err)
	}
	if len(questions) == 0 {
		return errors.New("no questions to evaluate")
	}

	eng, err := cmdutil.OpenEngine(ctx, cmd, c.logger, true, config.KnowledgeFlags)
	if err != nil {
		return err
	}
	defer eng.Close()

	var result *eval.Result
	err = cliui.Step(out, fmt.Sprintf("Answering %d questions with %s", len(questions), eng.Model.Name()), func() error {
		var err error
		result, err = eng.Evaluator.Run(ctx, questions)
		return err
	})
	if err != nil {
		return err
	}

	resultPath, scoresPath, err := eval.WriteResults(c.outDir, result)
	if err != nil {
		return err
	}

	printSummary(out, result.Summary)
	fmt.Fprintln(out, cliui.KeyValue("Results", resultPath))
	fmt.Fprintln(out, cliui.KeyValue("Scores", scoresPath))
	fmt.Fprintln(out)
	return nil
}

func printSummary(w io.Writer, s eval.Summary) {
	fmt.Fprintf(w, "\n  %s\n\n", cliui.HeaderStyle.Render("Evaluation"))
	fmt.Fprintln(w, cliui.KeyValue("Model", s.Model))
	fmt.Fprintln(w, cliui.KeyValue("Questions", fmt.Sprintf("%d", s.TotalQuestions)))
	fmt.Fprintln(w, cliui.KeyValue("With KB", fmt.Sprintf("%s (%d correct)", s.Accuracy.WithKB, s.Scores.WithKB)))
	fmt.Fprintln(w, cliui.KeyValue("Without KB", fmt.Sprintf("%s (%d correct)", s.Accuracy.WithoutKB, s.Scores.WithoutKB)))
	fmt.Fprintln(w, cliui.KeyValue("Improvement", s.Improvement))
	fmt.Fprintln(w)
}
