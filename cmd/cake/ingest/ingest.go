// Package ingestcmder provides the ingest command for extracting knowledge
// from transcript chunk files.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/cmd/cake/cmdutil"
	"github.com/papercomputeco/cake/pkg/cliui"
	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/engine"
	"github.com/papercomputeco/cake/pkg/eval"
	"github.com/papercomputeco/cake/pkg/ingest"
	"github.com/papercomputeco/cake/pkg/transcript"
)

type ingestCommander struct {
	questionsPath string
	watchDir      string
	debounce      time.Duration

	out    io.Writer
	logger *slog.Logger
}

const ingestLongDesc string = `Extract knowledge from transcript chunk files.

Each file holds timestamped chunks, either as a JSON array or as an object
with a "chunks" field:
  [{"text": "...", "start": 0.0, "end": 12.5}, ...]

Every chunk is sent to the language model for extraction. New facts are
stored in the knowledge base and indexed; facts already known are skipped.
Directories are scanned recursively for *.json files.

With --questions, multiple-choice evaluation questions are generated from
each chunk that yields knowledge and appended to the given file for use with
"cake eval".

With --watch, the command keeps running and ingests chunk files as they are
written to the directory.

Examples:
  cake ingest talk.json
  cake ingest transcripts/ --questions questions.json
  cake ingest --watch incoming/`

const ingestShortDesc string = "Extract knowledge from transcripts"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest [files or dirs...]",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 && cmder.watchDir == "" {
				return errors.New("at least one file or directory is required unless --watch is set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			cmder.logger = cmdutil.NewLogger(cmd)
			return cmder.run(cmd, args)
		},
	}

	cmdutil.AddFlags(cmd, config.KnowledgeFlags)
	cmd.Flags().StringVarP(&cmder.questionsPath, "questions", "q", "", "Generate evaluation questions and append them to this file")
	cmd.Flags().StringVarP(&cmder.watchDir, "watch", "w", "", "Watch a directory and ingest chunk files as they appear")
	cmd.Flags().DurationVar(&cmder.debounce, "debounce", ingest.DefaultDebounce, "Quiet period before a watched file is ingested")

	return cmd
}

func (c *ingestCommander) run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	eng, err := cmdutil.OpenEngine(ctx, cmd, c.logger, true, config.KnowledgeFlags)
	if err != nil {
		return err
	}
	defer eng.Close()

	files, err := expand(args)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := c.ingestFile(ctx, eng, file); err != nil {
			return err
		}
	}

	if c.watchDir == "" {
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s %s %s\n\n",
		cliui.DimStyle.Render("●"),
		cliui.KeyStyle.Render("Watching"),
		cliui.ValueStyle.Render(c.watchDir),
	)

	w := ingest.NewWatcher(c.watchDir, c.debounce, c.logger)
	err = w.Run(ctx, func(ctx context.Context, path string) {
		if err := c.ingestFile(ctx, eng, path); err != nil {
			c.logger.Error("ingesting watched file", "path", path, "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *ingestCommander) ingestFile(ctx context.Context, eng *engine.Engine, path string) error {
	chunks, err := transcript.Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s %s\n",
		cliui.HeaderStyle.Render("Ingesting"),
		cliui.ValueStyle.Render(path),
	)

	opts := []ingest.Option{ingest.WithProgress(func(r ingest.ChunkResult) {
		fmt.Fprintf(c.out, "  %s chunk %d/%d %s\n",
			cliui.Mark(r.Err),
			r.Index+1, len(chunks),
			cliui.DimStyle.Render(fmt.Sprintf("(%d extracted, %d new)", r.Extracted, r.Accepted)),
		)
	})}
	if c.questionsPath != "" {
		opts = append(opts, ingest.WithQuestions(eng.Questions))
	}

	pipeline := ingest.NewPipeline(eng.Extractor, eng.Base, c.logger, opts...)
	report, err := pipeline.Run(ctx, chunks)
	if report != nil {
		fmt.Fprintf(c.out, "\n%s\n", report.Summary())
		if saveErr := c.saveQuestions(report.Questions); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}
	return err
}

func (c *ingestCommander) saveQuestions(questions []eval.Question) error {
	if c.questionsPath == "" || len(questions) == 0 {
		return nil
	}

	var existing []eval.Question
	if _, err := os.Stat(c.questionsPath); err == nil {
		existing, err = eval.LoadQuestions(c.questionsPath)
		if err != nil {
			return err
		}
	}

	all := append(existing, questions...)
	if err := eval.SaveQuestions(c.questionsPath, all); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Saved %d questions to %s\n",
		cliui.SuccessMark, len(all), cliui.DimStyle.Render(c.questionsPath))
	return nil
}

// expand resolves directories to the chunk files they contain.
func expand(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		found, err := transcript.ScanDir(arg)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		files = append(files, found...)
	}
	return files, nil
}
