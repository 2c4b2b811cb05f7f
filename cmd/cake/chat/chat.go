// Package chatcmder provides the chat command: an interactive console that
// answers from the knowledge base and learns from what the user says.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/api"
	"github.com/papercomputeco/cake/cmd/cake/cmdutil"
	"github.com/papercomputeco/cake/pkg/chat"
	"github.com/papercomputeco/cake/pkg/cliui"
	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/knowledge"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

// turnFunc runs one exchange and returns the answer plus the knowledge
// extracted from the message.
type turnFunc func(ctx context.Context, message string) (string, []knowledge.Triplet, error)

type chatCommander struct {
	remote bool

	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive chat session grounded in the knowledge base.

Each question is answered with the most relevant stored facts and the recent
conversation as context. Facts stated in your messages are extracted and
added to the knowledge base as you chat. The conversation is kept in the
.cake/ directory across sessions.

With --remote, messages go to a running "cake serve" instead of opening the
knowledge base locally.

Examples:
  cake chat
  cake chat --model llama3.2 --top 8
  cake chat --remote --api-target http://localhost:8081`

const chatShortDesc string = "Chat with the knowledge base"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = cmdutil.NewLogger(cmd)
			return cmder.run(cmd)
		},
	}

	cmdutil.AddFlags(cmd, config.KnowledgeFlags, config.ChatFlags)
	config.AddStringFlag(cmd, config.ServerFlags, config.FlagAPITarget, new(string))
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Chat through a running cake API server")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if c.remote {
		cfg, err := cmdutil.LoadConfig(cmd, config.ServerFlags)
		if err != nil {
			return err
		}

		client := api.NewClient(cfg.Client.APITarget, nil)
		fmt.Fprintf(out, "\n  %s %s\n",
			cliui.KeyStyle.Render("Server:"),
			cliui.ValueStyle.Render(cfg.Client.APITarget),
		)
		return converse(ctx, cmd.InOrStdin(), out, func(ctx context.Context, message string) (string, []knowledge.Triplet, error) {
			resp, err := client.Chat(ctx, message)
			if err != nil {
				return "", nil, err
			}
			return resp.Response, resp.ExtractedKnowledge, nil
		})
	}

	eng, err := cmdutil.OpenEngine(ctx, cmd, c.logger, true, config.KnowledgeFlags, config.ChatFlags)
	if err != nil {
		return err
	}
	defer eng.Close()

	session := chat.NewSession(eng.Conversation, eng.Responder, eng.Extractor, eng.Base, eng.HistoryWindow(), c.logger)

	stats, err := eng.Base.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n  %s %s\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.ValueStyle.Render(eng.Model.Name()),
	)
	fmt.Fprintf(out, "  %s %s\n",
		cliui.KeyStyle.Render("Facts:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d", stats.Facts)),
	)

	return converse(ctx, cmd.InOrStdin(), out, func(ctx context.Context, message string) (string, []knowledge.Triplet, error) {
		reply, err := session.Turn(ctx, message)
		if err != nil {
			return "", nil, err
		}
		return reply.Response, reply.ExtractedKnowledge, nil
	})
}

// converse runs the console loop until EOF or /exit.
func converse(ctx context.Context, in io.Reader, out io.Writer, turn turnFunc) error {
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		response, extracted, err := turn(ctx, input)
		if errors.Is(err, context.Canceled) {
			break
		}
		if err != nil {
			fmt.Fprintf(out, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		fmt.Fprintf(out, "%s%s\n", assistantPrompt, strings.TrimRight(cliui.RenderAnswer(out, response), "\n"))
		for _, t := range extracted {
			fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("+ "+t.Text()))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
	return scanner.Err()
}
