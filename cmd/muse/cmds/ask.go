package cmds

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/muse/pkg/assistant"
	"github.com/go-go-golems/muse/pkg/tools"
)

func NewAskCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask the assistant a question, answering its tool calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			model, _ := flags.GetString("model")
			instructions, _ := flags.GetString("instructions")
			thread, _ := flags.GetString("thread")
			assistantID, _ := flags.GetString("assistant")
			asJSON, _ := flags.GetBool("json")
			toolNames, _ := flags.GetStringSlice("tool")

			req := assistant.Request{
				Model:        model,
				Prompt:       strings.Join(args, " "),
				Instructions: instructions,
				ThreadID:     thread,
				AssistantID:  assistantID,
			}
			if asJSON {
				req.ResponseFormat = assistant.ResponseFormatJSONObject
			}
			if len(toolNames) > 0 {
				defs, err := tools.Select(toolNames...)
				if err != nil {
					return err
				}
				req.Tools = defs
			}

			app, err := NewApp(v, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return app.Run(cmd.Context(), func(ctx context.Context) error {
				res, err := app.Runner().Ask(ctx, req)
				if err != nil {
					return err
				}

				fmt.Fprintln(out, res.Reply)
				fmt.Fprintf(out, "> thread %s, %d input / %d output tokens, $%s\n",
					res.Session.ThreadID, res.Session.InputTokens, res.Session.OutputTokens, res.Session.Cost)
				return nil
			})
		},
	}

	cmd.Flags().String("model", "gpt-4o", "Model, must be in the pricing table")
	cmd.Flags().String("instructions", "", "Assistant instructions (updates or creates the assistant)")
	cmd.Flags().String("thread", "", "Continue an existing thread")
	cmd.Flags().String("assistant", "", "Assistant id (default: ASSISTANT_ID)")
	cmd.Flags().Bool("json", false, "Ask for a JSON object reply")
	cmd.Flags().StringSlice("tool", nil, fmt.Sprintf("Tools to declare (%s)", strings.Join(tools.CatalogNames(), ", ")))
	return cmd
}
