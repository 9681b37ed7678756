package cmds

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/muse/pkg/music"
)

const DefaultComposeText = "silly water temple underwater videogame OST"

func NewComposeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose [text]",
		Short: "Compose a track inspired by text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := DefaultComposeText
			if len(args) > 0 {
				text = strings.Join(args, " ")
			}
			instrumental, _ := cmd.Flags().GetBool("instrumental")
			lyrics, _ := cmd.Flags().GetString("lyrics")
			writeFile, _ := cmd.Flags().GetBool("write-file")

			app, err := NewApp(v, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return app.Run(cmd.Context(), func(ctx context.Context) error {
				kind := "a song"
				if instrumental {
					kind = "an instrumental OST"
				}
				fmt.Fprintf(out, "> Composing %s inspired by %q\n", kind, text)

				res, err := app.MusicClient().Compose(ctx, music.Request{
					Text:         text,
					Lyrics:       lyrics,
					Instrumental: instrumental,
					WriteFile:    writeFile,
				})
				if err != nil {
					return err
				}

				fmt.Fprintln(out, res.AudioURL)
				fmt.Fprintln(out, "> Ready for listening!")
				return nil
			})
		},
	}

	cmd.Flags().Bool("instrumental", true, "Compose without vocals")
	cmd.Flags().String("lyrics", "", "Lyrics to sing (ignored for instrumentals)")
	cmd.Flags().Bool("write-file", false, "Download the track (not implemented)")
	return cmd
}
