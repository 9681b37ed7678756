package cmds

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/muse/pkg/speech"
)

func NewSpeakCommand(v *viper.Viper) *cobra.Command {
	defaults := speech.DefaultVoiceSettings()

	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize text to an mp3 file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			voice, _ := flags.GetString("voice")
			settings := speech.VoiceSettings{}
			settings.SimilarityBoost, _ = flags.GetFloat64("similarity-boost")
			settings.Stability, _ = flags.GetFloat64("stability")
			settings.Style, _ = flags.GetFloat64("style")
			settings.UseSpeakerBoost, _ = flags.GetBool("speaker-boost")

			app, err := NewApp(v, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			return app.Run(cmd.Context(), func(ctx context.Context) error {
				path, err := app.SpeechClient().Synthesize(ctx, speech.Request{
					Text:     strings.Join(args, " "),
					VoiceID:  voice,
					Settings: &settings,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	cmd.Flags().String("voice", "", "Voice id (default: ELEVENLABS_VOICE_ID)")
	cmd.Flags().Float64("similarity-boost", defaults.SimilarityBoost, "Voice similarity boost")
	cmd.Flags().Float64("stability", defaults.Stability, "Voice stability")
	cmd.Flags().Float64("style", defaults.Style, "Voice style exaggeration")
	cmd.Flags().Bool("speaker-boost", defaults.UseSpeakerBoost, "Use speaker boost")
	return cmd
}
