package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/voicegate/internal/audio"
)

func newEnrollCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <identity> <sample.wav>...",
		Short: "Enroll an identity from voice samples",
		Long: "Enroll builds a speaker profile from the given WAV samples and " +
			"stores it under the identity. Re-enrolling replaces the profile.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, paths := args[0], args[1:]

			enroller, err := ctx.newEnroller()
			if err != nil {
				return err
			}

			utterances := make([]audio.Waveform, 0, len(paths))
			for _, path := range paths {
				w, err := audio.LoadWAV(path)
				if err != nil {
					return err
				}
				utterances = append(utterances, w)
			}

			p, err := enroller.Enroll(cmd.Context(), identity, utterances)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "enrolled %s (%d samples, enrolled at %s)\n",
				p.Identity, len(utterances), p.EnrolledAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
