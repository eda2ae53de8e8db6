package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/user/voicegate/internal/audio"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "verify <identity> <sample.wav>",
		Short: "Verify one voice sample against an enrolled identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, path := args[0], args[1]

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if math.IsNaN(threshold) {
				threshold = cfg.Threshold
			}

			verifier, err := ctx.newVerifier(threshold)
			if err != nil {
				return err
			}

			w, err := audio.LoadWAV(path)
			if err != nil {
				return err
			}

			outcome, err := verifier.Verify(cmd.Context(), identity, w)
			if err != nil {
				return err
			}

			verdict := "REJECTED"
			if outcome.Accepted {
				verdict = "ACCEPTED"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  identity=%s score=%.2f threshold=%.2f\n",
				verdict, outcome.Identity, outcome.Score, outcome.Threshold)
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", math.NaN(),
		"Decision threshold on the mean log-likelihood (default from VERIFY_THRESHOLD)")

	return cmd
}
