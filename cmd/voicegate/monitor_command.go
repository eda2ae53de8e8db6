package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/voicegate/internal/audio"
	"github.com/user/voicegate/internal/verify"
)

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	var sampleSeconds int

	cmd := &cobra.Command{
		Use:   "monitor <identity> <gate.wav> <sample.wav>...",
		Short: "Run a gated multi-checkpoint verification session",
		Long: "Monitor first verifies the identity with the gate sample; on " +
			"acceptance it runs SESSION_CHECKS verification checkpoints, one WAV " +
			"sample per checkpoint, and reports the combined pass/flag decision.",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, paths := args[0], args[1:]

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(paths) != cfg.Checks+1 {
				return fmt.Errorf("need 1 gate sample plus %d checkpoint samples, got %d",
					cfg.Checks, len(paths))
			}

			verifier, err := ctx.newVerifier(cfg.Threshold)
			if err != nil {
				return err
			}

			source := audio.NewFileSource(paths)
			duration := time.Duration(sampleSeconds) * time.Second

			// Initial gate: the session only starts for a verified speaker.
			gate, err := source.Record(cmd.Context(), duration)
			if err != nil {
				return err
			}
			gateOutcome, err := verifier.Verify(cmd.Context(), identity, gate)
			if err != nil {
				return err
			}
			if !gateOutcome.Accepted {
				fmt.Fprintf(cmd.OutOrStdout(), "DENIED  identity=%s score=%.2f threshold=%.2f\n",
					identity, gateOutcome.Score, gateOutcome.Threshold)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "gate passed (score %.2f), session starting\n",
				gateOutcome.Score)

			session := verify.NewSession(verifier, identity, verify.SessionConfig{
				Checks:    cfg.Checks,
				PassRatio: cfg.PassRatio,
			})
			if err := session.Start(); err != nil {
				return err
			}

			for i := 0; i < cfg.Checks; i++ {
				if interval > 0 {
					select {
					case <-time.After(interval):
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					}
				}

				w, err := source.Record(cmd.Context(), duration)
				if err != nil {
					return err
				}

				outcome, err := session.Checkpoint(cmd.Context(), w)
				if err != nil {
					return err
				}

				mark := "FAIL"
				if outcome.Accepted {
					mark = "pass"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "checkpoint %d/%d: %s (score %.2f)\n",
					i+1, cfg.Checks, mark, outcome.Score)
			}

			result, err := session.Result()
			if err != nil {
				return err
			}

			verdict := "FLAGGED"
			if result.Passed {
				verdict = "PASSED"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  identity=%s checks=%d/%d\n",
				verdict, result.Identity, result.PassCount, result.TotalChecks)
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Pause between checkpoints")
	cmd.Flags().IntVar(&sampleSeconds, "sample-seconds", 5, "Nominal checkpoint recording length")

	return cmd
}
