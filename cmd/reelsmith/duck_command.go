package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reelsmith/internal/ducking"
)

// duckInput is the segments file consumed by `reelsmith duck`.
type duckInput struct {
	Segments      []ducking.Segment `json:"segments"`
	TotalDuration float64           `json:"total_duration"`
}

func newDuckCommand(ctx *commandContext) *cobra.Command {
	var sidechain bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "duck <segments.json>",
		Short: "Build the music ducking filter for a narration timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read segments file: %w", err)
			}
			var input duckInput
			if err := json.Unmarshal(raw, &input); err != nil {
				return fmt.Errorf("parse segments file: %w", err)
			}
			if input.TotalDuration <= 0 {
				return fmt.Errorf("total_duration must be positive")
			}

			duckCfg := ducking.Config{
				NarrationVolume: cfg.Ducking.NarrationVolume,
				GapVolume:       cfg.Ducking.GapVolume,
				AttackMs:        cfg.Ducking.AttackMs,
				ReleaseMs:       cfg.Ducking.ReleaseMs,
				MinGapDuration:  cfg.Ducking.MinGapDuration,
			}

			var filter string
			var frames []ducking.Keyframe
			if sidechain {
				filter = ducking.SidechainFilter(duckCfg)
			} else {
				frames = ducking.BuildKeyframes(input.Segments, input.TotalDuration, duckCfg)
				filter = ducking.VolumeExpression(frames)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"filter":    filter,
					"keyframes": frames,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), filter)
			return nil
		},
	}

	cmd.Flags().BoolVar(&sidechain, "sidechain", false, "Emit a sidechain compression filter instead of keyframes")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output with keyframes")
	return cmd
}
