package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/platformbuilds/jitdirectives/internal/capture"
	"github.com/platformbuilds/jitdirectives/internal/noise"
	"github.com/platformbuilds/jitdirectives/internal/replay"
)

func newReplayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace.jsonl>",
		Short: "Build the document from a recorded method trace",
		Long: `Reads a JSON Lines trace with one compiled method per line and runs it
through the same parsing, filtering and grouping as a live capture:

  {"method":1,"module":1,"signature":"App.Program.Main(System.String[])","assembly":"App.dll","declaring_type":"App.Program"}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, err := replay.Open(args[0])
			if err != nil {
				return err
			}

			pipeline := capture.New(capture.Options{
				Resolver: trace,
				Filter:   noise.New(a.cfg.Filter.NoiseRules()...),
				Logger:   a.logger,
			})
			snap, err := pipeline.Run(cmd.Context(), trace.Source())
			if err != nil {
				return err
			}

			stats := pipeline.Metrics().Stats()
			a.logger.Info("Replay finished",
				zap.Int("records", trace.Len()),
				zap.Uint64("accepted", stats.Accepted),
				zap.Uint64("filtered", stats.Filtered),
				zap.Uint64("unresolved", stats.NotFound),
			)
			return a.emit(cmd.OutOrStdout(), snap, nil)
		},
	}
}
