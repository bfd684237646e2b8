// Command jitdirectives runs a .NET program with perf maps enabled, records
// every method the JIT compiles and writes the result as a runtime
// directives (rd.xml) document.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/platformbuilds/jitdirectives/internal/config"
	"github.com/platformbuilds/jitdirectives/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by the commands of one invocation.
type app struct {
	configPath    string
	output        string
	logLevel      string
	logFormat     string
	perfMapDir    string
	pollInterval  time.Duration
	metricsListen string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "jitdirectives [flags] -- <program> [args...]",
		Short: "Record JIT-compiled .NET methods as runtime directives",
		Long: `Runs the given .NET program with DOTNET_PerfMapEnabled=1, follows the perf map
the runtime writes and collects every compiled method that is not compiler
generated or runtime plumbing. When the program exits (or on Ctrl-C) the
methods are written as an rd.xml document, grouped by assembly and type.

Nothing is written when no method was recorded.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runCapture,
	}
	root.Flags().SetInterspersed(false)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to config yaml")
	pf.StringVarP(&a.output, "output", "o", "", "write the document to this file instead of stdout")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: console, json")
	root.Flags().StringVar(&a.perfMapDir, "perf-map-dir", "", "directory the runtime writes perf-<pid>.map to")
	root.Flags().DurationVar(&a.pollInterval, "poll-interval", 0, "perf map poll interval")
	root.Flags().StringVar(&a.metricsListen, "metrics-listen", "", "serve /metrics, /healthz and /readyz on this address")

	root.AddCommand(
		newReplayCmd(a),
		newParseCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Path = a.output
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("perf-map-dir") {
		cfg.Capture.PerfMapDir = a.perfMapDir
	}
	if flags.Changed("poll-interval") {
		cfg.Capture.PollInterval = a.pollInterval
	}
	if flags.Changed("metrics-listen") {
		cfg.SelfTelemetry.Listen = a.metricsListen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
