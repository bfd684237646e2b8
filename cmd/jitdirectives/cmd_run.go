package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/platformbuilds/jitdirectives/internal/capture"
	"github.com/platformbuilds/jitdirectives/internal/directory"
	"github.com/platformbuilds/jitdirectives/internal/launcher"
	"github.com/platformbuilds/jitdirectives/internal/noise"
	"github.com/platformbuilds/jitdirectives/internal/perfmap"
	"github.com/platformbuilds/jitdirectives/internal/selftelemetry"
	"github.com/platformbuilds/jitdirectives/internal/version"
)

// runCapture launches args[0] and records its JIT activity until it exits
// or the user interrupts.
func (a *app) runCapture(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	reg := selftelemetry.NewRegistry(cfg.SelfTelemetry.Namespace)
	reg.BuildInfo.WithLabelValues(version.Version(), version.Commit()).Set(1)
	reg.ChildExitCode.Set(-1)

	metrics := capture.NewMetrics()
	if err := metrics.Register(reg.Registerer(), reg.Namespace()); err != nil {
		return fmt.Errorf("register capture metrics: %w", err)
	}

	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	var srv errgroup.Group
	if cfg.SelfTelemetry.Listen != "" {
		ln, err := net.Listen("tcp", cfg.SelfTelemetry.Listen)
		if err != nil {
			return fmt.Errorf("self-telemetry listen: %w", err)
		}
		srv.Go(func() error {
			return selftelemetry.Serve(srvCtx, ln, reg, a.logger)
		})
	}

	env := cfg.Launch.Environ()
	if dir := cfg.Capture.PerfMapDir; dir != "" && filepath.Clean(dir) != perfmap.DefaultDir {
		env = append(env, "DOTNET_PerfMapJitDumpPath="+dir)
	}
	proc, err := launcher.Start(ctx, launcher.Options{
		Path:       args[0],
		Args:       args[1:],
		Env:        env,
		InheritEnv: cfg.Launch.InheritEnv,
		Logger:     a.logger,
	})
	if err != nil {
		stopServer()
		_ = srv.Wait()
		return err
	}
	if info, err := launcher.Describe(proc.PID()); err == nil {
		a.logger.Debug("Observed process", info.Fields()...)
	}

	src := perfmap.NewSource(perfmap.SourceOptions{
		Path:         perfmap.Path(cfg.Capture.PerfMapDir, proc.PID()),
		Follow:       true,
		PollInterval: cfg.Capture.PollInterval,
		Logger:       a.logger,
	})
	pipeline := capture.New(capture.Options{
		PID:      proc.PID(),
		Resolver: capture.NewCachingResolver(src.Index(), cfg.Capture.ResolveCacheSize, cfg.Capture.ResolveCacheTTL),
		Filter:   noise.New(cfg.Filter.NoiseRules()...),
		Metrics:  metrics,
		Logger:   a.logger,
	})

	captureCtx, stopCapture := context.WithCancel(ctx)
	defer stopCapture()

	var (
		g          errgroup.Group
		snap       directory.Snapshot
		captureErr error
	)
	reg.SetReady(true)
	g.Go(func() error {
		snap, captureErr = pipeline.Run(captureCtx, src)
		return nil
	})
	g.Go(func() error {
		defer stopCapture()
		err := proc.Wait()
		code := proc.ExitCode()
		reg.ChildExitCode.Set(float64(code))
		if err != nil {
			a.logger.Warn("Program exited with an error", zap.Int("exitCode", code), zap.Error(err))
		} else {
			a.logger.Info("Program exited")
		}
		return nil
	})
	_ = g.Wait()
	reg.SetReady(false)

	stats := metrics.Stats()
	a.logger.Info("Capture finished",
		zap.Uint64("events", stats.Events),
		zap.Uint64("accepted", stats.Accepted),
		zap.Uint64("filtered", stats.Filtered),
		zap.Uint64("unresolved", stats.NotFound),
	)
	if captureErr != nil {
		a.logger.Error("Capture stopped early, writing what was collected", zap.Error(captureErr))
	}

	err = a.emit(cmd.OutOrStdout(), snap, reg)
	stopServer()
	if serr := srv.Wait(); serr != nil {
		a.logger.Warn("Self-telemetry server failed", zap.Error(serr))
	}
	if err != nil {
		return err
	}
	return captureErr
}
