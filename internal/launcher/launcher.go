// Package launcher starts the observed .NET program with perf maps enabled.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PerfMapEnv turns on the runtime's perf map.
const PerfMapEnv = "DOTNET_PerfMapEnabled=1"

// DefaultStopTimeout is how long Stop waits after the interrupt before
// killing the program.
const DefaultStopTimeout = 5 * time.Second

var ErrNotInstalled = errors.New("program not found")

// Options describes the program to run.
type Options struct {
	Path string
	Args []string
	// Env entries (KEY=VALUE) are applied over the inherited environment.
	Env        []string
	InheritEnv bool
	// Dir defaults to the directory holding the program.
	Dir string

	Stdin          io.Reader
	Stdout, Stderr io.Writer

	StopTimeout time.Duration
	Logger      *zap.Logger
}

// Process is a started program.
type Process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	logger *zap.Logger

	done     chan struct{}
	waitErr  error
	stopOnce sync.Once
}

// Start runs the program. Cancelling ctx stops it the same way Stop does.
func Start(ctx context.Context, opts Options) (*Process, error) {
	if opts.Logger == nil {
		opts.Logger, _ = zap.NewProduction()
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}

	path, err := exec.LookPath(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, opts.Path)
	}
	if path, err = filepath.Abs(path); err != nil {
		return nil, fmt.Errorf("resolve program path: %w", err)
	}
	dir := opts.Dir
	if dir == "" {
		dir = filepath.Dir(path)
	}

	var env []string
	if opts.InheritEnv {
		env = os.Environ()
	}
	env = append(env, opts.Env...)
	env = append(env, "PWD="+dir, PerfMapEnv)

	pctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(pctx, path, opts.Args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin, cmd.Stdout, cmd.Stderr = opts.Stdin, opts.Stdout, opts.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = opts.StopTimeout

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start process: %w", err)
	}

	p := &Process{
		cmd:    cmd,
		cancel: cancel,
		logger: opts.Logger.With(zap.Int("pid", cmd.Process.Pid)),
		done:   make(chan struct{}),
	}
	p.logger.Info("Program started",
		zap.String("path", path),
		zap.Strings("args", opts.Args),
		zap.String("dir", dir),
	)

	go func() {
		defer close(p.done)
		p.waitErr = cmd.Wait()
		cancel()
	}()
	return p, nil
}

// PID returns the program's process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Done is closed once the program has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the program exits and returns its exit error, if any.
// It may be called more than once.
func (p *Process) Wait() error {
	<-p.done
	return p.waitErr
}

// ExitCode returns the exit code, or -1 while running or when killed by a
// signal.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
		return p.cmd.ProcessState.ExitCode()
	default:
		return -1
	}
}

// Stop interrupts the program, kills it if it is still running after the
// stop timeout and waits for it to exit.
func (p *Process) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping program")
		p.cancel()
	})
	<-p.done
}
