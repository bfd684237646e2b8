// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package perfmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/platformbuilds/jitdirectives/internal/capture"
)

const DefaultPollInterval = 500 * time.Millisecond

// SourceOptions configures a perf map source
type SourceOptions struct {
	Path string
	// Follow keeps tailing the file until the context is cancelled. Without
	// it the file is read once.
	Follow       bool
	PollInterval time.Duration
	Index        *Index
	Logger       *zap.Logger
}

// Source tails a perf map and emits one event per new code range, with the
// code address as the method handle. Every emitted address is in Index
// before the event is delivered.
type Source struct {
	opts   SourceOptions
	logger *zap.Logger

	file    *os.File
	offset  int64
	pending []byte
}

// NewSource creates a new perf map source
func NewSource(opts SourceOptions) *Source {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Index == nil {
		opts.Index = NewIndex()
	}
	if opts.Logger == nil {
		opts.Logger, _ = zap.NewProduction()
	}
	return &Source{
		opts:   opts,
		logger: opts.Logger.With(zap.String("perfmap", opts.Path)),
	}
}

// Index returns the index the source fills; use it as the resolver.
func (s *Source) Index() *Index {
	return s.opts.Index
}

// Run implements capture.EventSource. When following, a cancelled context
// triggers one last read so lines written before the process exited are
// not lost; Run then returns nil.
func (s *Source) Run(ctx context.Context, emit func(capture.Event)) error {
	defer s.close()

	if !s.opts.Follow {
		if err := s.open(); err != nil {
			return err
		}
		return s.drain(emit, true)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, polling only", zap.Error(err))
	} else {
		defer func() { _ = watcher.Close() }()
		if err := watcher.Add(filepath.Dir(s.opts.Path)); err != nil {
			s.logger.Warn("Failed to watch perf map directory", zap.Error(err))
		}
	}

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if watcher != nil {
		events, errs = watcher.Events, watcher.Errors
	}

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	s.logger.Info("Perf map source starting", zap.Duration("pollInterval", s.opts.PollInterval))

	for {
		if err := s.poll(emit); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return s.finish(emit)
		case <-ticker.C:
		case ev, ok := <-events:
			if !ok {
				events = nil
			} else if filepath.Clean(ev.Name) != filepath.Clean(s.opts.Path) {
				s.logger.Debug("Ignoring unrelated file event", zap.String("file", ev.Name))
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("Perf map watcher error", zap.Error(err))
		}
	}
}

// finish reads whatever the runtime wrote before capture was stopped.
func (s *Source) finish(emit func(capture.Event)) error {
	if s.file == nil {
		if err := s.open(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("Perf map never appeared")
				return nil
			}
			return err
		}
	}
	if err := s.drain(emit, true); err != nil {
		return err
	}
	s.logger.Info("Perf map source stopped", zap.Int64("bytesRead", s.offset))
	return nil
}

// poll opens the file once it exists and reads complete lines.
func (s *Source) poll(emit func(capture.Event)) error {
	if s.file == nil {
		if err := s.open(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		s.logger.Debug("Perf map opened")
	}
	return s.drain(emit, false)
}

func (s *Source) open() error {
	f, err := os.Open(s.opts.Path)
	if err != nil {
		return fmt.Errorf("open perf map: %w", err)
	}
	s.file = f
	return nil
}

// drain reads everything past offset. A trailing partial line is kept for
// the next call unless final is set.
func (s *Source) drain(emit func(capture.Event), final bool) error {
	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat perf map: %w", err)
	}
	if info.Size() < s.offset {
		// rewritten by a restarted runtime
		s.logger.Info("Perf map truncated, rereading")
		s.offset = 0
		s.pending = s.pending[:0]
	}
	if info.Size() > s.offset {
		data, err := io.ReadAll(io.NewSectionReader(s.file, s.offset, info.Size()-s.offset))
		if err != nil {
			return fmt.Errorf("read perf map: %w", err)
		}
		s.offset += int64(len(data))
		s.pending = append(s.pending, data...)
	}

	for {
		nl := bytes.IndexByte(s.pending, '\n')
		if nl < 0 {
			break
		}
		s.handleLine(string(s.pending[:nl]), emit)
		s.pending = s.pending[nl+1:]
	}
	if final && len(s.pending) > 0 {
		s.handleLine(string(s.pending), emit)
		s.pending = s.pending[:0]
	}
	return nil
}

func (s *Source) handleLine(line string, emit func(capture.Event)) {
	sym, ok := parseLine(line)
	if !ok {
		return
	}
	s.opts.Index.Add(sym)
	emit(capture.Event{MethodHandle: sym.Address})
}

func (s *Source) close() {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}
