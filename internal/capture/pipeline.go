// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/platformbuilds/jitdirectives/internal/directory"
	"github.com/platformbuilds/jitdirectives/internal/noise"
	"github.com/platformbuilds/jitdirectives/internal/signature"
)

const tracerName = "github.com/platformbuilds/jitdirectives/internal/capture"

// Options configures the pipeline
type Options struct {
	PID      int
	Resolver Resolver
	Filter   *noise.Filter
	Metrics  *Metrics
	Logger   *zap.Logger
	Tracer   trace.Tracer
}

// Pipeline resolves, parses, filters and records each delivered event
type Pipeline struct {
	opts   Options
	logger *zap.Logger
}

// New creates a new Pipeline
func New(opts Options) *Pipeline {
	if opts.Filter == nil {
		opts.Filter = noise.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger, _ = zap.NewProduction()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	return &Pipeline{opts: opts, logger: opts.Logger}
}

// Metrics returns the pipeline's metrics tracker
func (p *Pipeline) Metrics() *Metrics {
	return p.opts.Metrics
}

// Run consumes src until it ends or ctx is cancelled and returns the
// identities collected. The snapshot is taken only after src has returned.
// A failing source stops capture; what was collected is still returned
// together with the error.
func (p *Pipeline) Run(ctx context.Context, src EventSource) (directory.Snapshot, error) {
	if p.opts.Resolver == nil {
		return directory.Snapshot{}, errors.New("capture: no resolver configured")
	}

	sessionID := uuid.NewString()
	ctx, span := p.opts.Tracer.Start(ctx, "capture.session", trace.WithAttributes(
		attribute.String("capture.session_id", sessionID),
		attribute.Int("process.pid", p.opts.PID),
	))
	defer span.End()

	s := &session{
		pipeline: p,
		logger:   p.logger.With(zap.String("session", sessionID), zap.Int("pid", p.opts.PID)),
		dir:      directory.New(),
	}
	s.logger.Info("Capture starting")

	start := time.Now()
	err := runSource(ctx, src, func(ev Event) { s.handle(ctx, ev) })
	snap := s.dir.Close()

	span.SetAttributes(
		attribute.Int("capture.events", s.events),
		attribute.Int("capture.accepted", s.accepted),
		attribute.Int("capture.identities", snap.Len()),
	)

	if err != nil && !isStop(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "event source failed")
		s.logger.Warn("Event source failed, keeping collected identities",
			zap.Error(err),
			zap.Int("identities", snap.Len()),
		)
		return snap, fmt.Errorf("capture: event source: %w", err)
	}

	s.logger.Info("Capture finished",
		zap.Int("events", s.events),
		zap.Int("accepted", s.accepted),
		zap.Int("identities", snap.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

func isStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// runSource contains panics raised by the source or the handler.
func runSource(ctx context.Context, src EventSource, emit func(Event)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return src.Run(ctx, emit)
}

type session struct {
	pipeline *Pipeline
	logger   *zap.Logger
	dir      *directory.Directory
	events   int
	accepted int
}

func (s *session) handle(ctx context.Context, ev Event) {
	opts := s.pipeline.opts
	s.events++
	opts.Metrics.recordEvent()

	start := time.Now()
	res, err := opts.Resolver.Resolve(ctx, opts.PID, ev.MethodHandle, ev.ModuleHandle)
	opts.Metrics.recordResolution(time.Since(start), err)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Debug("Failed to resolve method",
				zap.Uint64("method", ev.MethodHandle),
				zap.Uint64("module", ev.ModuleHandle),
				zap.Error(err),
			)
		}
		return
	}

	id := signature.Parse(res.Signature)
	if keep, reason := opts.Filter.Check(id, res.DeclaringType, noise.Access(res.Private)); !keep {
		opts.Metrics.recordFiltered(reason)
		return
	}

	s.dir.Record(AssemblyName(res.Assembly), id.TypeName, id.DisplayName())
	s.accepted++
	opts.Metrics.recordAccepted()
}
