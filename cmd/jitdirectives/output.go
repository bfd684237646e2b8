package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/platformbuilds/jitdirectives/internal/directives"
	"github.com/platformbuilds/jitdirectives/internal/directory"
	"github.com/platformbuilds/jitdirectives/internal/selftelemetry"
)

// writeDocument writes snap to path, or to stdout when path is empty. An
// empty snapshot writes nothing and reports false.
func writeDocument(path string, stdout io.Writer, snap directory.Snapshot) (bool, error) {
	if snap.Empty() {
		return false, nil
	}
	if path == "" {
		return true, directives.Write(stdout, snap)
	}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("create output: %w", err)
	}
	if err := directives.Write(f, snap); err != nil {
		_ = f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close output: %w", err)
	}
	return true, nil
}

// emit writes the document and logs the outcome.
func (a *app) emit(stdout io.Writer, snap directory.Snapshot, reg *selftelemetry.Registry) error {
	written, err := writeDocument(a.cfg.Output.Path, stdout, snap)
	outcome := "written"
	switch {
	case err != nil:
		outcome = "failed"
	case !written:
		outcome = "empty"
	}
	if reg != nil {
		reg.Documents.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return err
	}

	if !written {
		a.logger.Info("No methods recorded, nothing written")
		return nil
	}
	dest := a.cfg.Output.Path
	if dest == "" {
		dest = "stdout"
	}
	a.logger.Info("Directives written",
		zap.String("output", dest),
		zap.Int("assemblies", len(snap.Assemblies)),
		zap.Int("methods", snap.Len()),
	)
	return nil
}
