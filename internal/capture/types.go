// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture drives method-compilation events through resolution,
// parsing and noise filtering into a directory of identities.
package capture

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by a Resolver when a handle can no longer be
// located in the target process. It is expected and never fatal.
var ErrNotFound = errors.New("method not found")

// Event identifies one compiled method by runtime handles.
type Event struct {
	MethodHandle uint64
	ModuleHandle uint64
}

// Resolution is what a Resolver knows about a compiled method.
type Resolution struct {
	// Signature is the fully-qualified method signature,
	// e.g. "Ns.Type.Method(System.Int32)".
	Signature string
	// Assembly is the module's assembly name or file path.
	Assembly string
	// DeclaringType is the resolver's display name of the declaring type.
	// Empty means unknown.
	DeclaringType string
	Private       bool
}

// EventSource delivers events in arrival order by calling emit on a single
// goroutine. Run returns when the stream ends or ctx is cancelled.
type EventSource interface {
	Run(ctx context.Context, emit func(Event)) error
}

// SourceFunc adapts a function to EventSource.
type SourceFunc func(ctx context.Context, emit func(Event)) error

func (f SourceFunc) Run(ctx context.Context, emit func(Event)) error {
	return f(ctx, emit)
}

// Resolver turns handles into a signature plus metadata.
type Resolver interface {
	Resolve(ctx context.Context, pid int, methodHandle, moduleHandle uint64) (Resolution, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, pid int, methodHandle, moduleHandle uint64) (Resolution, error)

func (f ResolverFunc) Resolve(ctx context.Context, pid int, methodHandle, moduleHandle uint64) (Resolution, error) {
	return f(ctx, pid, methodHandle, moduleHandle)
}

// AssemblyName strips directories and a .dll/.exe extension from a module
// path. Bare assembly names such as "System.Private.CoreLib" are kept whole.
func AssemblyName(module string) string {
	if i := strings.LastIndexAny(module, `/\`); i >= 0 {
		module = module[i+1:]
	}
	lower := strings.ToLower(module)
	for _, ext := range []string{".dll", ".exe"} {
		if strings.HasSuffix(lower, ext) {
			return module[:len(module)-len(ext)]
		}
	}
	return module
}
