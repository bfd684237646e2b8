// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package perfmap

import (
	"context"
	"sort"
	"sync"

	"github.com/platformbuilds/jitdirectives/internal/capture"
)

// Index holds the symbols read so far, sorted by address. It implements
// capture.Resolver for the process whose perf map it was filled from.
type Index struct {
	mu      sync.RWMutex
	symbols []Symbol
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{symbols: make([]Symbol, 0, 1024)}
}

// Add inserts sym, replacing an entry that starts at the same address.
func (x *Index) Add(sym Symbol) {
	x.mu.Lock()
	defer x.mu.Unlock()

	idx := sort.Search(len(x.symbols), func(i int) bool {
		return x.symbols[i].Address >= sym.Address
	})
	if idx < len(x.symbols) && x.symbols[idx].Address == sym.Address {
		x.symbols[idx] = sym
		return
	}
	x.symbols = append(x.symbols, Symbol{})
	copy(x.symbols[idx+1:], x.symbols[idx:])
	x.symbols[idx] = sym
}

// Len returns the number of indexed symbols
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.symbols)
}

// Lookup finds the symbol whose code range contains addr.
func (x *Index) Lookup(addr uint64) (Symbol, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	// Binary search for the first symbol past addr
	idx := sort.Search(len(x.symbols), func(i int) bool {
		return x.symbols[i].Address > addr
	})

	// Check the symbol before (if any)
	if idx > 0 {
		sym := x.symbols[idx-1]
		if addr == sym.Address || (addr > sym.Address && addr < sym.Address+sym.Size) {
			return sym, true
		}
	}
	return Symbol{}, false
}

// Resolve looks up the code address carried as the method handle.
func (x *Index) Resolve(_ context.Context, _ int, methodHandle, _ uint64) (capture.Resolution, error) {
	sym, ok := x.Lookup(methodHandle)
	if !ok {
		return capture.Resolution{}, capture.ErrNotFound
	}
	return sym.Resolution(), nil
}
