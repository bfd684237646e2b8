// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package perfmap reads the perf map the .NET runtime writes for JIT-compiled
// code (DOTNET_PerfMapEnabled=1) and turns it into capture events.
package perfmap

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/platformbuilds/jitdirectives/internal/capture"
	"github.com/platformbuilds/jitdirectives/internal/noise"
)

// FileNameFormat is the runtime's perf map file name for a process.
const FileNameFormat = "perf-%d.map"

// DefaultDir is where the runtime writes perf maps unless
// DOTNET_PerfMapJitDumpPath says otherwise.
const DefaultDir = "/tmp"

// Path returns the perf map path for pid under dir.
func Path(dir string, pid int) string {
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, fmt.Sprintf(FileNameFormat, pid))
}

// Symbol represents one code range from a perf map
type Symbol struct {
	Address uint64
	Size    uint64
	Name    string

	// Parsed .NET fields
	Assembly string
	Type     string
	Method   string // method name with its parameter list
	Tier     string // Optimized, Tier0, Tier1, PreJIT, ...
	Stub     bool
}

// Signature returns the method as "Type.Method(params)". Constructors come
// out as "Type..ctor(...)".
func (s Symbol) Signature() string {
	if s.Type == "" {
		return s.Method
	}
	return s.Type + "." + s.Method
}

// DeclaringType is the display name handed to the noise filter. Stubs and
// methods on the runtime's dynamic class get the dynamic stub marker.
func (s Symbol) DeclaringType() string {
	if s.Stub || s.Type == "dynamicClass" {
		return noise.DynamicStubMarker
	}
	return s.Type
}

// Resolution converts the symbol for the capture pipeline. Perf maps carry no
// accessibility, so methods are reported as non-private.
func (s Symbol) Resolution() capture.Resolution {
	return capture.Resolution{
		Signature:     s.Signature(),
		Assembly:      s.Assembly,
		DeclaringType: s.DeclaringType(),
	}
}

// parseLine parses a single line from a perf map
// Format: <hex_addr> <hex_size> <name>
func parseLine(line string) (Symbol, bool) {
	parts := strings.SplitN(strings.TrimRight(line, "\r"), " ", 3)
	if len(parts) < 3 {
		return Symbol{}, false
	}

	addr, err := strconv.ParseUint(parts[0], 16, 64)
	if err != nil {
		return Symbol{}, false
	}

	size, err := strconv.ParseUint(parts[1], 16, 64)
	if err != nil {
		return Symbol{}, false
	}

	sym := ParseSymbol(parts[2])
	sym.Address = addr
	sym.Size = size
	return sym, true
}

// ParseSymbol parses a .NET perf map method name.
// Examples:
//
//	void [System.Private.CoreLib] System.Threading.Thread::StartCallback()[Optimized]
//	instance bool [System.Private.CoreLib] System.Collections.Generic.List`1[System.__Canon]::Contains(!0)[Tier0]
//	stub<1> AllocateTemporaryEntryPoints<PRECODE_STUB>
func ParseSymbol(name string) Symbol {
	sym := Symbol{Name: name}

	rest, tier := splitTier(name)
	sym.Tier = tier

	open, end, ok := findAssemblyMarker(rest)
	if !ok {
		sym.Stub = true
		sym.Method = rest
		return sym
	}
	sym.Assembly = rest[open+1 : end]
	qualified := strings.TrimSpace(rest[end+1:])

	if sep := strings.Index(qualified, "::"); sep >= 0 {
		sym.Type = qualified[:sep]
		sym.Method = qualified[sep+2:]
	} else {
		sym.Method = qualified
	}
	return sym
}

// splitTier removes a trailing "[Tier]" that follows the parameter list.
func splitTier(name string) (string, string) {
	if !strings.HasSuffix(name, "]") {
		return name, ""
	}
	open := strings.LastIndexByte(name, '[')
	if open <= 0 || name[open-1] != ')' {
		return name, ""
	}
	return name[:open], name[open+1 : len(name)-1]
}

// findAssemblyMarker finds the "[Assembly] " group. Brackets belonging to IL
// type references ("[System.Runtime]System.String") or arrays are skipped
// because they are not surrounded by spaces.
func findAssemblyMarker(s string) (int, int, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' || (i > 0 && s[i-1] != ' ') {
			continue
		}
		end := strings.IndexByte(s[i:], ']')
		if end < 0 {
			return 0, 0, false
		}
		end += i
		if end+1 < len(s) && s[end+1] == ' ' && end > i+1 {
			return i, end, true
		}
	}
	return 0, 0, false
}
