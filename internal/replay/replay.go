// Package replay feeds a recorded method trace through the capture pipeline.
//
// A trace is JSON Lines, one compiled method per line:
//
//	{"method":1,"module":1,"signature":"App.Program.Main(System.String[])","assembly":"/app/App.dll","declaring_type":"App.Program"}
//
// Records without a signature stand for methods the resolver could not
// identify and resolve to capture.ErrNotFound.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/platformbuilds/jitdirectives/internal/capture"
)

const maxLineSize = 1 << 20

// Record is one line of a trace.
type Record struct {
	Method        uint64 `json:"method"`
	Module        uint64 `json:"module"`
	Signature     string `json:"signature,omitempty"`
	Assembly      string `json:"assembly,omitempty"`
	DeclaringType string `json:"declaring_type,omitempty"`
	Private       bool   `json:"private,omitempty"`
}

type recordKey struct {
	method, module uint64
}

// Trace is a loaded trace. It is both the event source and the resolver for
// a replayed session.
type Trace struct {
	records []Record
	byKey   map[recordKey]int
}

// Open loads the trace at path.
func Open(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a trace. Blank lines are skipped; a malformed line fails the
// whole load with its line number.
func Load(r io.Reader) (*Trace, error) {
	t := &Trace{byKey: make(map[recordKey]int)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}
		key := recordKey{rec.Method, rec.Module}
		if _, seen := t.byKey[key]; !seen {
			t.byKey[key] = len(t.records)
		}
		t.records = append(t.records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return t, nil
}

// Len returns the number of records.
func (t *Trace) Len() int {
	return len(t.records)
}

// Source emits one event per record, in file order.
func (t *Trace) Source() capture.EventSource {
	return capture.SourceFunc(func(ctx context.Context, emit func(capture.Event)) error {
		for _, rec := range t.records {
			if err := ctx.Err(); err != nil {
				return err
			}
			emit(capture.Event{MethodHandle: rec.Method, ModuleHandle: rec.Module})
		}
		return nil
	})
}

// Resolve implements capture.Resolver. The first record for a handle pair
// wins.
func (t *Trace) Resolve(_ context.Context, _ int, method, module uint64) (capture.Resolution, error) {
	i, ok := t.byKey[recordKey{method, module}]
	if !ok || t.records[i].Signature == "" {
		return capture.Resolution{}, capture.ErrNotFound
	}
	rec := t.records[i]
	return capture.Resolution{
		Signature:     rec.Signature,
		Assembly:      rec.Assembly,
		DeclaringType: rec.DeclaringType,
		Private:       rec.Private,
	}, nil
}
