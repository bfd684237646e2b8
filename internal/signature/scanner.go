// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import "strings"

type scanState int

const (
	stateScanning scanState = iota
	stateInBracket
	stateAfterConstructorMarker
	stateAtParameters
)

func (s scanState) String() string {
	switch s {
	case stateScanning:
		return "Scanning"
	case stateInBracket:
		return "InBracket"
	case stateAfterConstructorMarker:
		return "AfterConstructorMarker"
	case stateAtParameters:
		return "AtParameters"
	default:
		return "Unknown"
	}
}

type scanResult struct {
	// split is the offset where the method part starts; 0 means no type part.
	split int
	// truncate is the end offset of the first bracket group that returned
	// to depth 0, or -1.
	truncate int
	// final is the state the scanner stopped in.
	final scanState
}

// scanner locates the type/method split point of a qualified name in one
// left-to-right pass.
type scanner struct {
	input      string
	state      scanState
	depth      int
	chunkStart int
	split      int
	truncate   int
}

func scan(input string) scanResult {
	sc := &scanner{input: input, truncate: -1}
	for i := 0; i < len(input) && !sc.stopped(); i++ {
		switch sc.state {
		case stateScanning:
			sc.scanning(i)
		case stateInBracket:
			sc.inBracket(i)
		}
	}
	return scanResult{split: sc.split, truncate: sc.truncate, final: sc.state}
}

func (sc *scanner) stopped() bool {
	return sc.state == stateAfterConstructorMarker || sc.state == stateAtParameters
}

func (sc *scanner) scanning(i int) {
	switch sc.input[i] {
	case '.':
		sc.chunkStart = i + 1
		if isConstructorMarker(sc.input[i:]) {
			sc.split = i
			sc.state = stateAfterConstructorMarker
		}
	case '[':
		sc.depth = 1
		sc.state = stateInBracket
	case '(':
		sc.split = sc.chunkStart
		sc.state = stateAtParameters
	}
	// A ']' with no open group is kept as literal text.
}

func (sc *scanner) inBracket(i int) {
	switch sc.input[i] {
	case '[':
		sc.depth++
	case ']':
		sc.depth--
		if sc.depth > 0 {
			return
		}
		sc.state = stateScanning
		if sc.truncate < 0 {
			sc.truncate = i + 1
		}
	}
}

func isConstructorMarker(suffix string) bool {
	return strings.HasPrefix(suffix, ctorMarker) || strings.HasPrefix(suffix, cctorMarker)
}
