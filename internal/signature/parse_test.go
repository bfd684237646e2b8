// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Identity
	}{
		{
			name: "nested namespace",
			raw:  "Ns.Outer.Inner.Compute(System.Int32,System.String)",
			want: Identity{TypeName: "Ns.Outer.Inner", MethodName: "Compute", ParameterText: "System.Int32,System.String"},
		},
		{
			name: "constructor",
			raw:  "Ns.Type..ctor()",
			want: Identity{TypeName: "Ns.Type", MethodName: ".ctor", ParameterText: ""},
		},
		{
			name: "static constructor",
			raw:  "Ns.Type..cctor()",
			want: Identity{TypeName: "Ns.Type", MethodName: ".cctor", ParameterText: ""},
		},
		{
			name: "top level method",
			raw:  "Compute(System.Int32)",
			want: Identity{TypeName: "", MethodName: "Compute", ParameterText: "System.Int32"},
		},
		{
			name: "no parameter list",
			raw:  "Compute",
			want: Identity{MethodName: "Compute"},
		},
		{
			name: "generic type with shared code",
			raw:  "System.Collections.Generic.List`1[System.__Canon].Add(System.__Canon)",
			want: Identity{TypeName: "System.Collections.Generic.List`1[System.Object]", MethodName: "Add", ParameterText: "System.Object"},
		},
		{
			name: "generic method",
			raw:  "Ns.Util.Map[System.__Canon,System.Int32](System.__Canon)",
			want: Identity{TypeName: "Ns.Util", MethodName: "Map[System.Object,System.Int32]", ParameterText: "System.Object"},
		},
		{
			name: "dots inside nested generic arguments",
			raw:  "Ns.Dict`2[System.String,Ns.Box`1[System.Int32]].TryGetValue(System.String)",
			want: Identity{TypeName: "Ns.Dict`2[System.String,Ns.Box`1[System.Int32]]", MethodName: "TryGetValue", ParameterText: "System.String"},
		},
		{
			name: "type cut after first generic group",
			raw:  "Ns.Outer`1[System.Int32].Inner.Run()",
			want: Identity{TypeName: "Ns.Outer`1[System.Int32]", MethodName: "Run"},
		},
		{
			name: "sibling generic groups",
			raw:  "Ns.A`1[System.Int32].B`1[System.String].Run()",
			want: Identity{TypeName: "Ns.A`1[System.Int32]", MethodName: "Run"},
		},
		{
			name: "generic constructor",
			raw:  "Ns.Box`1[System.__Canon]..ctor(System.__Canon)",
			want: Identity{TypeName: "Ns.Box`1[System.Object]", MethodName: ".ctor", ParameterText: "System.Object"},
		},
		{
			name: "stray closing bracket",
			raw:  "Ns.T]x.M()",
			want: Identity{TypeName: "Ns.T]x", MethodName: "M"},
		},
		{
			name: "empty input",
			raw:  "",
			want: Identity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestParse_NoPlaceholderSurvives(t *testing.T) {
	inputs := []string{
		"Ns.Cache`2[System.__Canon,System.__Canon].Get[System.__Canon](System.__Canon,System.Int32)",
		"Ns.Holder`1[System.Collections.Generic.List`1[System.__Canon]]..ctor()",
		"Run[System.__Canon](System.__Canon)",
	}
	for _, in := range inputs {
		id := Parse(in)
		assert.NotContains(t, id.TypeName, CanonPlaceholder, in)
		assert.NotContains(t, id.MethodName, CanonPlaceholder, in)
		assert.NotContains(t, id.ParameterText, CanonPlaceholder, in)
	}
}

func TestScan_States(t *testing.T) {
	tests := []struct {
		raw      string
		split    int
		truncate int
		final    scanState
	}{
		{raw: "Ns.T..ctor()", split: 5, truncate: -1, final: stateAfterConstructorMarker},
		{raw: "Ns.T.M()", split: 5, truncate: -1, final: stateAtParameters},
		{raw: "Ns.T.M", split: 0, truncate: -1, final: stateScanning},
		{raw: "Ns.T`1[System.Int32", split: 0, truncate: -1, final: stateInBracket},
		{raw: "Ns.T`1[System.Int32].M()", split: 21, truncate: 20, final: stateAtParameters},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := scan(tt.raw)
			assert.Equal(t, tt.split, res.split)
			assert.Equal(t, tt.truncate, res.truncate)
			assert.Equal(t, tt.final.String(), res.final.String())
		})
	}
}

func TestIdentity_String(t *testing.T) {
	id := Parse("Ns.Type..ctor(System.Int32)")
	assert.Equal(t, "Ns.Type..ctor(System.Int32)", id.String())
	assert.Equal(t, ".ctor", id.DisplayName())
	assert.False(t, id.IsTopLevel())
	assert.True(t, Parse("Main(System.String[])").IsTopLevel())
}
