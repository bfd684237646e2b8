// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package perfmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/jitdirectives/internal/noise"
	"github.com/platformbuilds/jitdirectives/internal/signature"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      Symbol
		signature string
		declaring string
	}{
		{
			name: "static method with tier",
			in:   "void [System.Private.CoreLib] System.Threading.Thread::StartCallback()[Optimized]",
			want: Symbol{
				Assembly: "System.Private.CoreLib",
				Type:     "System.Threading.Thread",
				Method:   "StartCallback()",
				Tier:     "Optimized",
			},
			signature: "System.Threading.Thread.StartCallback()",
			declaring: "System.Threading.Thread",
		},
		{
			name: "generic instance method",
			in:   "instance bool [System.Private.CoreLib] System.Collections.Generic.List`1[System.__Canon]::Contains(!0)[Tier0]",
			want: Symbol{
				Assembly: "System.Private.CoreLib",
				Type:     "System.Collections.Generic.List`1[System.__Canon]",
				Method:   "Contains(!0)",
				Tier:     "Tier0",
			},
			signature: "System.Collections.Generic.List`1[System.__Canon].Contains(!0)",
			declaring: "System.Collections.Generic.List`1[System.__Canon]",
		},
		{
			name: "constructor without tier",
			in:   "instance void [App] App.Program::.ctor()",
			want: Symbol{
				Assembly: "App",
				Type:     "App.Program",
				Method:   ".ctor()",
			},
			signature: "App.Program..ctor()",
			declaring: "App.Program",
		},
		{
			name: "il type reference in return type",
			in:   "class [System.Runtime]System.String [App] App.Names::Get(int32)[Tier1]",
			want: Symbol{
				Assembly: "App",
				Type:     "App.Names",
				Method:   "Get(int32)",
				Tier:     "Tier1",
			},
			signature: "App.Names.Get(int32)",
			declaring: "App.Names",
		},
		{
			name: "dynamic class",
			in:   "int32 [System.Private.CoreLib] dynamicClass::IL_STUB_PInvoke(native int)[Optimized]",
			want: Symbol{
				Assembly: "System.Private.CoreLib",
				Type:     "dynamicClass",
				Method:   "IL_STUB_PInvoke(native int)",
				Tier:     "Optimized",
			},
			signature: "dynamicClass.IL_STUB_PInvoke(native int)",
			declaring: noise.DynamicStubMarker,
		},
		{
			name: "stub",
			in:   "stub<1> AllocateTemporaryEntryPoints<PRECODE_STUB>",
			want: Symbol{
				Method: "stub<1> AllocateTemporaryEntryPoints<PRECODE_STUB>",
				Stub:   true,
			},
			signature: "stub<1> AllocateTemporaryEntryPoints<PRECODE_STUB>",
			declaring: noise.DynamicStubMarker,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSymbol(tt.in)
			tt.want.Name = tt.in
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.signature, got.Signature())
			assert.Equal(t, tt.declaring, got.DeclaringType())
		})
	}
}

func TestSymbol_ParsesAsIdentity(t *testing.T) {
	sym := ParseSymbol("instance void [App] App.Cache`1[System.__Canon]::.ctor(!0)[Tier0]")
	id := signature.Parse(sym.Signature())
	assert.Equal(t, "App.Cache`1[System.Object]", id.TypeName)
	assert.Equal(t, ".ctor", id.MethodName)

	res := sym.Resolution()
	assert.Equal(t, "App", res.Assembly)
	assert.False(t, res.Private)
}

func TestParseLine(t *testing.T) {
	sym, ok := parseLine("7F4E3A4C0480 5a void [App] App.Program::Main(string[])[Optimized]\r")
	require.True(t, ok)
	assert.Equal(t, uint64(0x7F4E3A4C0480), sym.Address)
	assert.Equal(t, uint64(0x5a), sym.Size)
	assert.Equal(t, "App.Program", sym.Type)
	assert.Equal(t, "Optimized", sym.Tier)

	for _, bad := range []string{"", "7F4E", "zz 10 name", "10 zz name"} {
		_, ok := parseLine(bad)
		assert.False(t, ok, bad)
	}
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/tmp/perf-42.map", Path("", 42))
	assert.Equal(t, "/var/maps/perf-7.map", Path("/var/maps", 7))
}
