package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/jitdirectives/internal/launcher"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

const trace = `{"method":1,"module":1,"signature":"App.Program.Main(System.String[])","assembly":"/app/App.dll","declaring_type":"App.Program"}
{"method":2,"module":1,"signature":"System.Runtime.CompilerServices.AsyncMethodBuilderCore.Start(System.Object)","assembly":"System.Private.CoreLib","declaring_type":"System.Runtime.CompilerServices.AsyncMethodBuilderCore"}
{"method":3,"module":1,"signature":"App.Program.Run[System.__Canon](System.__Canon)","assembly":"/app/App.dll","declaring_type":"App.Program"}
`

func writeFile(t *testing.T, name, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "jitdirectives v"), out)
}

func TestParseCmd(t *testing.T) {
	out, err := execute(t, "parse",
		"System.Collections.Generic.List`1[System.__Canon]..ctor(System.Int32)",
		"System.Runtime.CompilerServices.AsyncMethodBuilderCore.Start(System.Object)",
		"App.Util.Map[System.Int32,System.__Canon](System.Object)",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "  type:     System.Collections.Generic.List`1[System.Object]\n")
	assert.Contains(t, out, "  method:   .ctor\n")
	assert.Contains(t, out, "  params:   System.Int32\n")
	assert.Contains(t, out, "  verdict:  drop (compiler_generated)\n")
	assert.Contains(t, out, "  generics: System.Int32, System.Object\n")
	assert.Equal(t, 2, strings.Count(out, "verdict:  keep"))
}

func TestReplayCmd_Stdout(t *testing.T) {
	path := writeFile(t, "trace.jsonl", trace, 0o600)

	out, err := execute(t, "replay", path)
	require.NoError(t, err)
	assert.Equal(t, `<Directives>
    <Application>
        <Assembly Name="App">
            <Type Name="App.Program">
                <Method Name="Main" />
                <Method Name="Run">
                    <GenericArgument Name="System.Object" />
                </Method>
            </Type>
        </Assembly>
    </Application>
</Directives>
`, out)
}

func TestReplayCmd_OutputFile(t *testing.T) {
	path := writeFile(t, "trace.jsonl", trace, 0o600)
	dest := filepath.Join(t.TempDir(), "rd.xml")

	out, err := execute(t, "replay", "--output", dest, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	doc, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `<Type Name="App.Program">`)
}

func TestReplayCmd_NothingAccepted(t *testing.T) {
	noiseOnly := strings.Split(trace, "\n")[1] + "\n"
	path := writeFile(t, "trace.jsonl", noiseOnly, 0o600)
	dest := filepath.Join(t.TempDir(), "rd.xml")

	out, err := execute(t, "replay", "-o", dest, path)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoFileExists(t, dest)
}

func TestReplayCmd_ConfigExtraRules(t *testing.T) {
	path := writeFile(t, "trace.jsonl", trace, 0o600)
	cfg := writeFile(t, "cfg.yaml", `
filter:
  extra_rules:
    - prefix: "App."
`, 0o600)

	out, err := execute(t, "--config", cfg, "replay", path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInvalidConfig(t *testing.T) {
	cfg := writeFile(t, "cfg.yaml", "capture:\n  poll_interval: 0s\n", 0o600)
	_, err := execute(t, "--config", cfg, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture.poll_interval")
}

func TestCapture_ProgramNotFound(t *testing.T) {
	_, err := execute(t, "--", "no-such-dotnet-program", "--flag")
	assert.ErrorIs(t, err, launcher.ErrNotInstalled)
}

func TestCapture_EndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	mapDir := t.TempDir()
	program := writeFile(t, "app.sh", `#!/bin/sh
map="$DOTNET_PerfMapJitDumpPath/perf-$$.map"
printf '1000 40 void [App] App.Program::Main(string[])[Optimized]\n' > "$map"
printf '2000 10 stub<1> AllocateTemporaryEntryPoints<PRECODE_STUB>\n' >> "$map"
printf '3000 40 instance void [App] App.Worker::.ctor()[Tier0]' >> "$map"
`, 0o755)
	dest := filepath.Join(t.TempDir(), "rd.xml")

	_, err := execute(t,
		"--perf-map-dir", mapDir,
		"--poll-interval", "10ms",
		"-o", dest,
		"--", program,
	)
	require.NoError(t, err)

	doc, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, `<Directives>
    <Application>
        <Assembly Name="App">
            <Type Name="App.Program">
                <Method Name="Main" />
            </Type>
            <Type Name="App.Worker">
                <Method Name=".ctor" />
            </Type>
        </Assembly>
    </Application>
</Directives>
`, string(doc))
}
