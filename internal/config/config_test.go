package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "m2p.cue")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	return p
}

func TestLoad_UnknownConfigVersion(t *testing.T) {
	cfg := writeConfig(t, "{\n  configVersion: \"2\"\n}\n")
	_, err := Load(cfg)
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "unsupported configVersion: \"2\" (supported: 1)"
	if err.Error() != want {
		t.Fatalf("unexpected error\nwant: %s\n got: %s", want, err.Error())
	}
}

func TestLoad_MissingConfigVersion(t *testing.T) {
	cfg := writeConfig(t, "engine: program: \"typst\"\n")
	_, err := Load(cfg)
	if err == nil || err.Error() != "missing required field: configVersion" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_WrongExtension(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "m2p.json"))
	if err == nil || err.Error() != "unsupported config format: expected .cue" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	if err == nil || !strings.HasPrefix(err.Error(), "failed to read config:") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg := writeConfig(t, `
configVersion: "1"
engine: {
	program:   "/opt/typst/bin/typst"
	timeoutMs: 60000
}
watch: {
	intervalMs:  250
	noGitignore: true
}
fonts: paths: ["fonts", "/usr/local/share/fonts"]
query: sandbox: instructionLimit: 10
log: file: "m2p.log"
`)
	got, err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Engine.Program != "/opt/typst/bin/typst" || got.Engine.TimeoutMs != 60000 {
		t.Fatalf("unexpected engine: %+v", got.Engine)
	}
	if got.Watch.IntervalMs != 250 || !got.Watch.NoGitignore {
		t.Fatalf("unexpected watch: %+v", got.Watch)
	}
	if strings.Join(got.Fonts.Paths, ",") != "fonts,/usr/local/share/fonts" {
		t.Fatalf("unexpected fonts: %+v", got.Fonts)
	}
	if got.Query.Sandbox.InstructionLimit != 10 || got.Query.Sandbox.TimeoutMs != 2000 {
		t.Fatalf("unexpected sandbox: %+v", got.Query.Sandbox)
	}
	if got.Log.File != "m2p.log" || got.Log.MaxSizeMB != 16 {
		t.Fatalf("unexpected log: %+v", got.Log)
	}
}

func TestLoad_InvalidTypes(t *testing.T) {
	cases := []struct{ content, want string }{
		{"configVersion: 1\n", "invalid type for field: configVersion (expected string)"},
		{"configVersion: \"1\"\nengine: timeoutMs: \"x\"\n", "invalid type for field: engine.timeoutMs (expected int)"},
		{"configVersion: \"1\"\nwatch: noGitignore: 1\n", "invalid type for field: watch.noGitignore (expected bool)"},
		{"configVersion: \"1\"\nwatch: intervalMs: 0\n", "invalid value for field: watch.intervalMs (must be > 0)"},
		{"configVersion: \"1\"\nengine: program: \"\"\n", "invalid value for field: engine.program (must not be empty)"},
	}
	for _, c := range cases {
		_, err := Load(writeConfig(t, c.content))
		if err == nil || err.Error() != c.want {
			t.Fatalf("config %q\nwant: %s\n got: %v", c.content, c.want, err)
		}
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	got, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Engine.Program != "typst" || got.Watch.IntervalMs != 500 {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte("configVersion: \"1\"\nengine: program: \"typst-nightly\"\n"), 0o644); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	t.Chdir(dir)
	got, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Engine.Program != "typst-nightly" {
		t.Fatalf("unexpected program: %q", got.Engine.Program)
	}
}
