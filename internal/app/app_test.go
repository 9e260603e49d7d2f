package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	return path
}

func TestRunMissingFileFlag(t *testing.T) {
	a := NewAppRunner()
	err := a.Run([]string{})
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("Run() error = %v, want ErrUsage", err)
	}
}

func TestRunConfigNotFound(t *testing.T) {
	a := NewAppRunner()
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	err := a.Run([]string{"-f", missing})
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Run() error = %v, want ErrConfigNotFound", err)
	}
}

func TestRunWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	in := writeTempFile(t, dir, "main.yaml", "v: 1\n")
	out := filepath.Join(dir, "out.yaml")

	a := NewAppRunner()
	if err := a.Run([]string{"-f", in, "-out", out}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", out, err)
	}
	if !strings.Contains(string(got), "v: 1") {
		t.Errorf("output = %q, want it to contain %q", got, "v: 1")
	}
}

func TestRunVarOverride(t *testing.T) {
	dir := t.TempDir()
	in := writeTempFile(t, dir, "main.yaml", "substitutions:\n  base: 1\nv: '{{ base }}'\n")
	out := filepath.Join(dir, "out.yaml")

	a := NewAppRunner()
	if err := a.Run([]string{"-f", in, "-out", out, "-var", "base=7"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", out, err)
	}
	if !strings.Contains(string(got), "v: \"7\"") && !strings.Contains(string(got), "v: 7") {
		t.Errorf("output = %q, want it to reflect overridden base=7", got)
	}
}

func TestVarFlagsSetInvalid(t *testing.T) {
	var v varFlags
	if err := v.Set("noequals"); err == nil {
		t.Errorf("Set(%q) error = nil, want error", "noequals")
	}
	if err := v.Set("k=v"); err != nil {
		t.Fatalf("Set(k=v) error = %v", err)
	}
	if v.entries["k"] != "v" {
		t.Errorf("entries[k] = %q, want %q", v.entries["k"], "v")
	}
}
