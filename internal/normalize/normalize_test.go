package normalize

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEngineNoRulesIsPassthrough(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine("", 0)
	if err != nil {
		t.Fatalf("new engine failed: %v", err)
	}
	got, err := engine.Apply("കാപ്പിക്ക് 50 രൂപ")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got != "കാപ്പിക്ക് 50 രൂപ" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEngineMissingFileIsPassthrough(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(filepath.Join(t.TempDir(), "nope.rules"), 0)
	if err != nil {
		t.Fatalf("new engine failed: %v", err)
	}
	if got, _ := engine.Apply("text"); got != "text" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEngineAppliesRulesInOrder(t *testing.T) {
	t.Parallel()

	engine := loadEngine(t, "# ASR fixups\nகாபி => കാപ്പി\ns/roopa/രൂപ/i\n")

	got, err := engine.Apply("காபி 50 Roopa")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got != "കാപ്പി 50 രൂപ" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEngineIterationLimitStopsCycles(t *testing.T) {
	t.Parallel()

	engine := loadEngine(t, "a => b\nb => a\n")

	got, err := engine.Apply("a")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got != "a" && got != "b" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEngineRejectsMalformedRules(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.rules")
	if err := os.WriteFile(path, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := NewEngine(path, 0); err == nil {
		t.Fatalf("expected parse error")
	}
}

func loadEngine(t *testing.T, contents string) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.rules")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	engine, err := NewEngine(path, 0)
	if err != nil {
		t.Fatalf("new engine failed: %v", err)
	}
	return engine
}
