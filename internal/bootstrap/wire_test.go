package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"paisavoice/internal/domain"
)

func TestBuildSuccess(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GEMINI_API_KEY", "test-key")

	services, err := Build(noopEventSink{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Machine == nil {
		t.Fatalf("expected machine")
	}
	if got := len(services.Machine.Transactions()); got != 3 {
		t.Fatalf("expected seeded transactions on first run, got %d", got)
	}
}

func TestBuildFailsOnInvalidRules(t *testing.T) {
	home := t.TempDir()
	rules := filepath.Join(home, "bad.rules")
	if err := os.WriteFile(rules, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("PAISAVOICE_RULES_FILE", rules)

	_, err := Build(noopEventSink{})
	if err == nil {
		t.Fatalf("expected build error due to invalid rules")
	}
}

func TestBuildSkipsSeedWhenArchiveHasData(t *testing.T) {
	home := t.TempDir()
	storagePath := filepath.Join(home, "transactions.json")
	payload := `[{"id":"a","date":"2024-07-20","description":"Rent","category":"Housing","amount":15000,"type":"Expense"}]`
	if err := os.WriteFile(storagePath, []byte(payload), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("PAISAVOICE_STORAGE_PATH", storagePath)

	services, err := Build(noopEventSink{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	txs := services.Machine.Transactions()
	if len(txs) != 1 || txs[0].Description != "Rent" {
		t.Fatalf("expected persisted data to win over seed, got %+v", txs)
	}
}

func TestSeedTransactions(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC)
	txs := seedTransactions(now)
	if len(txs) != 3 {
		t.Fatalf("expected three seed rows, got %d", len(txs))
	}
	if txs[0].Type != domain.TransactionIncome {
		t.Fatalf("expected salary row first")
	}
	if txs[2].Date != "2024-07-20" {
		t.Fatalf("unexpected seed date: %q", txs[2].Date)
	}
}

type noopEventSink struct{}

func (noopEventSink) ModeChanged(_ domain.AppMode, _ domain.ModeReason) {}
func (noopEventSink) TranscriptUpdated(_ string)                       {}
func (noopEventSink) DraftPending(_ domain.DraftTransaction)           {}
func (noopEventSink) AppError(_ domain.ErrorCode, _ string)            {}
