package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCooldownKey(t *testing.T) {
	if got := Key("a@x.com", "V1"); got != "a@x.com_V1" {
		t.Fatalf("unexpected key format: %q", got)
	}
}

func TestCooldownLedgerLoadMissingFile(t *testing.T) {
	l := NewCooldownLedger(filepath.Join(t.TempDir(), "ledger.json"), discardLogger())
	entries := l.Load()
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty map, got %v", entries)
	}
}

func TestCooldownLedgerSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l := NewCooldownLedger(path, discardLogger())
	now := time.Unix(1_756_500_000, 0)

	entries := map[string]int64{
		Key("a@x.com", "V1"): now.Unix(),
		Key("b@y.com", "V2"): now.Unix() - 600,
	}
	if err := l.Save(entries, now); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := NewCooldownLedger(path, discardLogger()).Load()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", len(got))
	}
	if got[Key("a@x.com", "V1")] != now.Unix() {
		t.Errorf("timestamp did not round-trip: %d", got[Key("a@x.com", "V1")])
	}
}

func TestCooldownLedgerCorruptFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if entries := NewCooldownLedger(path, discardLogger()).Load(); len(entries) != 0 {
		t.Fatalf("expected empty load from corrupt file, got %v", entries)
	}
}

func TestCooldownLedgerAcceptsFractionalSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	legacy := `{"a@x.com_V1": 1756500000.731}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}
	entries := NewCooldownLedger(path, discardLogger()).Load()
	if entries["a@x.com_V1"] != 1756500000 {
		t.Fatalf("fractional legacy value not truncated: %d", entries["a@x.com_V1"])
	}
}

func TestCooldownLedgerPrunesStaleEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l := NewCooldownLedger(path, discardLogger())
	now := time.Unix(1_756_500_000, 0)

	entries := map[string]int64{
		"fresh": now.Unix() - 1800,
		"stale": now.Add(-25 * time.Hour).Unix(),
	}
	if err := l.Save(entries, now); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := l.Load()
	if _, ok := got["stale"]; ok {
		t.Error("expected day-old entry to be pruned")
	}
	if _, ok := got["fresh"]; !ok {
		t.Error("expected in-window entry to survive")
	}
}
