package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ledgerRetention bounds ledger growth: entries older than this can never
// suppress a notification again, so Save drops them.
const ledgerRetention = 24 * time.Hour

// Key builds the cooldown identity for a (subscriber, vehicle) pair.
func Key(subscriber, vehicleID string) string {
	return subscriber + "_" + vehicleID
}

// CooldownLedger is a durable map from cooldown key to the epoch seconds of
// the last notification, backed by one JSON object file.
type CooldownLedger struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

// NewCooldownLedger creates a ledger over the given file path.
func NewCooldownLedger(path string, log *slog.Logger) *CooldownLedger {
	return &CooldownLedger{path: path, log: log}
}

// Load returns the full ledger. Missing or corrupt storage loads as empty;
// over-notifying for one window beats failing the run.
func (l *CooldownLedger) Load() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("cooldown ledger unreadable, treating as empty", slog.String("path", l.path), slog.Any("err", err))
		}
		return map[string]int64{}
	}
	// Values are decoded as floats to accept ledgers written with
	// fractional seconds by earlier deployments.
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		l.log.Warn("cooldown ledger corrupt, treating as empty", slog.String("path", l.path), slog.Any("err", err))
		return map[string]int64{}
	}
	entries := make(map[string]int64, len(raw))
	for k, v := range raw {
		entries[k] = int64(v)
	}
	return entries
}

// Save atomically replaces the ledger, pruning entries older than the
// retention horizon relative to now.
func (l *CooldownLedger) Save(entries map[string]int64, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	horizon := now.Add(-ledgerRetention).Unix()
	kept := make(map[string]int64, len(entries))
	for k, v := range entries {
		if v >= horizon {
			kept[k] = v
		}
	}
	if pruned := len(entries) - len(kept); pruned > 0 {
		l.log.Info("pruned stale cooldown entries", slog.Int("pruned", pruned), slog.Int("kept", len(kept)))
	}

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(l.path, data)
}
