package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Alert is one subscriber's watch on a route. Immutable once created. The
// JSON field names keep existing alerts.json files valid.
type Alert struct {
	ID        string  `json:"id,omitempty"`
	Email     string  `json:"email" validate:"required,email"`
	RouteID   string  `json:"linha" validate:"required"`
	TargetLat float64 `json:"latitude_ponto" validate:"gte=-90,lte=90"`
	TargetLon float64 `json:"longitude_ponto" validate:"gte=-180,lte=180"`
}

// AlertStore is a durable, append-only list of alerts backed by one JSON
// file.
type AlertStore struct {
	mu   sync.RWMutex
	path string
	log  *slog.Logger
}

// NewAlertStore creates a store over the given file path.
func NewAlertStore(path string, log *slog.Logger) *AlertStore {
	return &AlertStore{path: path, log: log}
}

// Load returns all registered alerts. A missing or corrupt file loads as
// empty.
func (s *AlertStore) Load() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadLocked()
}

func (s *AlertStore) loadLocked() []Alert {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("alert store unreadable, treating as empty", slog.String("path", s.path), slog.Any("err", err))
		}
		return []Alert{}
	}
	var alerts []Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		s.log.Warn("alert store corrupt, treating as empty", slog.String("path", s.path), slog.Any("err", err))
		return []Alert{}
	}
	return alerts
}

// Append durably adds one alert, assigning it an ID. The write completes
// before Append returns so the registration can be acknowledged.
func (s *AlertStore) Append(a Alert) (Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = uuid.NewString()
	alerts := append(s.loadLocked(), a)

	data, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return Alert{}, err
	}
	if err := writeAtomic(s.path, data); err != nil {
		return Alert{}, err
	}
	s.log.Info("alert registered",
		slog.String("id", a.ID),
		slog.String("email", a.Email),
		slog.String("route", a.RouteID),
	)
	return a, nil
}

// writeAtomic replaces path's contents all-or-nothing: the data lands in a
// temp file in the same directory and is renamed over the target.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
