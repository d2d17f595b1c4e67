package matcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/feed"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/geo"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/internal/metrics"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/positions"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/store"
)

// Matcher checks every alert against the current snapshot. It reloads the
// alert store and the cooldown ledger on each run, so alerts registered
// between runs take effect without coordination.
type Matcher struct {
	mu          sync.Mutex
	alerts      *store.AlertStore
	ledger      *store.CooldownLedger
	cache       *feed.SnapshotCache
	notifier    Notifier
	loc         *time.Location
	proximityKM float64
	cooldown    time.Duration
	log         *slog.Logger
}

// New creates a matcher. The scheduler is expected to keep runs
// non-concurrent; the mutex only degrades a misbehaving scheduler to
// serialized runs instead of corrupting the ledger file.
func New(
	alerts *store.AlertStore,
	ledger *store.CooldownLedger,
	cache *feed.SnapshotCache,
	notifier Notifier,
	loc *time.Location,
	proximityKM float64,
	cooldown time.Duration,
	log *slog.Logger,
) *Matcher {
	return &Matcher{
		alerts:      alerts,
		ledger:      ledger,
		cache:       cache,
		notifier:    notifier,
		loc:         loc,
		proximityKM: proximityKM,
		cooldown:    cooldown,
		log:         log,
	}
}

// Run executes one matching pass at the given instant. Upstream
// unavailability aborts the run without touching the ledger and is
// returned so the caller can log the skip; everything else is handled
// inside the run.
func (m *Matcher) Run(ctx context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Now()

	alerts := m.alerts.Load()
	if len(alerts) == 0 {
		m.log.Info("no alerts registered, skipping check")
		metrics.IncMatcherRun(metrics.RunOutcomeNoAlerts)
		return nil
	}

	snap, err := m.cache.Get(ctx, now)
	if err != nil {
		m.log.Error("could not fetch vehicle positions", slog.Any("err", err))
		metrics.IncMatcherRun(metrics.RunOutcomeSkipUpstream)
		return err
	}

	today := now.In(m.loc)
	current := positions.Normalize(snap.Records, today, m.loc)

	entries := m.ledger.Load()
	nowSec := now.Unix()
	cooldownSec := int64(m.cooldown.Seconds())
	notified := 0

	for _, alert := range alerts {
		for _, pos := range current {
			if pos.RouteID != alert.RouteID {
				continue
			}
			key := store.Key(alert.Email, pos.VehicleID)
			if nowSec-entries[key] < cooldownSec {
				continue
			}
			dist := geo.HaversineKM(alert.TargetLat, alert.TargetLon, pos.Latitude, pos.Longitude)
			if dist > m.proximityKM {
				continue
			}

			// The cooldown key is refreshed regardless of delivery
			// outcome; delivery failure must not cause a retry storm.
			entries[key] = nowSec
			notified++
			metrics.IncNotification()

			n := Notification{
				Subscriber:   alert.Email,
				RouteID:      alert.RouteID,
				VehicleID:    pos.VehicleID,
				SpeedKMH:     pos.SpeedKMH,
				ObservedTime: pos.TimeOfDay,
				DistanceKM:   dist,
			}
			if err := m.notifier.Notify(ctx, n); err != nil {
				m.log.Error("notification delivery failed",
					slog.String("subscriber", n.Subscriber),
					slog.String("vehicle", n.VehicleID),
					slog.Any("err", err),
				)
			}
		}
	}

	if err := m.ledger.Save(entries, now); err != nil {
		m.log.Error("could not persist cooldown ledger", slog.Any("err", err))
	}

	m.log.Info("alert check finished",
		slog.Int("alerts", len(alerts)),
		slog.Int("vehicles", len(current)),
		slog.Int("notified", notified),
	)
	metrics.IncMatcherRun(metrics.RunOutcomeCompleted)
	metrics.ObserveMatcherRun(time.Since(start))
	return nil
}
