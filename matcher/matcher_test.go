package matcher

import (
	"context"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/feed"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/geo"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/store"
)

type stubSource struct {
	calls   int32
	records []feed.RawVehicleRecord
	err     error
}

func (s *stubSource) Fetch(ctx context.Context) ([]feed.RawVehicleRecord, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type captureNotifier struct {
	sent []Notification
	err  error
}

func (c *captureNotifier) Notify(ctx context.Context, n Notification) error {
	c.sent = append(c.sent, n)
	return c.err
}

type fixture struct {
	matcher  *Matcher
	alerts   *store.AlertStore
	ledger   *store.CooldownLedger
	source   *stubSource
	notifier *captureNotifier
	loc      *time.Location
	now      time.Time
}

func newFixture(t *testing.T, proximityKM float64) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	alerts := store.NewAlertStore(filepath.Join(dir, "alerts.json"), log)
	ledger := store.NewCooldownLedger(filepath.Join(dir, "ledger.json"), log)
	source := &stubSource{}
	cache := feed.NewSnapshotCache(source, 45*time.Second, nil)
	notifier := &captureNotifier{}

	return &fixture{
		matcher:  New(alerts, ledger, cache, notifier, loc, proximityKM, 1800*time.Second, log),
		alerts:   alerts,
		ledger:   ledger,
		source:   source,
		notifier: notifier,
		loc:      loc,
		now:      time.Date(2026, time.August, 30, 14, 30, 0, 0, loc),
	}
}

func (f *fixture) nowMS() feed.Scalar {
	return feed.Scalar(strconv.FormatInt(f.now.UnixMilli(), 10))
}

func (f *fixture) registerAlert(t *testing.T, email, route string, lat, lon float64) {
	t.Helper()
	if _, err := f.alerts.Append(store.Alert{Email: email, RouteID: route, TargetLat: lat, TargetLon: lon}); err != nil {
		t.Fatalf("register alert: %v", err)
	}
}

func TestRunNotifiesNearbyVehicle(t *testing.T) {
	f := newFixture(t, 1.5)
	f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
	f.source.records = []feed.RawVehicleRecord{
		{VehicleID: "V1", RouteID: "483", Latitude: "-22,901", Longitude: "-43,201", Speed: "28", Timestamp: f.nowMS()},
	}

	if err := f.matcher.Run(context.Background(), f.now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(f.notifier.sent))
	}
	n := f.notifier.sent[0]
	if n.Subscriber != "a@x.com" || n.VehicleID != "V1" || n.RouteID != "483" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.DistanceKM > 0.2 {
		t.Errorf("expected ~0.13km distance, got %g", n.DistanceKM)
	}
	if n.SpeedKMH != 28 {
		t.Errorf("expected speed 28, got %g", n.SpeedKMH)
	}

	entries := f.ledger.Load()
	if entries["a@x.com_V1"] != f.now.Unix() {
		t.Errorf("ledger key not set to run time: %v", entries)
	}
}

func TestRunIdempotentWithinCooldown(t *testing.T) {
	f := newFixture(t, 1.5)
	f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
	f.source.records = []feed.RawVehicleRecord{
		{VehicleID: "V1", RouteID: "483", Latitude: "-22,901", Longitude: "-43,201", Timestamp: f.nowMS()},
	}

	if err := f.matcher.Run(context.Background(), f.now); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := f.matcher.Run(context.Background(), f.now); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("immediate re-run must emit zero extra notifications, got %d total", len(f.notifier.sent))
	}
}

func TestRunCooldownExpiry(t *testing.T) {
	tests := []struct {
		name     string
		age      int64
		notified bool
	}{
		{"expired by one second", 1801, true},
		{"still inside window", 1799, false},
		{"exactly at window edge", 1800, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1.5)
			f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
			f.source.records = []feed.RawVehicleRecord{
				{VehicleID: "V1", RouteID: "483", Latitude: "-22,901", Longitude: "-43,201", Timestamp: f.nowMS()},
			}
			seed := map[string]int64{"a@x.com_V1": f.now.Unix() - tt.age}
			if err := f.ledger.Save(seed, f.now); err != nil {
				t.Fatalf("seed ledger: %v", err)
			}

			if err := f.matcher.Run(context.Background(), f.now); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := len(f.notifier.sent); (got == 1) != tt.notified {
				t.Fatalf("age %d: expected notified=%v, got %d notifications", tt.age, tt.notified, got)
			}
		})
	}
}

func TestRunThresholdBoundaryInclusive(t *testing.T) {
	// A vehicle ~1.1 km due south of the target. The threshold is set to
	// the exact computed distance, so the match hinges on <= vs <.
	dist := geo.HaversineKM(-22.90, -43.20, -22.91, -43.20)

	run := func(t *testing.T, threshold float64) int {
		f := newFixture(t, threshold)
		f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
		f.source.records = []feed.RawVehicleRecord{
			{VehicleID: "V1", RouteID: "483", Latitude: "-22.91", Longitude: "-43.20", Timestamp: f.nowMS()},
		}
		if err := f.matcher.Run(context.Background(), f.now); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return len(f.notifier.sent)
	}

	if got := run(t, dist); got != 1 {
		t.Errorf("distance exactly at threshold must match, got %d notifications", got)
	}
	if got := run(t, math.Nextafter(dist, 0)); got != 0 {
		t.Errorf("distance just past threshold must not match, got %d notifications", got)
	}
}

func TestRunSkipsVehiclesOnOtherRoutes(t *testing.T) {
	f := newFixture(t, 1.5)
	f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
	f.source.records = []feed.RawVehicleRecord{
		{VehicleID: "V9", RouteID: "415", Latitude: "-22,901", Longitude: "-43,201", Timestamp: f.nowMS()},
	}

	if err := f.matcher.Run(context.Background(), f.now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("expected no notifications across routes, got %d", len(f.notifier.sent))
	}
}

func TestRunMalformedPairDoesNotAbortOthers(t *testing.T) {
	f := newFixture(t, 1.5)
	f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
	f.source.records = []feed.RawVehicleRecord{
		{VehicleID: "BAD", RouteID: "483", Latitude: "garbage", Longitude: "-43,201", Timestamp: f.nowMS()},
		{VehicleID: "OK", RouteID: "483", Latitude: "-22,901", Longitude: "-43,201", Timestamp: f.nowMS()},
	}

	if err := f.matcher.Run(context.Background(), f.now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].VehicleID != "OK" {
		t.Fatalf("expected only the well-formed pair to notify, got %+v", f.notifier.sent)
	}
}

func TestRunUpstreamFailureLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t, 1.5)
	f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
	seed := map[string]int64{"a@x.com_V9": f.now.Unix() - 60}
	if err := f.ledger.Save(seed, f.now); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	f.source.err = feed.ErrUpstreamUnavailable

	if err := f.matcher.Run(context.Background(), f.now); err == nil {
		t.Fatal("expected upstream error to surface")
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("expected no notifications on aborted run, got %d", len(f.notifier.sent))
	}
	got := f.ledger.Load()
	if len(got) != 1 || got["a@x.com_V9"] != seed["a@x.com_V9"] {
		t.Fatalf("ledger modified by aborted run: %v", got)
	}
}

func TestRunNoAlertsSkipsUpstreamEntirely(t *testing.T) {
	f := newFixture(t, 1.5)

	if err := f.matcher.Run(context.Background(), f.now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if atomic.LoadInt32(&f.source.calls) != 0 {
		t.Error("expected no upstream fetch when no alerts exist")
	}
}

func TestRunDeliveryFailureStillRefreshesCooldown(t *testing.T) {
	f := newFixture(t, 1.5)
	f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
	f.source.records = []feed.RawVehicleRecord{
		{VehicleID: "V1", RouteID: "483", Latitude: "-22,901", Longitude: "-43,201", Timestamp: f.nowMS()},
	}
	f.notifier.err = context.DeadlineExceeded

	if err := f.matcher.Run(context.Background(), f.now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries := f.ledger.Load()
	if entries["a@x.com_V1"] != f.now.Unix() {
		t.Fatalf("cooldown key must be set regardless of delivery outcome: %v", entries)
	}
}

func TestRunDeduplicatesAcrossAlertsOfOneSubscriber(t *testing.T) {
	// Two alerts on the same route by the same subscriber: the cooldown
	// identity is (subscriber, vehicle), so one vehicle notifies once.
	f := newFixture(t, 1.5)
	f.registerAlert(t, "a@x.com", "483", -22.90, -43.20)
	f.registerAlert(t, "a@x.com", "483", -22.902, -43.202)
	f.source.records = []feed.RawVehicleRecord{
		{VehicleID: "V1", RouteID: "483", Latitude: "-22,901", Longitude: "-43,201", Timestamp: f.nowMS()},
	}

	if err := f.matcher.Run(context.Background(), f.now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one notification per (subscriber, vehicle), got %d", len(f.notifier.sent))
	}
}
