package positions

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/feed"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/internal/metrics"
)

// NormalizedPosition is one vehicle's latest same-day observation. The JSON
// field names match the read-path response contract.
type NormalizedPosition struct {
	VehicleID  string  `json:"ordem"`
	RouteID    string  `json:"linha"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	SpeedKMH   float64 `json:"velocidade"`
	TimeOfDay  string  `json:"hora_atualizacao"`
	ObservedAt int64   `json:"-"` // epoch milliseconds
}

// Normalize deduplicates the snapshot's records by vehicle (latest wins)
// and drops anything not observed on the given operational day. today must
// already be expressed in loc; tests pin it to fixed dates.
//
// The result is ordered latest-observation-first, but callers treating it
// as a per-vehicle map must not rely on order.
func Normalize(records []feed.RawVehicleRecord, today time.Time, loc *time.Location) []NormalizedPosition {
	sorted := make([]feed.RawVehicleRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return parseTimestampMS(sorted[i].Timestamp) > parseTimestampMS(sorted[j].Timestamp)
	})

	y, m, d := today.In(loc).Date()

	seen := make(map[string]bool, len(sorted))
	out := make([]NormalizedPosition, 0, len(sorted))
	for _, rec := range sorted {
		if rec.VehicleID == "" {
			metrics.IncDroppedRecord(metrics.DropReasonMissingVehicleID)
			continue
		}
		if seen[rec.VehicleID] {
			continue
		}
		seen[rec.VehicleID] = true

		ts := parseTimestampMS(rec.Timestamp)
		if ts <= 0 {
			metrics.IncDroppedRecord(metrics.DropReasonBadTimestamp)
			continue
		}
		observed := time.UnixMilli(ts).In(loc)
		oy, om, od := observed.Date()
		if oy != y || om != m || od != d {
			metrics.IncDroppedRecord(metrics.DropReasonStaleDate)
			continue
		}

		lat, err := ParseCoordinate(string(rec.Latitude))
		if err != nil {
			metrics.IncDroppedRecord(metrics.DropReasonBadCoordinates)
			continue
		}
		lon, err := ParseCoordinate(string(rec.Longitude))
		if err != nil {
			metrics.IncDroppedRecord(metrics.DropReasonBadCoordinates)
			continue
		}

		speed, err := ParseCoordinate(string(rec.Speed))
		if err != nil {
			speed = 0 // speed is optional; a bad value is not worth the record
		}

		out = append(out, NormalizedPosition{
			VehicleID:  rec.VehicleID,
			RouteID:    rec.RouteID,
			Latitude:   lat,
			Longitude:  lon,
			SpeedKMH:   speed,
			TimeOfDay:  observed.Format("15:04:05"),
			ObservedAt: ts,
		})
	}
	return out
}

// ParseCoordinate parses a decimal written with either a comma or a dot.
func ParseCoordinate(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
}

// parseTimestampMS parses an epoch-milliseconds scalar; malformed or
// missing values map to 0 so they sort last and get dropped.
func parseTimestampMS(s feed.Scalar) int64 {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return 0
	}
	if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
		return ts
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int64(f)
	}
	return 0
}
