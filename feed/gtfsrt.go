package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/config"
)

// GTFSRTSource fetches a GTFS-Realtime VehiclePositions protobuf feed and
// maps each entity onto the raw record shape used by the JSON feed, so the
// rest of the pipeline does not care which upstream produced the snapshot.
type GTFSRTSource struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// NewGTFSRTSource creates a GTFS-RT VehiclePositions feed source.
func NewGTFSRTSource(cfg config.FeedConfig) *GTFSRTSource {
	return &GTFSRTSource{
		url:        cfg.URL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Fetch performs one upstream GET and decodes the protobuf feed message.
func (s *GTFSRTSource) Fetch(ctx context.Context) ([]RawVehicleRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrUpstreamUnavailable, resp.StatusCode, s.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	var msg gtfs.FeedMessage
	if err := proto.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: decode protobuf: %v", ErrUpstreamUnavailable, err)
	}

	records := make([]RawVehicleRecord, 0, len(msg.Entity))
	for _, ent := range msg.Entity {
		if ent == nil || ent.Vehicle == nil {
			continue
		}
		records = append(records, mapVehiclePosition(ent.Vehicle))
	}
	return records, nil
}

func mapVehiclePosition(vp *gtfs.VehiclePosition) RawVehicleRecord {
	var rec RawVehicleRecord
	if vp.Vehicle != nil && vp.Vehicle.Id != nil {
		rec.VehicleID = vp.Vehicle.GetId()
	}
	if vp.Trip != nil {
		rec.RouteID = vp.Trip.GetRouteId()
	}
	if vp.Position != nil {
		rec.Latitude = Scalar(strconv.FormatFloat(float64(vp.Position.GetLatitude()), 'f', -1, 64))
		rec.Longitude = Scalar(strconv.FormatFloat(float64(vp.Position.GetLongitude()), 'f', -1, 64))
		if vp.Position.Speed != nil {
			// GTFS-RT speed is m/s; the pipeline works in km/h.
			kmh := float64(vp.Position.GetSpeed()) * 3.6
			rec.Speed = Scalar(strconv.FormatFloat(kmh, 'f', 1, 64))
		}
	}
	if vp.Timestamp != nil {
		rec.Timestamp = Scalar(strconv.FormatUint(vp.GetTimestamp()*1000, 10))
	}
	return rec
}
