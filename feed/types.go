package feed

import "encoding/json"

// Scalar is a JSON value that may arrive as a string, a number, or null.
// The upstream feed is inconsistent about quoting, so every scalar field is
// kept as raw text and parsed lazily by the normalizer.
type Scalar string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
		return nil
	}
	*s = Scalar(b)
	return nil
}

// MarshalJSON emits the scalar as a JSON string.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// RawVehicleRecord is one upstream record. No invariants hold here: any
// field may be absent, empty, or malformed.
type RawVehicleRecord struct {
	VehicleID string `json:"ordem"`
	RouteID   string `json:"linha"`
	Latitude  Scalar `json:"latitude"`
	Longitude Scalar `json:"longitude"`
	Speed     Scalar `json:"velocidade"`
	Timestamp Scalar `json:"datahora"`
}

// Snapshot is the full upstream feed at one point in time. It is owned by
// the SnapshotCache, replaced wholesale on refresh, and handed to callers
// as a read-only view.
type Snapshot struct {
	Records   []RawVehicleRecord
	FetchedAt int64 // epoch seconds
}
