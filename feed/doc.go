// Package feed handles fetching and caching the upstream vehicle-position
// snapshot.
//
// Two sources are supported:
//   - a list-shaped JSON feed (the Rio SPPO GPS endpoint)
//   - a GTFS-Realtime VehiclePositions protobuf feed
//
// The main type is SnapshotCache, which gates upstream calls behind a
// time-to-live and coalesces concurrent misses into a single fetch.
package feed
