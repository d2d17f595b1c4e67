// Package positions turns raw feed snapshots into typed, deduplicated
// vehicle positions.
//
// Normalization keeps at most one record per vehicle (the most recent by
// parsed timestamp), discards records from other operational days, and
// parses coordinates written with either decimal commas or dots. A single
// malformed record is dropped, never propagated.
package positions
