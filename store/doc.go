// Package store persists subscriber alerts and the notification cooldown
// ledger as flat JSON files.
//
// Both stores tolerate absence and corruption by loading as empty: losing
// cooldown history risks bounded over-notification, which beats crashing
// the periodic run. Writes go through an atomic temp-file-and-rename
// replace so a concurrent reader never sees partial state.
package store
