// Package matcher runs the periodic proximity check: every registered
// alert against every same-route vehicle in the current snapshot, with a
// persisted per-(subscriber, vehicle) cooldown so one approach does not
// produce a stream of duplicate notifications.
package matcher
