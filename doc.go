// Package busalerts exposes the HTTP surface of the bus proximity alert
// service: live vehicle positions by route, alert registration, health and
// metrics endpoints.
package busalerts
