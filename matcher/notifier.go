package matcher

import (
	"context"
	"log/slog"
)

// Notification is the request handed to the mail transport. Delivery
// failures are the transport's problem; they never feed back into the
// cooldown ledger.
type Notification struct {
	Subscriber   string
	RouteID      string
	VehicleID    string
	SpeedKMH     float64
	ObservedTime string
	DistanceKM   float64
}

// Notifier delivers one notification request.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log instead of sending mail.
// Used when SMTP is not configured, and by tests.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.Log.Info("proximity notification",
		slog.String("subscriber", n.Subscriber),
		slog.String("route", n.RouteID),
		slog.String("vehicle", n.VehicleID),
		slog.Float64("distanceKM", n.DistanceKM),
		slog.String("observedTime", n.ObservedTime),
	)
	return nil
}
