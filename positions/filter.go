package positions

// FilterByRoute projects normalized positions down to a single route.
// Order-preserving; the only predicate is equality on the route identifier.
func FilterByRoute(all []NormalizedPosition, routeID string) []NormalizedPosition {
	out := make([]NormalizedPosition, 0, len(all))
	for _, p := range all {
		if p.RouteID == routeID {
			out = append(out, p)
		}
	}
	return out
}
