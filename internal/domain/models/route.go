package models

import "strings"

// RouteSeparator joins origin and destination into a route key.
const RouteSeparator = " → "

// Route is one entry of the static route catalog.
type Route struct {
	Key            string   `json:"key"`
	Origin         string   `json:"origin"`
	Destination    string   `json:"destination"`
	Fare           int64    `json:"fare"`
	DepartureTimes []string `json:"departure_times"`
}

// RouteKey renders "origin → destination" in lower case.
func RouteKey(origin, destination string) string {
	o := strings.ToLower(strings.TrimSpace(origin))
	d := strings.ToLower(strings.TrimSpace(destination))
	return o + RouteSeparator + d
}

// HasTime reports whether t is one of the route's departure times.
func (r Route) HasTime(t string) bool {
	for _, dt := range r.DepartureTimes {
		if dt == t {
			return true
		}
	}
	return false
}
