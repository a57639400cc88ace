package entities

import "time"

// SourceOutcome is the per-source result of one run. Only successful sources
// count toward "sources searched" in the notification.
type SourceOutcome struct {
	Source   Source
	OK       bool
	Listings []Listing
	Err      string
	Elapsed  time.Duration
}

// RunSummary is returned by the job entrypoint.
type RunSummary struct {
	AlertsProcessed int      `json:"alertsProcessed"`
	Errors          []string `json:"errors"`
}
