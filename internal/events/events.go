package events

import "github.com/jcastillo/inmoalert/internal/entities"

var ListingFoundTopic = "ListingFoundEvent"

// ListingFound is published for every listing that is new for an alert.
type ListingFound struct {
	Alert  entities.Alert
	Title  string
	Url    string
	Source entities.Source
}

var AlertDeletedTopic = "AlertDeletedEvent"

// AlertDeleted cancels any in-flight run for the alert.
type AlertDeleted struct {
	AlertID int
}
