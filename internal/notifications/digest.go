package notifications

import "github.com/jcastillo/inmoalert/internal/entities"

// Digest is the notification payload summarizing one alert run.
type Digest struct {
	Recipient       string
	NewListings     []entities.Listing
	TotalScraped    int
	SourcesSearched []entities.Source
}
