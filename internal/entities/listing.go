package entities

import (
	"net/url"
	"strings"
	"time"
)

type Currency string

const (
	CurrencyPEN Currency = "PEN"
	CurrencyUSD Currency = "USD"
)

type TransactionType string

const (
	TransactionRent TransactionType = "RENT"
	TransactionBuy  TransactionType = "BUY"
)

// Listing is one scraped unit of offer, produced fresh each run.
type Listing struct {
	Source          Source
	CanonicalURL    string
	Title           string
	Price           int
	Currency        Currency
	TransactionType TransactionType
	City            string
	Neighborhood    string
	SquareMeters    *float64
	Bedrooms        *int
	Bathrooms       *int
	Parking         *int
	ImageURL        string
	CapturedAt      time.Time
	Fingerprint     string
}

// SavedListing is the durable record of every listing ever seen, keyed by
// canonical URL with a secondary index on fingerprint. Never deleted.
type SavedListing struct {
	ID              uint   `gorm:"primaryKey"`
	Source          string `gorm:"index"`
	CanonicalURL    string `gorm:"uniqueIndex"`
	Fingerprint     string `gorm:"index"`
	Title           string
	Price           int
	Currency        string
	TransactionType string
	City            string
	Neighborhood    string
	SquareMeters    *float64
	Bedrooms        *int
	Bathrooms       *int
	Parking         *int
	ImageURL        string
	FirstSeenAt     time.Time
	CreatedAt       time.Time
}

func NewSavedListing(l Listing) SavedListing {
	return SavedListing{
		Source:          string(l.Source),
		CanonicalURL:    l.CanonicalURL,
		Fingerprint:     l.Fingerprint,
		Title:           l.Title,
		Price:           l.Price,
		Currency:        string(l.Currency),
		TransactionType: string(l.TransactionType),
		City:            l.City,
		Neighborhood:    l.Neighborhood,
		SquareMeters:    l.SquareMeters,
		Bedrooms:        l.Bedrooms,
		Bathrooms:       l.Bathrooms,
		Parking:         l.Parking,
		ImageURL:        l.ImageURL,
		FirstSeenAt:     l.CapturedAt,
	}
}

// CanonicalizeURL strips query parameters, fragments and trailing slashes so
// the same physical listing always yields the same URL string across runs.
// Portals attach tracking parameters (utm_*, click ids) that would otherwise
// break URL-based identity. Idempotent.
func CanonicalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}
