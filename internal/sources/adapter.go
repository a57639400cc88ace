// Package sources contains one extraction adapter per listing portal.
// Adapters are pure: they build search URLs and parse HTML, while fetching,
// pagination and delays are driven by the caller.
package sources

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/jcastillo/inmoalert/internal/entities"
	"github.com/jcastillo/inmoalert/internal/normalize"
)

// ErrMissingField marks a card or detail page that did not yield the two
// mandatory fields (title, price). Callers drop the candidate and continue.
var ErrMissingField = errors.New("missing mandatory field")

// SearchResult is what one result page parses into: either complete listings
// extracted from the cards, or detail-page URLs that must be fetched
// individually. Exactly one of the two is populated per adapter.
type SearchResult struct {
	Listings   []entities.Listing
	DetailURLs []string
}

type Adapter interface {
	Source() entities.Source

	// BuildSearchURL deterministically encodes the alert criteria and page
	// number into the portal's routing scheme.
	BuildSearchURL(alert *entities.Alert, page int) (string, error)

	// ParseSearchPage extracts candidates from one result page. A card that
	// fails to parse is skipped, never fatal.
	ParseSearchPage(html string, alert *entities.Alert) (SearchResult, error)

	// ParseDetailPage extracts a single listing from its own page. Only used
	// by adapters whose result cards carry too little data.
	ParseDetailPage(html string, pageURL string, alert *entities.Alert) (*entities.Listing, error)
}

// NewRegistry builds the source → adapter dispatch table used by the runner.
func NewRegistry(selectors Config) map[entities.Source]Adapter {
	return map[entities.Source]Adapter{
		entities.SourceUrbania:     NewUrbania(selectors[string(entities.SourceUrbania)]),
		entities.SourceAdondevivir: NewAdondevivir(selectors[string(entities.SourceAdondevivir)]),
		entities.SourceProperati:   NewProperati(selectors[string(entities.SourceProperati)]),
		entities.SourceInfocasas:   NewInfocasas(selectors[string(entities.SourceInfocasas)]),
	}
}

// slugify converts criteria text like "San Isidro" into the hyphenated form
// portals use in path segments.
func slugify(s string) string {
	return strings.ReplaceAll(normalize.Address(s), " ", "-")
}
