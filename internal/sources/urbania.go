package sources

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jcastillo/inmoalert/internal/entities"
)

// Urbania routes searches through path segments:
// /buscar/alquiler-de-departamentos-en-miraflores--lima?precio-hasta=3000&page=2
type Urbania struct {
	sel Selectors
}

func NewUrbania(sel Selectors) *Urbania {
	return &Urbania{sel: sel}
}

func (u *Urbania) Source() entities.Source { return entities.SourceUrbania }

func (u *Urbania) BuildSearchURL(alert *entities.Alert, page int) (string, error) {

	operation := "alquiler"
	if alert.TransactionType == entities.TransactionBuy {
		operation = "venta"
	}

	propertyType := "departamentos"
	if types := alert.PropertyTypesAsArray(); len(types) > 0 {
		propertyType = slugify(types[0])
	}

	place := slugify(alert.City)
	if hoods := alert.NeighborhoodsAsArray(); len(hoods) > 0 {
		place = slugify(hoods[0]) + "--" + place
	}

	path := fmt.Sprintf("%s/buscar/%s-de-%s-en-%s", u.sel.BaseURL, operation, propertyType, place)

	query := url.Values{}
	if alert.MaxPrice > 0 {
		query.Set("precio-hasta", strconv.Itoa(alert.MaxPrice))
	}
	if alert.MinBedrooms > 0 {
		query.Set("dormitorios-desde", strconv.Itoa(alert.MinBedrooms))
	}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path, nil
}

func (u *Urbania) ParseSearchPage(html string, alert *entities.Alert) (SearchResult, error) {
	listings, err := parseCards(html, u.sel, u.Source(), alert)
	return SearchResult{Listings: listings}, err
}

func (u *Urbania) ParseDetailPage(string, string, *entities.Alert) (*entities.Listing, error) {
	// result cards carry full data; detail pages are never fetched
	return nil, nil
}
