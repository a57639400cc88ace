package sources

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jcastillo/inmoalert/internal/entities"
)

// Properati is the query-routed portal:
// /s?operation_type=rent&place=lima&price_max=3000&page=2
type Properati struct {
	sel Selectors
}

func NewProperati(sel Selectors) *Properati {
	return &Properati{sel: sel}
}

func (p *Properati) Source() entities.Source { return entities.SourceProperati }

func (p *Properati) BuildSearchURL(alert *entities.Alert, page int) (string, error) {

	operation := "rent"
	if alert.TransactionType == entities.TransactionBuy {
		operation = "sale"
	}

	query := url.Values{}
	query.Set("operation_type", operation)

	place := slugify(alert.City)
	if hoods := alert.NeighborhoodsAsArray(); len(hoods) > 0 {
		place = slugify(hoods[0]) + "," + place
	}
	query.Set("place", place)

	if types := alert.PropertyTypesAsArray(); len(types) > 0 {
		query.Set("property_type", slugify(types[0]))
	}
	if alert.MaxPrice > 0 {
		query.Set("price_max", strconv.Itoa(alert.MaxPrice))
	}
	if alert.MinArea > 0 {
		query.Set("area_min", strconv.Itoa(int(alert.MinArea)))
	}
	if alert.MaxArea > 0 {
		query.Set("area_max", strconv.Itoa(int(alert.MaxArea)))
	}
	if alert.MinBedrooms > 0 {
		query.Set("bedrooms_min", strconv.Itoa(alert.MinBedrooms))
	}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}

	return fmt.Sprintf("%s/s?%s", p.sel.BaseURL, query.Encode()), nil
}

func (p *Properati) ParseSearchPage(html string, alert *entities.Alert) (SearchResult, error) {
	listings, err := parseCards(html, p.sel, p.Source(), alert)
	return SearchResult{Listings: listings}, err
}

func (p *Properati) ParseDetailPage(string, string, *entities.Alert) (*entities.Listing, error) {
	return nil, nil
}
