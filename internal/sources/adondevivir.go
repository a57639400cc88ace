package sources

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jcastillo/inmoalert/internal/entities"
)

// Adondevivir uses .html path routing with an embedded page marker:
// /departamentos-en-alquiler-en-miraflores-pagina-2.html
type Adondevivir struct {
	sel Selectors
}

func NewAdondevivir(sel Selectors) *Adondevivir {
	return &Adondevivir{sel: sel}
}

func (a *Adondevivir) Source() entities.Source { return entities.SourceAdondevivir }

func (a *Adondevivir) BuildSearchURL(alert *entities.Alert, page int) (string, error) {

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
		place = slugify(hoods[0])
	}

	path := fmt.Sprintf("%s/%s-en-%s-en-%s", a.sel.BaseURL, propertyType, operation, place)
	if page > 1 {
		path += fmt.Sprintf("-pagina-%d", page)
	}
	path += ".html"

	query := url.Values{}
	if alert.MaxPrice > 0 {
		query.Set("preciomax", strconv.Itoa(alert.MaxPrice))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path, nil
}

func (a *Adondevivir) ParseSearchPage(html string, alert *entities.Alert) (SearchResult, error) {
	listings, err := parseCards(html, a.sel, a.Source(), alert)
	return SearchResult{Listings: listings}, err
}

func (a *Adondevivir) ParseDetailPage(string, string, *entities.Alert) (*entities.Listing, error) {
	return nil, nil
}
