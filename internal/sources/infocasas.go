package sources

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/jcastillo/inmoalert/internal/entities"
	"github.com/jcastillo/inmoalert/internal/fingerprint"
	"github.com/jcastillo/inmoalert/internal/normalize"
)

// Infocasas result cards only expose a cover link, so the adapter yields
// detail URLs and parses each listing from its own page:
// /alquiler/departamentos/lima/pagina2?hasta=3000
type Infocasas struct {
	sel Selectors
}

func NewInfocasas(sel Selectors) *Infocasas {
	return &Infocasas{sel: sel}
}

func (i *Infocasas) Source() entities.Source { return entities.SourceInfocasas }

func (i *Infocasas) BuildSearchURL(alert *entities.Alert, page int) (string, error) {

	operation := "alquiler"
	if alert.TransactionType == entities.TransactionBuy {
		operation = "venta"
	}

	propertyType := "departamentos"
	if types := alert.PropertyTypesAsArray(); len(types) > 0 {
		propertyType = slugify(types[0])
	}

	path := fmt.Sprintf("%s/%s/%s/%s", i.sel.BaseURL, operation, propertyType, slugify(alert.City))
	if page > 1 {
		path += fmt.Sprintf("/pagina%d", page)
	}

	query := url.Values{}
	if alert.MaxPrice > 0 {
		query.Set("hasta", strconv.Itoa(alert.MaxPrice))
	}
	if alert.MinBedrooms > 0 {
		query.Set("dormitorios", strconv.Itoa(alert.MinBedrooms))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path, nil
}

func (i *Infocasas) ParseSearchPage(html string, _ *entities.Alert) (SearchResult, error) {

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return SearchResult{}, errors.Wrap(err, "parse html")
	}

	var detailURLs []string
	seen := map[string]struct{}{}

	doc.Find(i.sel.Card).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find(i.sel.DetailLink).First().Attr("href")
		if !ok || href == "" {
			return
		}
		detailURL := resolveURL(i.sel.BaseURL, href)
		if _, dup := seen[detailURL]; dup {
			return
		}
		seen[detailURL] = struct{}{}
		detailURLs = append(detailURLs, detailURL)
	})

	return SearchResult{DetailURLs: detailURLs}, nil
}

func (i *Infocasas) ParseDetailPage(html string, pageURL string, alert *entities.Alert) (*entities.Listing, error) {

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}

	title := strings.TrimSpace(doc.Find(i.sel.DetailTitle).First().Text())
	if title == "" {
		return nil, errors.Wrap(ErrMissingField, "title")
	}

	price, currency, ok := normalize.ParsePrice(doc.Find(i.sel.DetailPrice).First().Text())
	if !ok {
		return nil, errors.Wrap(ErrMissingField, "price")
	}

	location := strings.TrimSpace(doc.Find(i.sel.DetailLocation).First().Text())

	listing := entities.Listing{
		Source:          i.Source(),
		CanonicalURL:    entities.CanonicalizeURL(pageURL),
		Title:           title,
		Price:           price,
		Currency:        currency,
		TransactionType: alert.TransactionType,
		City:            alert.City,
		Neighborhood:    location,
		SquareMeters:    normalize.SquareMeters(doc.Find(i.sel.DetailArea).First().Text()),
		Bedrooms:        normalize.Count(doc.Find(i.sel.DetailBedrooms).First().Text()),
		ImageURL:        imageURL(doc.Selection, i.sel.DetailImage),
		CapturedAt:      time.Now(),
	}

	address := normalize.Address(location + " " + alert.City)
	listing.Fingerprint = fingerprint.Compute(i.Source(), address, price, listing.SquareMeters, listing.Bedrooms)

	return &listing, nil
}
