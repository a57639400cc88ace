package sources

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/jcastillo/inmoalert/internal/entities"
	"github.com/jcastillo/inmoalert/internal/fingerprint"
	"github.com/jcastillo/inmoalert/internal/normalize"
)

// extractCard parses one result card into a listing. Title and price are
// mandatory; everything else is best-effort.
func extractCard(card *goquery.Selection, sel Selectors, source entities.Source, alert *entities.Alert) (*entities.Listing, error) {

	title := strings.TrimSpace(card.Find(sel.Title).First().Text())
	if title == "" {
		return nil, errors.Wrap(ErrMissingField, "title")
	}

	href, ok := card.Find(sel.Link).First().Attr("href")
	if !ok || href == "" {
		return nil, errors.Wrap(ErrMissingField, "link")
	}

	price, currency, ok := normalize.ParsePrice(card.Find(sel.Price).First().Text())
	if !ok {
		return nil, errors.Wrap(ErrMissingField, "price")
	}

	location := strings.TrimSpace(card.Find(sel.Location).First().Text())

	listing := entities.Listing{
		Source:          source,
		CanonicalURL:    entities.CanonicalizeURL(resolveURL(sel.BaseURL, href)),
		Title:           title,
		Price:           price,
		Currency:        currency,
		TransactionType: alert.TransactionType,
		City:            alert.City,
		Neighborhood:    location,
		SquareMeters:    normalize.SquareMeters(card.Find(sel.Area).First().Text()),
		Bedrooms:        normalize.Count(card.Find(sel.Bedrooms).First().Text()),
		Bathrooms:       normalize.Count(card.Find(sel.Bathrooms).First().Text()),
		Parking:         normalize.Count(card.Find(sel.Parking).First().Text()),
		ImageURL:        imageURL(card, sel.Image),
		CapturedAt:      time.Now(),
	}

	address := normalize.Address(location + " " + alert.City)
	listing.Fingerprint = fingerprint.Compute(source, address, price, listing.SquareMeters, listing.Bedrooms)

	return &listing, nil
}

// parseCards runs extractCard over every card on a result page, dropping the
// ones that fail to parse.
func parseCards(html string, sel Selectors, source entities.Source, alert *entities.Alert) ([]entities.Listing, error) {

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}

	var listings []entities.Listing
	doc.Find(sel.Card).Each(func(_ int, card *goquery.Selection) {
		listing, err := extractCard(card, sel, source, alert)
		if err != nil {
			return
		}
		listings = append(listings, *listing)
	})

	return listings, nil
}

func imageURL(s *goquery.Selection, selector string) string {
	img := s.Find(selector).First()
	if src, ok := img.Attr("src"); ok && src != "" {
		return src
	}
	// lazy-loaded images keep the real URL in data-src
	if src, ok := img.Attr("data-src"); ok {
		return src
	}
	return ""
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
