package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcastillo/inmoalert/internal/entities"
)

const urbaniaResultsPage = `
<html><body>
<div data-qa="posting PROPERTY">
  <h2 class="postingCard-title"><a href="/inmueble/dpto-miraflores-123?pos=1#fotos">Departamento en Miraflores</a></h2>
  <div data-qa="POSTING_CARD_PRICE">S/ 2,500</div>
  <span data-qa="POSTING_CARD_LOCATION">Miraflores, Lima</span>
  <span data-qa="POSTING_CARD_FEATURES">
    <span class="area">80 m²</span>
    <span class="bedrooms">3 dorms.</span>
    <span class="bathrooms">2 baños</span>
  </span>
  <img class="postingCard-image" src="https://img.urbania.pe/123.jpg"/>
</div>
<div data-qa="posting PROPERTY">
  <h2 class="postingCard-title"><a href="/inmueble/dpto-surco-456">Departamento en Surco</a></h2>
  <div data-qa="POSTING_CARD_PRICE">Consultar precio</div>
</div>
</body></html>`

func urbaniaAdapter(t *testing.T) *Urbania {
	cfg, err := LoadSelectors("")
	assert.NoError(t, err)
	return NewUrbania(cfg[string(entities.SourceUrbania)])
}

func Test_Urbania_BuildSearchURL_ShouldEncodeCriteriaInPath(t *testing.T) {

	adapter := urbaniaAdapter(t)
	alert := entities.Alert{
		TransactionType: entities.TransactionRent,
		City:            "Lima",
		Neighborhoods:   "Miraflores",
		MaxPrice:        3000,
		MinBedrooms:     2,
	}

	searchURL, err := adapter.BuildSearchURL(&alert, 2)

	assert.NoError(t, err)
	assert.Equal(t, "https://urbania.pe/buscar/alquiler-de-departamentos-en-miraflores--lima"+
		"?dormitorios-desde=2&page=2&precio-hasta=3000", searchURL)
}

func Test_Urbania_BuildSearchURL_FirstPage_ShouldOmitPageParameter(t *testing.T) {

	adapter := urbaniaAdapter(t)
	alert := entities.Alert{TransactionType: entities.TransactionBuy, City: "Lima"}

	searchURL, err := adapter.BuildSearchURL(&alert, 1)

	assert.NoError(t, err)
	assert.Equal(t, "https://urbania.pe/buscar/venta-de-departamentos-en-lima", searchURL)
}

func Test_Urbania_ParseSearchPage_ShouldExtractCompleteCardsAndDropBroken(t *testing.T) {

	adapter := urbaniaAdapter(t)
	alert := entities.Alert{TransactionType: entities.TransactionRent, City: "Lima"}

	result, err := adapter.ParseSearchPage(urbaniaResultsPage, &alert)

	assert.NoError(t, err)
	assert.Empty(t, result.DetailURLs)
	assert.Len(t, result.Listings, 1, "the card without a price must be dropped")

	listing := result.Listings[0]
	assert.Equal(t, entities.SourceUrbania, listing.Source)
	assert.Equal(t, "https://urbania.pe/inmueble/dpto-miraflores-123", listing.CanonicalURL)
	assert.Equal(t, "Departamento en Miraflores", listing.Title)
	assert.Equal(t, 2500, listing.Price)
	assert.Equal(t, entities.CurrencyPEN, listing.Currency)
	assert.Equal(t, "Miraflores, Lima", listing.Neighborhood)
	assert.Equal(t, 80.0, *listing.SquareMeters)
	assert.Equal(t, 3, *listing.Bedrooms)
	assert.Equal(t, 2, *listing.Bathrooms)
	assert.Equal(t, "https://img.urbania.pe/123.jpg", listing.ImageURL)
	assert.Len(t, listing.Fingerprint, 32)
}

func Test_Urbania_ParseSearchPage_EmptyPage_ShouldReturnNoListings(t *testing.T) {

	adapter := urbaniaAdapter(t)
	alert := entities.Alert{TransactionType: entities.TransactionRent, City: "Lima"}

	result, err := adapter.ParseSearchPage("<html><body></body></html>", &alert)

	assert.NoError(t, err)
	assert.Empty(t, result.Listings)
}
