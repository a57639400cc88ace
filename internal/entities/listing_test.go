package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CanonicalizeURL_ShouldStripTrackingQueryAndFragment(t *testing.T) {

	got := CanonicalizeURL("https://urbania.pe/inmueble/dpto-miraflores-123?utm_source=mail&pos=4#fotos")

	assert.Equal(t, "https://urbania.pe/inmueble/dpto-miraflores-123", got)
}

func Test_CanonicalizeURL_ShouldLowercaseHostAndTrimTrailingSlash(t *testing.T) {

	got := CanonicalizeURL("https://Urbania.PE/inmueble/dpto-miraflores-123/")

	assert.Equal(t, "https://urbania.pe/inmueble/dpto-miraflores-123", got)
}

func Test_CanonicalizeURL_ShouldBeIdempotent(t *testing.T) {

	once := CanonicalizeURL("https://www.Infocasas.com.pe/alquiler/casa/lima/ficha-99?ref=home")

	assert.Equal(t, once, CanonicalizeURL(once))
}

func Test_NewSavedListing_ShouldCopyIdentityFields(t *testing.T) {

	sqm := 80.0
	listing := Listing{
		Source:       SourceProperati,
		CanonicalURL: "https://properati.pe/detalle/abc",
		Title:        "Departamento en Miraflores",
		Price:        2500,
		Currency:     CurrencyPEN,
		SquareMeters: &sqm,
		Fingerprint:  "deadbeef",
	}

	saved := NewSavedListing(listing)

	assert.Equal(t, "properati", saved.Source)
	assert.Equal(t, listing.CanonicalURL, saved.CanonicalURL)
	assert.Equal(t, listing.Fingerprint, saved.Fingerprint)
	assert.Equal(t, listing.Price, saved.Price)
	assert.Equal(t, &sqm, saved.SquareMeters)
}
