package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rentListing(title string, price int) Listing {
	return Listing{
		Source:          SourceUrbania,
		CanonicalURL:    "https://urbania.pe/inmueble/x",
		Title:           title,
		Price:           price,
		Currency:        CurrencyPEN,
		TransactionType: TransactionRent,
	}
}

func Test_Alert_Validate_WithValidFields_ShouldPass(t *testing.T) {

	alert := NewAlert("ana@example.com", TransactionRent, "lima")

	assert.NoError(t, alert.Validate())
}

func Test_Alert_Validate_WithBadEmail_ShouldFail(t *testing.T) {

	alert := NewAlert("not-an-email", TransactionRent, "lima")

	assert.Error(t, alert.Validate())
}

func Test_Alert_Validate_WithUnknownTransactionType_ShouldFail(t *testing.T) {

	alert := NewAlert("ana@example.com", "LEASE", "lima")

	assert.Error(t, alert.Validate())
}

func Test_Alert_Accepts_OverMaxPrice_ShouldReject(t *testing.T) {

	alert := Alert{MaxPrice: 2000}

	assert.False(t, alert.Accepts(rentListing("Departamento", 2500)))
	assert.True(t, alert.Accepts(rentListing("Departamento", 1800)))
}

func Test_Alert_Accepts_BelowMinArea_ShouldReject(t *testing.T) {

	alert := Alert{MinArea: 70}

	small := rentListing("Departamento", 1500)
	area := 60.0
	small.SquareMeters = &area

	unknown := rentListing("Departamento", 1500)

	assert.False(t, alert.Accepts(small))
	assert.False(t, alert.Accepts(unknown), "missing area cannot satisfy a minimum")
}

func Test_Alert_Accepts_BelowMinBedrooms_ShouldReject(t *testing.T) {

	alert := Alert{MinBedrooms: 3}

	listing := rentListing("Departamento", 1500)
	two := 2
	listing.Bedrooms = &two

	assert.False(t, alert.Accepts(listing))

	three := 3
	listing.Bedrooms = &three
	assert.True(t, alert.Accepts(listing))
}

func Test_Alert_Accepts_ExcludedKeyword_ShouldReject(t *testing.T) {

	alert := Alert{ExcludeKeywords: "azotea, sótano"}

	assert.False(t, alert.Accepts(rentListing("Departamento en Azotea", 1500)))
	assert.True(t, alert.Accepts(rentListing("Departamento con vista", 1500)))
}

func Test_Alert_Accepts_IncludeKeywords_ShouldRequireAtLeastOne(t *testing.T) {

	alert := Alert{IncludeKeywords: "amoblado,vista al mar"}

	assert.True(t, alert.Accepts(rentListing("Flat amoblado en Barranco", 1500)))
	assert.False(t, alert.Accepts(rentListing("Flat sin muebles", 1500)))
}

func Test_Alert_CsvHelpers_ShouldTrimAndDropEmpty(t *testing.T) {

	alert := Alert{Neighborhoods: " miraflores , barranco ,,san isidro"}

	assert.Equal(t, []string{"miraflores", "barranco", "san isidro"}, alert.NeighborhoodsAsArray())

	empty := Alert{}
	assert.Nil(t, empty.ExcludeKeywordsAsArray())
}

func Test_ToSource_ShouldRejectUnknownPortal(t *testing.T) {

	source, err := ToSource("urbania")
	assert.NoError(t, err)
	assert.Equal(t, SourceUrbania, source)

	_, err = ToSource("zonaprop")
	assert.Error(t, err)
}
