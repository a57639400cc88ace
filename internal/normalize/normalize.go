// Package normalize turns raw extracted portal text into typed listing fields.
// Every function degrades to "no value" instead of failing, so a garbled card
// drops a single candidate rather than a whole run.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jcastillo/inmoalert/internal/entities"
)

var (
	digitRunRegexp = regexp.MustCompile(`\d+`)
	floatRegexp    = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	usdRegexp      = regexp.MustCompile(`(?i)(USD|US\$|U\$S)`)
	punctRegexp    = regexp.MustCompile(`[^\p{L}\p{N} ]+`)
)

// diacritics covers the Spanish alphabet; portal addresses are es-PE text.
var diacritics = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u",
	"Ü", "u", "Ñ", "n",
)

// ParsePrice extracts an integer price and currency from free text like
// "S/ 2,500" or "US$ 1,200 al mes". A bare "$" counts as USD. Returns ok=false
// for non-numeric or non-positive values, which callers must treat as "drop
// this candidate".
func ParsePrice(raw string) (price int, currency entities.Currency, ok bool) {
	currency = entities.CurrencyPEN
	if usdRegexp.MatchString(raw) {
		currency = entities.CurrencyUSD
	} else if strings.Contains(raw, "$") && !strings.Contains(raw, "S/") {
		currency = entities.CurrencyUSD
	}

	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	match := digitRunRegexp.FindString(cleaned)
	if match == "" {
		return 0, "", false
	}

	value, err := strconv.Atoi(match)
	if err != nil || value <= 0 {
		return 0, "", false
	}
	return value, currency, true
}

// Address lower-cases, strips diacritics and punctuation and collapses
// whitespace. Used only as fingerprint input, never shown to users.
func Address(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = diacritics.Replace(s)
	s = punctRegexp.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// SquareMeters extracts the leading numeric token from text like "80 m²".
func SquareMeters(raw string) *float64 {
	match := floatRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	match = strings.ReplaceAll(match, ",", ".")
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}

// Count extracts a leading integer from text like "3 dorms." or "2 baños".
func Count(raw string) *int {
	match := digitRunRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	value, err := strconv.Atoi(match)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}
