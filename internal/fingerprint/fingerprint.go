// Package fingerprint derives the content-based secondary identity of a
// listing, used when canonical URLs legitimately differ for the same physical
// unit (re-posted ad).
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/jcastillo/inmoalert/internal/entities"
)

const delimiter = "|"

// Compute hashes source, normalized address, price rounded to the nearest 100
// and the optional area/bedroom features into a 32-hex-char digest. The price
// bucket absorbs trivial re-postings with minor price jitter. Known
// limitation: two genuinely distinct but similar units at the same rounded
// price can collide; this is an accepted heuristic, not a cryptographic
// identity guarantee.
func Compute(source entities.Source, normalizedAddress string, price int, squareMeters *float64, bedrooms *int) string {
	parts := []string{
		string(source),
		normalizedAddress,
		strconv.Itoa(roundPrice(price)),
		formatFloat(squareMeters),
		formatInt(bedrooms),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, delimiter)))
	return hex.EncodeToString(sum[:])[:32]
}

func roundPrice(price int) int {
	return ((price + 50) / 100) * 100
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
