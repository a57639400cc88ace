package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcastillo/inmoalert/internal/entities"
)

func Test_Compute_ShouldBeDeterministic(t *testing.T) {

	sqm := 80.0
	bedrooms := 3

	first := Compute(entities.SourceUrbania, "av jose pardo 123 miraflores", 2500, &sqm, &bedrooms)
	second := Compute(entities.SourceUrbania, "av jose pardo 123 miraflores", 2500, &sqm, &bedrooms)

	assert.Equal(t, first, second)
	assert.Len(t, first, 32)
}

func Test_Compute_PricesInSameBucket_ShouldCollide(t *testing.T) {

	a := Compute(entities.SourceUrbania, "calle berlin 400", 2501, nil, nil)
	b := Compute(entities.SourceUrbania, "calle berlin 400", 2549, nil, nil)

	assert.Equal(t, a, b)
}

func Test_Compute_PricesInDifferentBuckets_ShouldDiffer(t *testing.T) {

	a := Compute(entities.SourceUrbania, "calle berlin 400", 2449, nil, nil)
	b := Compute(entities.SourceUrbania, "calle berlin 400", 2550, nil, nil)

	assert.NotEqual(t, a, b)
}

func Test_Compute_DifferentSources_ShouldDiffer(t *testing.T) {

	a := Compute(entities.SourceUrbania, "calle berlin 400", 2500, nil, nil)
	b := Compute(entities.SourceProperati, "calle berlin 400", 2500, nil, nil)

	assert.NotEqual(t, a, b)
}

func Test_Compute_MissingOptionalFeatures_ShouldStillHash(t *testing.T) {

	sqm := 80.0

	withArea := Compute(entities.SourceInfocasas, "av arequipa 1000", 1800, &sqm, nil)
	withoutArea := Compute(entities.SourceInfocasas, "av arequipa 1000", 1800, nil, nil)

	assert.NotEqual(t, withArea, withoutArea)
}
