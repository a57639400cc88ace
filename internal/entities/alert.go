package entities

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Alert is a saved search that is re-run on a schedule. Criteria fields are
// immutable for the duration of a run; list-valued fields are stored as
// comma-separated strings.
type Alert struct {
	ID              int
	Email           string          `validate:"required,email"`
	TransactionType TransactionType `validate:"required,oneof=RENT BUY"`
	City            string          `validate:"required"`
	Neighborhoods   string
	MaxPrice        int `validate:"gte=0"`
	MinArea         float64
	MaxArea         float64 `validate:"gtefield=MinArea|eq=0"`
	MinBedrooms     int
	MinParking      int
	PropertyTypes   string
	IncludeKeywords string
	ExcludeKeywords string
	NotifyWhenEmpty bool
	Active          bool
	LastRunAt       time.Time
	CreatedAt       time.Time
}

func NewAlert(email string, transactionType TransactionType, city string) *Alert {
	return &Alert{
		Email:           email,
		TransactionType: transactionType,
		City:            city,
		Active:          true,
	}
}

var validate = validator.New()

func (a *Alert) Validate() error {
	return validate.Struct(a)
}

func (a *Alert) NeighborhoodsAsArray() []string {
	return splitCsv(a.Neighborhoods)
}

func (a *Alert) PropertyTypesAsArray() []string {
	return splitCsv(a.PropertyTypes)
}

func (a *Alert) IncludeKeywordsAsArray() []string {
	return splitCsv(a.IncludeKeywords)
}

func (a *Alert) ExcludeKeywordsAsArray() []string {
	return splitCsv(a.ExcludeKeywords)
}

// Accepts reports whether a normalized listing passes the alert's numeric and
// keyword constraints. Adapters already narrow results server-side where the
// portal supports it; this is the authoritative client-side filter.
func (a *Alert) Accepts(l Listing) bool {
	if a.MaxPrice > 0 && l.Price > a.MaxPrice {
		return false
	}
	if a.MinArea > 0 && (l.SquareMeters == nil || *l.SquareMeters < a.MinArea) {
		return false
	}
	if a.MaxArea > 0 && l.SquareMeters != nil && *l.SquareMeters > a.MaxArea {
		return false
	}
	if a.MinBedrooms > 0 && (l.Bedrooms == nil || *l.Bedrooms < a.MinBedrooms) {
		return false
	}
	if a.MinParking > 0 && (l.Parking == nil || *l.Parking < a.MinParking) {
		return false
	}

	title := strings.ToLower(l.Title)
	for _, kw := range a.ExcludeKeywordsAsArray() {
		if strings.Contains(title, strings.ToLower(kw)) {
			return false
		}
	}
	include := a.IncludeKeywordsAsArray()
	if len(include) > 0 {
		found := lo.SomeBy(include, func(kw string) bool {
			return strings.Contains(title, strings.ToLower(kw))
		})
		if !found {
			return false
		}
	}
	return true
}

func splitCsv(s string) []string {
	if s == "" {
		return nil
	}
	return lo.FilterMap(strings.Split(s, ","), func(item string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(item)
		return trimmed, trimmed != ""
	})
}

func JoinCsv(items []string) string {
	return strings.Join(lo.Map(items, func(item string, _ int) string {
		return strings.TrimSpace(item)
	}), ",")
}
