package services

import (
	"context"

	"github.com/jcastillo/inmoalert/internal/entities"
)

type listingRepository interface {
	FindByCanonicalURL(ctx context.Context, url string) (*entities.SavedListing, error)
	FindByFingerprint(ctx context.Context, hash string) (*entities.SavedListing, error)
	Create(ctx context.Context, listing entities.Listing) (*entities.SavedListing, error)
}

type deliveryRepository interface {
	Exists(ctx context.Context, alertID int, listingID uint) (bool, error)
	Upsert(ctx context.Context, alertID int, listingID uint) error
}

// Deduper implements the three-tier novelty check: within the current batch,
// against the persisted listing store, and against one alert's delivery
// ledger.
type Deduper struct {
	listings   listingRepository
	deliveries deliveryRepository
}

func NewDeduper(listings listingRepository, deliveries deliveryRepository) *Deduper {
	return &Deduper{listings: listings, deliveries: deliveries}
}

// FilterBatch discards listings whose canonical URL or fingerprint already
// appeared earlier in the same batch. Portals return the same card twice
// across overlapping pages; this tier catches that before any persistence
// work happens.
func (d *Deduper) FilterBatch(batch []entities.Listing) []entities.Listing {

	seenURLs := make(map[string]struct{}, len(batch))
	seenPrints := make(map[string]struct{}, len(batch))

	result := make([]entities.Listing, 0, len(batch))
	for _, listing := range batch {
		if _, dup := seenURLs[listing.CanonicalURL]; dup {
			continue
		}
		if _, dup := seenPrints[listing.Fingerprint]; dup {
			continue
		}
		seenURLs[listing.CanonicalURL] = struct{}{}
		seenPrints[listing.Fingerprint] = struct{}{}
		result = append(result, listing)
	}
	return result
}

// Resolve maps a candidate to its durable record: by canonical URL first,
// then by fingerprint (a re-posted ad under a new URL), creating the record
// on first sighting. Every candidate ends up with a stable listing id
// whether or not it is globally new.
func (d *Deduper) Resolve(ctx context.Context, listing entities.Listing) (*entities.SavedListing, error) {

	saved, err := d.listings.FindByCanonicalURL(ctx, listing.CanonicalURL)
	if err != nil {
		return nil, err
	}
	if saved != nil {
		return saved, nil
	}

	saved, err = d.listings.FindByFingerprint(ctx, listing.Fingerprint)
	if err != nil {
		return nil, err
	}
	if saved != nil {
		return saved, nil
	}

	return d.listings.Create(ctx, listing)
}

// IsNewForAlert is the final tier: a listing is new for an alert only if no
// delivery record exists for the pair.
func (d *Deduper) IsNewForAlert(ctx context.Context, alertID int, listingID uint) (bool, error) {
	delivered, err := d.deliveries.Exists(ctx, alertID, listingID)
	if err != nil {
		return false, err
	}
	return !delivered, nil
}

// RecordDelivery permanently excludes the listing from future notifications
// to the alert. Idempotent.
func (d *Deduper) RecordDelivery(ctx context.Context, alertID int, listingID uint) error {
	return d.deliveries.Upsert(ctx, alertID, listingID)
}
