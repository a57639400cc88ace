package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/jcastillo/inmoalert/internal/entities"
)

type Listings struct {
	db *gorm.DB
}

func NewListingsRepository(db *gorm.DB) *Listings {
	return &Listings{db: db}
}

func (repo *Listings) FindByCanonicalURL(ctx context.Context, url string) (*entities.SavedListing, error) {

	var listing entities.SavedListing
	if err := repo.db.WithContext(ctx).First(&listing, "canonical_url = ?", url).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (repo *Listings) FindByFingerprint(ctx context.Context, hash string) (*entities.SavedListing, error) {

	var listing entities.SavedListing
	if err := repo.db.WithContext(ctx).First(&listing, "fingerprint = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

// Create persists a first sighting. When a concurrent writer won the insert
// race on canonical URL, the existing row is returned instead.
func (repo *Listings) Create(ctx context.Context, listing entities.Listing) (*entities.SavedListing, error) {

	saved := entities.NewSavedListing(listing)
	err := repo.db.WithContext(ctx).Create(&saved).Error
	if err == nil {
		return &saved, nil
	}

	if isUniqueViolation(err) {
		return repo.FindByCanonicalURL(ctx, listing.CanonicalURL)
	}
	return nil, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
