package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jcastillo/inmoalert/internal/entities"
)

type Deliveries struct {
	db *gorm.DB
}

func NewDeliveriesRepository(db *gorm.DB) *Deliveries {
	return &Deliveries{db: db}
}

func (repo *Deliveries) Exists(ctx context.Context, alertID int, listingID uint) (bool, error) {

	var delivery entities.Delivery
	err := repo.db.WithContext(ctx).
		Where("alert_id = ? AND listing_id = ?", alertID, listingID).
		First(&delivery).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Upsert is idempotent: re-inserting an existing (alert, listing) pair is a
// no-op, which makes delivery recording safe to retry.
func (repo *Deliveries) Upsert(ctx context.Context, alertID int, listingID uint) error {
	return repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "alert_id"}, {Name: "listing_id"}},
			DoNothing: true,
		}).
		Create(&entities.Delivery{AlertID: alertID, ListingID: listingID}).Error
}
