package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jcastillo/inmoalert/internal/entities"
)

type Alerts struct {
	db *gorm.DB
}

func NewAlertsRepository(db *gorm.DB) *Alerts {
	return &Alerts{db: db}
}

func (repo *Alerts) Add(ctx context.Context, alert entities.Alert) error {
	return repo.db.WithContext(ctx).Create(&alert).Error
}

func (repo *Alerts) ListActive(ctx context.Context) ([]entities.Alert, error) {

	var alerts []entities.Alert
	if err := repo.db.WithContext(ctx).Find(&alerts, "active = ?", true).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListActiveByID serves the single-alert on-demand mode.
func (repo *Alerts) ListActiveByID(ctx context.Context, alertID int) ([]entities.Alert, error) {

	var alerts []entities.Alert
	if err := repo.db.WithContext(ctx).
		Find(&alerts, "active = ? AND id = ?", true, alertID).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (repo *Alerts) UpdateLastRun(ctx context.Context, alertID int, at time.Time) error {
	return repo.db.WithContext(ctx).Model(&entities.Alert{}).Where("id = ?", alertID).
		Update("last_run_at", at.UTC()).Error
}

func (repo *Alerts) Remove(ctx context.Context, alertID int) error {
	return repo.db.WithContext(ctx).Delete(&entities.Alert{ID: alertID}).Error
}
