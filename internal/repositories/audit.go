package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jcastillo/inmoalert/internal/entities"
)

type AuditLog struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLog {
	return &AuditLog{db: db}
}

// LogRun appends one row per listing for a run. Append-only; rows are only
// ever removed by the retention job.
func (repo *AuditLog) LogRun(ctx context.Context, alertID int, recipient string,
	listingIDs []uint, isNew map[uint]bool, emitted map[uint]bool) error {

	if len(listingIDs) == 0 {
		return nil
	}

	runAt := time.Now()
	entries := make([]entities.RunAuditEntry, 0, len(listingIDs))
	for _, id := range listingIDs {
		entries = append(entries, entities.RunAuditEntry{
			AlertID:   alertID,
			Recipient: recipient,
			ListingID: id,
			IsNew:     isNew[id],
			Emitted:   emitted[id],
			RunAt:     runAt,
		})
	}

	return repo.db.WithContext(ctx).Create(&entries).Error
}

func (repo *AuditLog) RemoveOldEntries(ctx context.Context, before time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).Delete(&entities.RunAuditEntry{}, "run_at < ?", before)
	return res.RowsAffected, res.Error
}
