package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type auditCleanupRepository interface {
	RemoveOldEntries(ctx context.Context, before time.Time) (int64, error)
}

// AuditCleaner prunes old audit rows on a nightly cron. The delivery ledger
// itself is never pruned; only the per-run audit trail is rotated.
type AuditCleaner struct {
	audit           auditCleanupRepository
	cron            *cron.Cron
	retentionInDays int
}

func NewAuditCleaner(audit auditCleanupRepository, retentionInDays int) (*AuditCleaner, error) {

	if retentionInDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	ac := &AuditCleaner{
		audit:           audit,
		cron:            cron.New(),
		retentionInDays: retentionInDays,
	}

	_, err := ac.cron.AddFunc("0 0 * * *", ac.cleanOldEntries)
	if err != nil {
		return nil, err
	}

	ac.cron.Start()
	log.Infof("audit cleaner started, retention in days: %d", ac.retentionInDays)
	return ac, nil
}

func (ac *AuditCleaner) Stop() {
	ac.cron.Stop()
}

func (ac *AuditCleaner) cleanOldEntries() {
	before := time.Now().Add(-time.Duration(ac.retentionInDays) * 24 * time.Hour)
	rowsAffected, err := ac.audit.RemoveOldEntries(context.Background(), before)
	if err != nil {
		log.Errorf("Failed to clean old audit entries: %v", err)
	} else {
		log.Infof("Old audit entries cleaned at %v, affected rows: %v", time.Now(), rowsAffected)
	}
}
