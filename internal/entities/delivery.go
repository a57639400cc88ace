package entities

import "time"

// Delivery marks "this alert has already been shown this listing". Unique on
// (alert_id, listing_id); created exactly once and never pruned, which is what
// makes the never-re-notify guarantee permanent.
type Delivery struct {
	ID        int
	AlertID   int  `gorm:"index:idx_alert_listing,unique"`
	ListingID uint `gorm:"index:idx_alert_listing,unique"`
	CreatedAt time.Time
}

// RunAuditEntry is one append-only audit row per listing per run.
type RunAuditEntry struct {
	ID        int
	AlertID   int
	Recipient string
	ListingID uint
	IsNew     bool
	Emitted   bool
	RunAt     time.Time
	CreatedAt time.Time
}
