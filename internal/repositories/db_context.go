package repositories

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jcastillo/inmoalert/internal/entities"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(entities.SavedListing{})
	if err != nil {
		return fmt.Errorf("failed to migrate SavedListing entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.Delivery{})
	if err != nil {
		return fmt.Errorf("failed to migrate Delivery entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.Alert{})
	if err != nil {
		return fmt.Errorf("failed to migrate Alert entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.RunAuditEntry{})
	if err != nil {
		return fmt.Errorf("failed to migrate RunAuditEntry entity: %w", err)
	}

	// Uniqueness is what makes concurrent writers safe here: a duplicate
	// listing insert resolves to "use existing id" and a duplicate delivery
	// insert resolves to a no-op, with no application-level locking.
	if err = c.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_listing_canonical_url ON saved_listings (canonical_url); " +
		"CREATE INDEX IF NOT EXISTS idx_listing_fingerprint ON saved_listings (fingerprint); " +
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_alert_listing ON deliveries (alert_id, listing_id);").
		Error; err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
