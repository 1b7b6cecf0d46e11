package database

import (
	"fmt"
	"time"

	"github.com/salesdesk/crm-api/internal/config"
	"github.com/salesdesk/crm-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// AutoMigrate runs automatic migrations (for development only; production
// uses the goose migrations under migrations/)
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.LeadSource{},
		&domain.Product{},
		&domain.ProductImage{},
		&domain.Lead{},
		&domain.LeadLost{},
		&domain.Customer{},
		&domain.Deal{},
		&domain.DealWon{},
		&domain.DealLost{},
		&domain.Followup{},
		&domain.Note{},
		&domain.Quotation{},
		&domain.QuotationItem{},
		&domain.NumberSequence{},
	); err != nil {
		return err
	}
	return EnsureConstraints(db)
}

// EnsureConstraints creates the constraints AutoMigrate cannot express.
// The partial unique index keeps "at most one open deal per customer"
// race-free instead of relying on check-then-insert alone.
func EnsureConstraints(db *gorm.DB) error {
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_deals_one_open_per_customer
		 ON deals (customer_id) WHERE stage IN ('prospect', 'negotiation')`,
	).Error
}
