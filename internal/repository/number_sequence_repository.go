package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/salesdesk/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequenceRepository hands out quotation sequence numbers per year.
type NumberSequenceRepository struct {
	db *gorm.DB
}

func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// NextNumber atomically retrieves and increments the sequence for a year
// on the given transaction handle. The row lock keeps concurrent
// quotations from sharing a number; creating a quotation and taking its
// number therefore commit or roll back together.
func (r *NumberSequenceRepository) NextNumber(tx *gorm.DB, year int) (int, error) {
	var seq domain.NumberSequence
	var nextSeq int

	query := tx.Where("year = ?", year)
	if tx.Dialector.Name() == "postgres" {
		// SQLite serializes writers on its own and rejects FOR UPDATE.
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	result := query.First(&seq)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		seq = domain.NumberSequence{
			Year:         year,
			LastSequence: 1,
		}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("failed to create number sequence: %w", err)
		}
		nextSeq = 1
	} else if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	} else {
		nextSeq = seq.LastSequence + 1
		if err := tx.Model(&seq).Updates(map[string]interface{}{
			"last_sequence": nextSeq,
			"updated_at":    time.Now(),
		}).Error; err != nil {
			return 0, fmt.Errorf("failed to update number sequence: %w", err)
		}
	}

	return nextSeq, nil
}

// CurrentSequence returns the last used sequence for a year without
// incrementing. Returns 0 when no quotation has been numbered that year.
func (r *NumberSequenceRepository) CurrentSequence(ctx context.Context, year int) (int, error) {
	var seq domain.NumberSequence
	err := r.db.WithContext(ctx).Where("year = ?", year).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seq.LastSequence, nil
}
