package repository

import (
	"context"

	"github.com/salesdesk/crm-api/internal/domain"
	"gorm.io/gorm"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *NoteRepository) GetByID(ctx context.Context, id uint) (*domain.Note, error) {
	var note domain.Note
	err := r.db.WithContext(ctx).First(&note, id).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Note{}, id).Error
}

// ListForEntity returns the notes attached to one record, newest first.
// Entity-level visibility is decided in the service before this runs.
func (r *NoteRepository) ListForEntity(ctx context.Context, entityType domain.NoteEntityType, entityID uint) ([]domain.Note, error) {
	var notes []domain.Note
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}
