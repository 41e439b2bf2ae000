package db

import (
	"context"

	"github.com/pysugar/meeting-nexus/internal/db/models"
	"gorm.io/gorm"
)

// NoteStore persists user-authored notes.
type NoteStore struct {
	db *gorm.DB
}

func NewNoteStore(db *gorm.DB) *NoteStore {
	return &NoteStore{db: db}
}

func (s *NoteStore) Create(ctx context.Context, n *models.Note) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// ListForUser returns the user's notes, newest first.
func (s *NoteStore) ListForUser(ctx context.Context, googleID string) ([]models.Note, error) {
	notes := []models.Note{}
	err := s.db.WithContext(ctx).
		Where("user_google_id = ?", googleID).
		Order("created_at DESC, id DESC").
		Find(&notes).Error
	return notes, err
}
