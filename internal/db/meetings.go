package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pysugar/meeting-nexus/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMeetingOwned is returned when an upsert targets a meeting that belongs
// to another user.
var ErrMeetingOwned = errors.New("meeting belongs to another user")

// MeetingStore persists meetings captured by the browser extension.
type MeetingStore struct {
	db *gorm.DB
}

func NewMeetingStore(db *gorm.DB) *MeetingStore {
	return &MeetingStore{db: db}
}

// Upsert stores m keyed by its external ID, replacing every captured field
// of an existing row. An existing row is only replaced when it has no owner
// yet or m carries the same owner; otherwise ErrMeetingOwned is returned and
// the row is left untouched.
func (s *MeetingStore) Upsert(ctx context.Context, m *models.Meeting) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_google_id", "title", "meeting_timestamp", "transcript",
			"chat_messages", "summary", "source", "meeting_software",
			"raw_payload", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{clause.Expr{
			SQL: "meetings.user_google_id = '' OR meetings.user_google_id IS NULL OR meetings.user_google_id = excluded.user_google_id",
		}}},
	}).Create(m)
	if res.Error != nil {
		return fmt.Errorf("upsert meeting %s: %w", m.ExternalID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMeetingOwned
	}
	return nil
}

// ListForUser returns the user's meetings, newest first.
func (s *MeetingStore) ListForUser(ctx context.Context, googleID string) ([]models.Meeting, error) {
	meetings := []models.Meeting{}
	err := s.db.WithContext(ctx).
		Where("user_google_id = ?", googleID).
		Order("meeting_timestamp DESC").
		Find(&meetings).Error
	return meetings, err
}

// FindByExternalID returns a meeting or ErrNotFound.
func (s *MeetingStore) FindByExternalID(ctx context.Context, externalID string) (*models.Meeting, error) {
	var m models.Meeting
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// DeleteForUser removes one of the user's meetings. Returns ErrNotFound when
// the meeting does not exist or belongs to someone else.
func (s *MeetingStore) DeleteForUser(ctx context.Context, googleID, externalID string) error {
	res := s.db.WithContext(ctx).
		Where("external_id = ? AND user_google_id = ?", externalID, googleID).
		Delete(&models.Meeting{})
	if res.Error != nil {
		return fmt.Errorf("delete meeting %s: %w", externalID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
