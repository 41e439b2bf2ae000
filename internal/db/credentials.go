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

// ErrEmptyAccessToken rejects grants that could not authorise any call.
var ErrEmptyAccessToken = errors.New("grant has no access token")

// Profile is the identity returned by the provider's userinfo endpoint.
type Profile struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// Grant is a token grant or refresh result. RefreshToken is empty when the
// provider did not issue a new one.
type Grant struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// CredentialStore persists one credential record per Google identity.
//
// The refresh token is sticky: once stored, a grant without a refresh token
// never clears it. Both write paths enforce this inside a single statement,
// so concurrent logins and refreshes for the same user cannot lose it.
type CredentialStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db, now: time.Now}
}

// UpsertLogin inserts or updates the record for p after a successful
// authorization code exchange and returns the stored row.
func (s *CredentialStore) UpsertLogin(ctx context.Context, p Profile, g Grant) (*models.User, error) {
	if p.GoogleID == "" {
		return nil, errors.New("profile has no identity")
	}
	if g.AccessToken == "" {
		return nil, ErrEmptyAccessToken
	}

	now := s.now().UTC()
	user := models.User{
		GoogleID:     p.GoogleID,
		Email:        p.Email,
		Name:         p.Name,
		Picture:      p.Picture,
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
		TokenExpiry:  g.Expiry.UTC(),
		CreatedAt:    now,
		LastLogin:    now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "google_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"email":         gorm.Expr("excluded.email"),
			"name":          gorm.Expr("excluded.name"),
			"picture":       gorm.Expr("excluded.picture"),
			"access_token":  gorm.Expr("excluded.access_token"),
			"refresh_token": gorm.Expr("COALESCE(NULLIF(excluded.refresh_token, ''), users.refresh_token)"),
			"token_expiry":  gorm.Expr("excluded.token_expiry"),
			"last_login":    gorm.Expr("excluded.last_login"),
		}),
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", p.GoogleID, err)
	}

	return s.FindByGoogleID(ctx, p.GoogleID)
}

// ApplyRefresh records a silent token rotation. Access token, expiry and
// last login are always overwritten; the refresh token only when g carries
// one. Returns ErrNotFound when the record no longer exists.
func (s *CredentialStore) ApplyRefresh(ctx context.Context, googleID string, g Grant) error {
	if g.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	updates := map[string]interface{}{
		"access_token": g.AccessToken,
		"token_expiry": g.Expiry.UTC(),
		"last_login":   s.now().UTC(),
	}
	if g.RefreshToken != "" {
		updates["refresh_token"] = g.RefreshToken
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("google_id = ?", googleID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("apply refresh for %s: %w", googleID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByGoogleID returns the record for googleID or ErrNotFound.
func (s *CredentialStore) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Exists reports whether a record exists for googleID.
func (s *CredentialStore) Exists(ctx context.Context, googleID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("google_id = ?", googleID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
