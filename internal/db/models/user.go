package models

import "time"

// User is the credential record for one Google identity.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	GoogleID     string    `gorm:"uniqueIndex;not null" json:"google_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture"`
	AccessToken  string    `gorm:"type:text" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"` // sticky, see db.CredentialStore
	TokenExpiry  time.Time `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}

// HasAccessToken reports whether the record can back an API client.
func (u *User) HasAccessToken() bool {
	return u != nil && u.AccessToken != ""
}
