package models

import "time"

// Note is a user-authored meeting note.
type Note struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserGoogleID string    `gorm:"index;not null" json:"-"`
	Title        string    `json:"title"`
	Summary      string    `gorm:"type:text" json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
