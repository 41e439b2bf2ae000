package models

import "time"

// SourceExtension marks meetings captured by the browser extension.
const SourceExtension = "extension"

// Meeting is a captured meeting with its transcript.
type Meeting struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	ExternalID       string    `gorm:"uniqueIndex;not null" json:"id"`
	UserGoogleID     string    `gorm:"index" json:"userId,omitempty"`
	Title            string    `json:"title"`
	MeetingTimestamp time.Time `gorm:"index" json:"meetingEndTimestamp"`
	Transcript       string    `gorm:"type:text" json:"transcript"`
	ChatMessages     string    `gorm:"type:text" json:"chatMessages"`
	Summary          string    `gorm:"type:text" json:"summary"`
	Source           string    `json:"source"`
	MeetingSoftware  string    `json:"meetingSoftware"`
	RawPayload       string    `gorm:"type:text" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"lastUpdated"`
}
