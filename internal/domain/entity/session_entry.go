package entity

import "time"

// SessionEntry is one persisted session key of a profile
type SessionEntry struct {
	Profile   string    `gorm:"primaryKey;size:100"`
	Key       string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for SessionEntry
func (SessionEntry) TableName() string {
	return "session_entries"
}
