package database

import "time"

// Recording is one catalogued recording file on disk. Rows are created
// when a session starts with recording enabled and kept in sync with the
// recordings directory by the watcher.
type Recording struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"index" json:"session_id"`
	Name      string    `json:"name"`
	Path      string    `gorm:"uniqueIndex" json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
