package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionEntry is the database row behind the SQL store. Payload holds the
// whole Submission as JSON.
type SubmissionEntry struct {
	ID          string    `gorm:"primaryKey;size:64"`
	Form        string    `gorm:"index;size:32"`
	SubmittedAt time.Time `gorm:"index"`
	Payload     datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (SubmissionEntry) TableName() string {
	return "submission_entries"
}
