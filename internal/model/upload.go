package model

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile is one ingested spreadsheet batch. Its questions reference it
// by file_id and are deleted with it.
type UploadedFile struct {
	ID            uuid.UUID `json:"id"`
	UserID        int       `json:"user_id"`
	Filename      string    `json:"filename"`
	Description   string    `json:"description,omitempty"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}
