package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is one row of an uploaded question bank. A row may carry a short
// question, a long question, or both; it is eligible for a draw of a given
// kind only when the matching text column is non-empty.
type Question struct {
	ID            uuid.UUID `json:"id"`
	FileID        uuid.UUID `json:"file_id"`
	UploadedBy    int       `json:"uploaded_by"`
	SubjectCode   string    `json:"subject_code"`
	Subject       string    `json:"subject"`
	Branch        string    `json:"branch"`
	Regulation    string    `json:"regulation"`
	Year          string    `json:"year"`
	Semester      int       `json:"semester"`
	ExamMonth     string    `json:"exam_month"`
	SerialNo      int       `json:"serial_no"`
	ShortQuestion string    `json:"short_question,omitempty"`
	LongQuestion  string    `json:"long_question,omitempty"`
	Unit          int       `json:"unit"`
	BTLevel       int       `json:"bt_level"`
	CreatedAt     time.Time `json:"created_at"`
}

// QuestionKind selects which question-text column a draw targets.
type QuestionKind string

const (
	KindShort QuestionKind = "short"
	KindLong  QuestionKind = "long"
)

// Text returns the question text for the given kind.
func (q Question) Text(kind QuestionKind) string {
	if kind == KindShort {
		return q.ShortQuestion
	}
	return q.LongQuestion
}

// PoolFilter is the conjunctive equality filter applied to every pool query.
// Unit and BTLevel are optional narrowings; Kind additionally requires the
// matching question-text column to be non-empty.
type PoolFilter struct {
	FileID      uuid.UUID
	UserID      int
	SubjectCode string
	Branch      string
	Regulation  string
	Year        string
	Semester    int
	Unit        *int
	BTLevel     *int
	Kind        QuestionKind
}
