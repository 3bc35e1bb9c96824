package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerationConfig drives one kind's draw (short or long). Exactly one
// selection mode is active per draw:
//   - UseUnitWise: distribution follows UnitCounts (BT levels, when enabled,
//     are assigned round-robin across units);
//   - UseBtLevels without UseUnitWise: distribution follows BtLevelCounts;
//   - neither: a single flat draw of TotalCount.
type GenerationConfig struct {
	UseUnitWise   bool        `json:"use_unit_wise"`
	UseBtLevels   bool        `json:"use_bt_levels"`
	TotalCount    int         `json:"total_count" binding:"min=0"`
	BtLevelCounts map[int]int `json:"bt_level_counts"`
	UnitCounts    map[int]int `json:"unit_counts"`
}

// CheckBounds rejects non-positive map keys and negative counts. The count
// maps come off the wire untrusted; everything downstream assumes small
// positive keys and non-negative values.
func (c GenerationConfig) CheckBounds() error {
	if c.TotalCount < 0 {
		return fmt.Errorf("total_count must not be negative, got %d", c.TotalCount)
	}
	for level, count := range c.BtLevelCounts {
		if level < 1 {
			return fmt.Errorf("bt_level_counts key must be a positive level, got %d", level)
		}
		if count < 0 {
			return fmt.Errorf("bt_level_counts[%d] must not be negative, got %d", level, count)
		}
	}
	for unit, count := range c.UnitCounts {
		if unit < 1 {
			return fmt.Errorf("unit_counts key must be a positive unit, got %d", unit)
		}
		if count < 0 {
			return fmt.Errorf("unit_counts[%d] must not be negative, got %d", unit, count)
		}
	}
	return nil
}

// GenerateConfigSet holds the per-kind configs of one generation request.
type GenerateConfigSet struct {
	Short GenerationConfig `json:"short"`
	Long  GenerationConfig `json:"long"`
}

// GenerateRequest is the payload for generating a paper. Subject carries the
// subject code; the display name is resolved from the question bank.
type GenerateRequest struct {
	FileID     uuid.UUID         `json:"file_id" binding:"required"`
	Subject    string            `json:"subject" binding:"required,max=50"`
	Branch     string            `json:"branch" binding:"required,max=100"`
	Regulation string            `json:"regulation" binding:"required,max=50"`
	Year       string            `json:"year" binding:"required,max=20"`
	Semester   int               `json:"semester" binding:"required,min=1"`
	Unit       *int              `json:"unit" binding:"omitempty,min=1"`
	Config     GenerateConfigSet `json:"config" binding:"required"`
}

// PaperQuestion is one numbered entry of a generated paper.
type PaperQuestion struct {
	Number   int    `json:"number"`
	Question string `json:"question"`
	BTLevel  int    `json:"bt_level"`
	Unit     int    `json:"unit"`
}

// PaperMetadata describes the filters and provenance of a generated paper.
type PaperMetadata struct {
	FileID         uuid.UUID `json:"file_id"`
	Filename       string    `json:"filename"`
	SubjectCode    string    `json:"subject_code"`
	Subject        string    `json:"subject"`
	Branch         string    `json:"branch"`
	Regulation     string    `json:"regulation"`
	Year           string    `json:"year"`
	Semester       int       `json:"semester"`
	Unit           *int      `json:"unit,omitempty"`
	TotalQuestions int       `json:"total_questions"`
	GeneratedBy    string    `json:"generated_by"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// GeneratedPaper is the result of one generation request. It is ephemeral
// until the user explicitly saves it.
type GeneratedPaper struct {
	Metadata     PaperMetadata   `json:"metadata"`
	ShortAnswers []PaperQuestion `json:"short_answers"`
	LongAnswers  []PaperQuestion `json:"long_answers"`
}

// SavedPaper is a generated paper persisted verbatim into the user's list.
type SavedPaper struct {
	ID            uuid.UUID       `json:"id"`
	UserID        int             `json:"user_id"`
	Title         string          `json:"title"`
	GeneratedFrom uuid.UUID       `json:"generated_from"`
	Metadata      PaperMetadata   `json:"metadata"`
	ShortAnswers  []PaperQuestion `json:"short_answers"`
	LongAnswers   []PaperQuestion `json:"long_answers"`
	GeneratedAt   time.Time       `json:"generated_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SavePaperRequest persists a previously generated paper. The server stores
// it as-is; nothing is recomputed.
type SavePaperRequest struct {
	Title         string          `json:"title" binding:"omitempty,max=255"`
	GeneratedFrom uuid.UUID       `json:"generated_from" binding:"required"`
	Metadata      PaperMetadata   `json:"metadata" binding:"required"`
	ShortAnswers  []PaperQuestion `json:"short_answers"`
	LongAnswers   []PaperQuestion `json:"long_answers"`
}

// SubjectOption is one distinct subject found in an uploaded file, annotated
// with the years and semesters observed across its rows.
type SubjectOption struct {
	SubjectCode string   `json:"subject_code"`
	Subject     string   `json:"subject"`
	Branch      string   `json:"branch"`
	Regulation  string   `json:"regulation"`
	Years       []string `json:"year"`
	Semesters   []int    `json:"semester"`
}
