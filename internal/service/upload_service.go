package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/qforge/qpgen-backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ErrSheetEmpty is returned for a workbook with no data rows.
var ErrSheetEmpty = errors.New("excel sheet has no data rows")

// SheetError reports required headers missing from the first sheet.
type SheetError struct {
	MissingHeaders []string
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("excel file is missing required headers: %s", strings.Join(e.MissingHeaders, ", "))
}

// requiredHeaders are the spreadsheet columns an upload must carry. The two
// question-text columns are optional per row but at least the classification
// columns must exist.
var requiredHeaders = []string{
	"Subject Code", "Subject", "Branch", "Regulation",
	"Year", "Sem", "Month", "Unit", "B.T Level",
}

// UploadService ingests question-bank spreadsheets.
type UploadService struct {
	users      UserStore
	uploadRepo *repository.UploadRepository
	log        zerolog.Logger
}

// NewUploadService creates a new UploadService.
func NewUploadService(users UserStore, uploadRepo *repository.UploadRepository, log zerolog.Logger) *UploadService {
	return &UploadService{
		users:      users,
		uploadRepo: uploadRepo,
		log:        log.With().Str("component", "upload_service").Logger(),
	}
}

// ParseWorkbook reads the first sheet of an .xlsx workbook into question
// rows. Header names follow the published bank template; missing numeric
// cells default to zero, matching the tolerant ingestion the template
// implies.
func ParseWorkbook(r io.Reader) ([]model.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrSheetEmpty
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrSheetEmpty
	}

	colIndex := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredHeaders {
		if _, ok := colIndex[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SheetError{MissingHeaders: missing}
	}

	cell := func(row []string, name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var questions []model.Question
	for _, row := range rows[1:] {
		if rowEmpty(row) {
			continue
		}
		questions = append(questions, model.Question{
			SubjectCode:   cell(row, "Subject Code"),
			Subject:       cell(row, "Subject"),
			Branch:        cell(row, "Branch"),
			Regulation:    cell(row, "Regulation"),
			Year:          cell(row, "Year"),
			Semester:      atoiOrZero(cell(row, "Sem")),
			ExamMonth:     cell(row, "Month"),
			SerialNo:      atoiOrZero(cell(row, "S.No.")),
			ShortQuestion: cell(row, "Short Questions"),
			LongQuestion:  cell(row, "Long Questions"),
			Unit:          atoiOrZero(cell(row, "Unit")),
			BTLevel:       atoiOrZero(cell(row, "B.T Level")),
		})
	}
	if len(questions) == 0 {
		return nil, ErrSheetEmpty
	}

	return questions, nil
}

// Ingest parses an uploaded workbook and stores its questions as a new file
// batch, replacing any prior questions of the same subject code for this
// user.
func (s *UploadService) Ingest(ctx context.Context, userID int, filename, description string, r io.Reader) (*model.UploadedFile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsVerified {
		return nil, ErrUserNotVerified
	}

	questions, err := ParseWorkbook(r)
	if err != nil {
		return nil, err
	}

	for i := range questions {
		questions[i].ID = uuid.New()
		questions[i].UploadedBy = userID
	}

	file := &model.UploadedFile{
		ID:          uuid.New(),
		UserID:      userID,
		Filename:    filename,
		Description: description,
	}
	if err := s.uploadRepo.CreateWithQuestions(ctx, file, questions); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	file.QuestionCount = len(questions)

	s.log.Info().
		Str("file_id", file.ID.String()).
		Str("subject_code", questions[0].SubjectCode).
		Int("questions", len(questions)).
		Msg("Question bank uploaded")

	return file, nil
}

// ListFiles retrieves a user's uploads.
func (s *UploadService) ListFiles(ctx context.Context, userID int) ([]model.UploadedFile, error) {
	files, err := s.uploadRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []model.UploadedFile{}
	}
	return files, nil
}

// DeleteFile removes one of the user's uploads and its questions.
func (s *UploadService) DeleteFile(ctx context.Context, userID int, fileID uuid.UUID) error {
	if err := s.uploadRepo.Delete(ctx, fileID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrFileNotFound
		}
		return err
	}
	return nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
