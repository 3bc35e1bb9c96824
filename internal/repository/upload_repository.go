package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qforge/qpgen-backend/internal/model"
)

// UploadRepository handles uploaded-file batches and their questions.
type UploadRepository struct {
	pool *pgxpool.Pool
}

// NewUploadRepository creates a new UploadRepository.
func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

// CreateWithQuestions ingests one upload batch in a single transaction:
// all prior questions of the same (subject_code, uploader) pair are removed,
// the file row is created, and the new questions are bulk inserted.
// Question IDs and the file ID must be assigned by the caller.
func (r *UploadRepository) CreateWithQuestions(ctx context.Context, file *model.UploadedFile, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Bulk replacement: a re-upload of the same subject code supersedes
	// every prior row of that subject for this user.
	subjectCode := questions[0].SubjectCode
	if _, err := tx.Exec(ctx,
		`DELETE FROM questions WHERE subject_code = $1 AND uploaded_by = $2`,
		subjectCode, file.UserID,
	); err != nil {
		return fmt.Errorf("delete prior questions: %w", err)
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO uploaded_files (id, user_id, filename, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		file.ID, file.UserID, file.Filename, file.Description,
	).Scan(&file.CreatedAt); err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{
			"id", "file_id", "uploaded_by", "subject_code", "subject", "branch",
			"regulation", "year", "semester", "exam_month", "serial_no",
			"short_question", "long_question", "unit", "bt_level",
		},
		pgx.CopyFromSlice(len(questions), func(i int) ([]interface{}, error) {
			q := questions[i]
			return []interface{}{
				q.ID, file.ID, file.UserID, q.SubjectCode, q.Subject, q.Branch,
				q.Regulation, q.Year, q.Semester, q.ExamMonth, q.SerialNo,
				q.ShortQuestion, q.LongQuestion, q.Unit, q.BTLevel,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy questions: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an uploaded file owned by the given user. Ownership is
// part of the lookup so other users' files are indistinguishable from
// missing ones.
func (r *UploadRepository) GetByID(ctx context.Context, fileID uuid.UUID, userID int) (*model.UploadedFile, error) {
	f := &model.UploadedFile{}
	err := r.pool.QueryRow(ctx,
		`SELECT f.id, f.user_id, f.filename, f.description, f.created_at,
		        (SELECT COUNT(*) FROM questions q WHERE q.file_id = f.id)
		 FROM uploaded_files f
		 WHERE f.id = $1 AND f.user_id = $2`, fileID, userID,
	).Scan(&f.ID, &f.UserID, &f.Filename, &f.Description, &f.CreatedAt, &f.QuestionCount)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListByUser retrieves a user's uploads, newest first, with question counts.
func (r *UploadRepository) ListByUser(ctx context.Context, userID int) ([]model.UploadedFile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT f.id, f.user_id, f.filename, f.description, f.created_at,
		        (SELECT COUNT(*) FROM questions q WHERE q.file_id = f.id)
		 FROM uploaded_files f
		 WHERE f.user_id = $1
		 ORDER BY f.created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []model.UploadedFile
	for rows.Next() {
		var f model.UploadedFile
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &f.Description, &f.CreatedAt, &f.QuestionCount); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Delete removes an uploaded file owned by the user. Its questions go with
// it via the file_id cascade.
func (r *UploadRepository) Delete(ctx context.Context, fileID uuid.UUID, userID int) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM uploaded_files WHERE id = $1 AND user_id = $2`, fileID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
