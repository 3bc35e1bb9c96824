package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qforge/qpgen-backend/internal/model"
)

// QuestionRepository handles question-bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, file_id, uploaded_by, subject_code, subject, branch, regulation,
	year, semester, exam_month, serial_no, short_question, long_question, unit, bt_level, created_at`

// buildPoolWhere renders the conjunctive WHERE clause for a PoolFilter.
func buildPoolWhere(f model.PoolFilter) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	add := func(expr string, val interface{}) {
		args = append(args, val)
		clauses = append(clauses, expr+" $"+strconv.Itoa(len(args)))
	}

	add("file_id =", f.FileID)
	add("uploaded_by =", f.UserID)
	add("subject_code =", f.SubjectCode)
	add("branch =", f.Branch)
	add("regulation =", f.Regulation)
	add("year =", f.Year)
	add("semester =", f.Semester)
	if f.Unit != nil {
		add("unit =", *f.Unit)
	}
	if f.BTLevel != nil {
		add("bt_level =", *f.BTLevel)
	}
	if f.Kind == model.KindShort {
		clauses = append(clauses, "short_question <> ''")
	} else if f.Kind == model.KindLong {
		clauses = append(clauses, "long_question <> ''")
	}

	return strings.Join(clauses, " AND "), args
}

// CountMatching returns how many questions satisfy the filter.
func (r *QuestionRepository) CountMatching(ctx context.Context, f model.PoolFilter) (int, error) {
	where, args := buildPoolWhere(f)
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE `+where, args...,
	).Scan(&total)
	return total, err
}

// SampleMatching returns up to limit questions satisfying the filter, in
// random order. The draw is without replacement within one call; repeated
// calls with identical filters may return different rows.
func (r *QuestionRepository) SampleMatching(ctx context.Context, f model.PoolFilter, limit int) ([]model.Question, error) {
	if limit <= 0 {
		return nil, nil
	}
	where, args := buildPoolWhere(f)
	args = append(args, limit)
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE `+where+`
		 ORDER BY random()
		 LIMIT $`+strconv.Itoa(len(args)), args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// ListByFile retrieves all questions of one uploaded file in sheet order.
func (r *QuestionRepository) ListByFile(ctx context.Context, fileID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE file_id = $1
		 ORDER BY serial_no, created_at`, fileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// FindSubjectInfo returns any question of the user for the subject code,
// used to resolve the subject display name for paper metadata.
func (r *QuestionRepository) FindSubjectInfo(ctx context.Context, subjectCode string, userID int) (*model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE subject_code = $1 AND uploaded_by = $2
		 LIMIT 1`, subjectCode, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}
	return &questions[0], nil
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(
			&q.ID, &q.FileID, &q.UploadedBy, &q.SubjectCode, &q.Subject, &q.Branch,
			&q.Regulation, &q.Year, &q.Semester, &q.ExamMonth, &q.SerialNo,
			&q.ShortQuestion, &q.LongQuestion, &q.Unit, &q.BTLevel, &q.CreatedAt,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
