package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qforge/qpgen-backend/internal/model"
)

// PaperRepository handles saved generated papers.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// Create appends a saved paper. The paper body is stored verbatim as JSON.
func (r *PaperRepository) Create(ctx context.Context, p *model.SavedPaper) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	shortAnswers, err := json.Marshal(p.ShortAnswers)
	if err != nil {
		return fmt.Errorf("marshal short answers: %w", err)
	}
	longAnswers, err := json.Marshal(p.LongAnswers)
	if err != nil {
		return fmt.Errorf("marshal long answers: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO saved_papers (id, user_id, title, generated_from, metadata, short_answers, long_answers, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		p.ID, p.UserID, p.Title, p.GeneratedFrom, metadata, shortAnswers, longAnswers, p.GeneratedAt,
	).Scan(&p.CreatedAt)
}

// ListByUser retrieves a user's saved papers, newest first.
func (r *PaperRepository) ListByUser(ctx context.Context, userID int) ([]model.SavedPaper, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, generated_from, metadata, short_answers, long_answers, generated_at, created_at
		 FROM saved_papers
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []model.SavedPaper
	for rows.Next() {
		var (
			p            model.SavedPaper
			metadata     []byte
			shortAnswers []byte
			longAnswers  []byte
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.GeneratedFrom,
			&metadata, &shortAnswers, &longAnswers, &p.GeneratedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		if err := json.Unmarshal(shortAnswers, &p.ShortAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal short answers: %w", err)
		}
		if err := json.Unmarshal(longAnswers, &p.LongAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal long answers: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// Delete removes a saved paper owned by the user.
func (r *PaperRepository) Delete(ctx context.Context, paperID uuid.UUID, userID int) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM saved_papers WHERE id = $1 AND user_id = $2`, paperID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
