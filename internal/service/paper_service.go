package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/qforge/qpgen-backend/internal/repository"
)

// ErrPaperNotFound is returned when a saved paper does not exist for the user.
var ErrPaperNotFound = errors.New("saved paper not found")

// PaperService manages a user's saved papers. Saving is a pure append of the
// generated result; nothing is recomputed.
type PaperService struct {
	paperRepo *repository.PaperRepository
}

// NewPaperService creates a new PaperService.
func NewPaperService(paperRepo *repository.PaperRepository) *PaperService {
	return &PaperService{paperRepo: paperRepo}
}

// Save persists a generated paper verbatim into the user's list.
func (s *PaperService) Save(ctx context.Context, userID int, req *model.SavePaperRequest) (*model.SavedPaper, error) {
	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s (%s)", req.Metadata.Subject, req.Metadata.GeneratedAt.Format("2006-01-02"))
	}

	paper := &model.SavedPaper{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         title,
		GeneratedFrom: req.GeneratedFrom,
		Metadata:      req.Metadata,
		ShortAnswers:  req.ShortAnswers,
		LongAnswers:   req.LongAnswers,
		GeneratedAt:   req.Metadata.GeneratedAt,
	}
	if paper.ShortAnswers == nil {
		paper.ShortAnswers = []model.PaperQuestion{}
	}
	if paper.LongAnswers == nil {
		paper.LongAnswers = []model.PaperQuestion{}
	}

	if err := s.paperRepo.Create(ctx, paper); err != nil {
		return nil, fmt.Errorf("save paper: %w", err)
	}
	return paper, nil
}

// List retrieves the user's saved papers.
func (s *PaperService) List(ctx context.Context, userID int) ([]model.SavedPaper, error) {
	papers, err := s.paperRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if papers == nil {
		papers = []model.SavedPaper{}
	}
	return papers, nil
}

// Delete removes one of the user's saved papers.
func (s *PaperService) Delete(ctx context.Context, userID int, paperID uuid.UUID) error {
	if err := s.paperRepo.Delete(ctx, paperID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPaperNotFound
		}
		return err
	}
	return nil
}
