package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserNotVerified    = errors.New("account is not verified")
	ErrFileNotFound       = errors.New("file not found")
	ErrFileEmpty          = errors.New("file has no questions")
	ErrNoQuestionsMatched = errors.New("no questions match the requested filters")
	ErrEmptyGeneration    = errors.New("no questions selected for either kind")
	ErrSubjectNotFound    = errors.New("subject not found in question bank")
)

// ConfigError reports an arithmetic mismatch between two requested totals of
// a generation config. Both sums are named so the client can show them.
type ConfigError struct {
	Kind       model.QuestionKind
	LeftLabel  string
	Left       int
	RightLabel string
	Right      int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s (%d) must match %s (%d) for %s questions",
		e.LeftLabel, e.Left, e.RightLabel, e.Right, e.Kind)
}

// BoundsError reports an out-of-range key or count in a generation config.
type BoundsError struct {
	Kind model.QuestionKind
	Err  error
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s config: %v", e.Kind, e.Err)
}

func (e *BoundsError) Unwrap() error { return e.Err }

// QuestionStore is the question pool the sampler draws from. SampleMatching
// must return a uniform random subset without replacement; the pgx
// implementation delegates to ORDER BY random(), tests substitute a
// deterministic fake.
type QuestionStore interface {
	CountMatching(ctx context.Context, f model.PoolFilter) (int, error)
	SampleMatching(ctx context.Context, f model.PoolFilter, limit int) ([]model.Question, error)
	ListByFile(ctx context.Context, fileID uuid.UUID) ([]model.Question, error)
	FindSubjectInfo(ctx context.Context, subjectCode string, userID int) (*model.Question, error)
}

// FileStore resolves uploaded-file batches, scoped to their owner.
type FileStore interface {
	GetByID(ctx context.Context, fileID uuid.UUID, userID int) (*model.UploadedFile, error)
}

// UserStore resolves requesting users.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
}

// GenerateService assembles question papers from a user's uploaded bank.
type GenerateService struct {
	users     UserStore
	files     FileStore
	questions QuestionStore
	log       zerolog.Logger
}

// NewGenerateService creates a new GenerateService.
func NewGenerateService(users UserStore, files FileStore, questions QuestionStore, log zerolog.Logger) *GenerateService {
	return &GenerateService{
		users:     users,
		files:     files,
		questions: questions,
		log:       log.With().Str("component", "generate_service").Logger(),
	}
}

// ValidateConfig checks that the requested totals of one kind's config are
// internally consistent. It says nothing about whether the pool can satisfy
// them.
func ValidateConfig(cfg model.GenerationConfig, kind model.QuestionKind) error {
	if !cfg.UseUnitWise && cfg.UseBtLevels {
		btSum := sumCounts(cfg.BtLevelCounts)
		if btSum != cfg.TotalCount {
			return &ConfigError{
				Kind:      kind,
				LeftLabel: "Total count", Left: cfg.TotalCount,
				RightLabel: "sum of BT level counts", Right: btSum,
			}
		}
	}

	if cfg.UseUnitWise {
		unitSum := sumCounts(cfg.UnitCounts)
		if cfg.UseBtLevels {
			btSum := sumCounts(cfg.BtLevelCounts)
			if unitSum != btSum {
				return &ConfigError{
					Kind:      kind,
					LeftLabel: "Total unit-wise count", Left: unitSum,
					RightLabel: "total BT level count", Right: btSum,
				}
			}
		} else if unitSum != cfg.TotalCount {
			return &ConfigError{
				Kind:      kind,
				LeftLabel: "Total unit-wise count", Left: unitSum,
				RightLabel: "total count", Right: cfg.TotalCount,
			}
		}
	}

	return nil
}

// Generate runs one paper-generation request end to end: authorization,
// config validation, pool pre-check, per-kind sampling, and assembly. The
// returned paper is ephemeral; saving it is a separate, explicit call.
func (s *GenerateService) Generate(ctx context.Context, userID int, req *model.GenerateRequest) (*model.GeneratedPaper, error) {
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

	file, err := s.files.GetByID(ctx, req.FileID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	if file.QuestionCount == 0 {
		return nil, ErrFileEmpty
	}

	for _, kc := range []struct {
		kind model.QuestionKind
		cfg  model.GenerationConfig
	}{
		{model.KindShort, req.Config.Short},
		{model.KindLong, req.Config.Long},
	} {
		if err := kc.cfg.CheckBounds(); err != nil {
			return nil, &BoundsError{Kind: kc.kind, Err: err}
		}
		if err := ValidateConfig(kc.cfg, kc.kind); err != nil {
			return nil, err
		}
	}

	base := model.PoolFilter{
		FileID:      req.FileID,
		UserID:      userID,
		SubjectCode: req.Subject,
		Branch:      req.Branch,
		Regulation:  req.Regulation,
		Year:        req.Year,
		Semester:    req.Semester,
		Unit:        req.Unit,
	}

	// Pre-check before any sampling so an empty base pool is reported as
	// a filter problem, not a constraint problem.
	total, err := s.questions.CountMatching(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("count pool: %w", err)
	}
	if total == 0 {
		s.log.Debug().
			Str("file_id", req.FileID.String()).
			Str("subject_code", req.Subject).
			Int("file_questions", file.QuestionCount).
			Msg("Base filter matched no questions")
		return nil, ErrNoQuestionsMatched
	}

	shortQs, err := s.sampleWithConstraints(ctx, base, req.Config.Short, model.KindShort)
	if err != nil {
		return nil, fmt.Errorf("sample short: %w", err)
	}
	longQs, err := s.sampleWithConstraints(ctx, base, req.Config.Long, model.KindLong)
	if err != nil {
		return nil, fmt.Errorf("sample long: %w", err)
	}

	// One empty kind is fine; both empty means the constraints carved the
	// pool down to nothing.
	if len(shortQs) == 0 && len(longQs) == 0 {
		return nil, ErrEmptyGeneration
	}

	subjectInfo, err := s.questions.FindSubjectInfo(ctx, req.Subject, userID)
	if err != nil {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	if subjectInfo == nil {
		return nil, ErrSubjectNotFound
	}

	paper := &model.GeneratedPaper{
		Metadata: model.PaperMetadata{
			FileID:         file.ID,
			Filename:       file.Filename,
			SubjectCode:    req.Subject,
			Subject:        subjectInfo.Subject,
			Branch:         req.Branch,
			Regulation:     req.Regulation,
			Year:           req.Year,
			Semester:       req.Semester,
			Unit:           req.Unit,
			TotalQuestions: len(shortQs) + len(longQs),
			GeneratedBy:    user.Email,
			GeneratedAt:    time.Now().UTC(),
		},
		ShortAnswers: numberQuestions(shortQs, model.KindShort),
		LongAnswers:  numberQuestions(longQs, model.KindLong),
	}

	s.log.Info().
		Str("file_id", file.ID.String()).
		Str("subject_code", req.Subject).
		Int("short", len(shortQs)).
		Int("long", len(longQs)).
		Msg("Paper generated")

	return paper, nil
}

// sampleWithConstraints draws one kind's questions in the mode the config
// selects: unit-wise, per BT level, or a flat draw of the total.
func (s *GenerateService) sampleWithConstraints(ctx context.Context, base model.PoolFilter, cfg model.GenerationConfig, kind model.QuestionKind) ([]model.Question, error) {
	base.Kind = kind
	levels := sortedPositiveKeys(cfg.BtLevelCounts)

	if cfg.UseUnitWise {
		return s.sampleUnitWise(ctx, base, cfg, levels)
	}
	if cfg.UseBtLevels {
		return s.samplePerLevel(ctx, base, cfg, levels)
	}
	if cfg.TotalCount <= 0 {
		return nil, nil
	}
	qs, err := s.questions.SampleMatching(ctx, base, cfg.TotalCount)
	if err != nil {
		return nil, err
	}
	return truncate(qs, cfg.TotalCount), nil
}

// sampleUnitWise walks the requested units in ascending order and assigns
// each the first BT level not yet taken; when every level is taken the first
// level in sorted order is reused. A unit whose assigned level yields no
// rows retries the other configured levels in order and takes the first
// non-empty result; a unit that still finds nothing contributes zero
// questions. Greedy and non-backtracking: a sparse pool under-fills rather
// than failing.
func (s *GenerateService) sampleUnitWise(ctx context.Context, base model.PoolFilter, cfg model.GenerationConfig, levels []int) ([]model.Question, error) {
	units := sortedPositiveKeys(cfg.UnitCounts)
	used := make(map[int]bool, len(levels))
	var picked []model.Question

	for _, unit := range units {
		unitCount := cfg.UnitCounts[unit]

		f := base
		u := unit
		f.Unit = &u

		assigned := 0
		for _, level := range levels {
			if !used[level] {
				assigned = level
				used[level] = true
				break
			}
		}
		if assigned == 0 && len(levels) > 0 {
			assigned = levels[0]
		}
		if assigned != 0 {
			level := assigned
			f.BTLevel = &level
		}

		qs, err := s.questions.SampleMatching(ctx, f, unitCount)
		if err != nil {
			return nil, err
		}
		if len(qs) > 0 {
			picked = append(picked, truncate(qs, unitCount)...)
			continue
		}

		s.log.Debug().
			Int("unit", unit).
			Int("bt_level", assigned).
			Msg("No questions for assigned level, trying fallback")

		for _, level := range levels {
			if level == assigned {
				continue
			}
			fb := f
			l := level
			fb.BTLevel = &l
			qs, err := s.questions.SampleMatching(ctx, fb, unitCount)
			if err != nil {
				return nil, err
			}
			if len(qs) > 0 {
				picked = append(picked, truncate(qs, unitCount)...)
				break
			}
		}
	}

	return picked, nil
}

// samplePerLevel draws each positively-requested BT level independently, in
// ascending level order. Unmet counts yield fewer rows; there is no
// cross-level fallback in this mode.
func (s *GenerateService) samplePerLevel(ctx context.Context, base model.PoolFilter, cfg model.GenerationConfig, levels []int) ([]model.Question, error) {
	var picked []model.Question
	for _, level := range levels {
		count := cfg.BtLevelCounts[level]

		f := base
		l := level
		f.BTLevel = &l

		qs, err := s.questions.SampleMatching(ctx, f, count)
		if err != nil {
			return nil, err
		}
		picked = append(picked, truncate(qs, count)...)
	}
	return picked, nil
}

// SubjectsByFile returns the distinct subjects found in an uploaded file,
// each annotated with the years and semesters observed across its rows, in
// first-seen order.
func (s *GenerateService) SubjectsByFile(ctx context.Context, userID int, fileID uuid.UUID) ([]model.SubjectOption, error) {
	file, err := s.files.GetByID(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	questions, err := s.questions.ListByFile(ctx, file.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	var order []string
	byCode := make(map[string]*model.SubjectOption)
	seenYear := make(map[string]map[string]bool)
	seenSem := make(map[string]map[int]bool)

	for _, q := range questions {
		opt, ok := byCode[q.SubjectCode]
		if !ok {
			opt = &model.SubjectOption{
				SubjectCode: q.SubjectCode,
				Subject:     q.Subject,
				Branch:      q.Branch,
				Regulation:  q.Regulation,
			}
			byCode[q.SubjectCode] = opt
			order = append(order, q.SubjectCode)
			seenYear[q.SubjectCode] = make(map[string]bool)
			seenSem[q.SubjectCode] = make(map[int]bool)
		}
		if !seenYear[q.SubjectCode][q.Year] {
			seenYear[q.SubjectCode][q.Year] = true
			opt.Years = append(opt.Years, q.Year)
		}
		if !seenSem[q.SubjectCode][q.Semester] {
			seenSem[q.SubjectCode][q.Semester] = true
			opt.Semesters = append(opt.Semesters, q.Semester)
		}
	}

	subjects := make([]model.SubjectOption, 0, len(order))
	for _, code := range order {
		subjects = append(subjects, *byCode[code])
	}
	return subjects, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────────────────────

func numberQuestions(qs []model.Question, kind model.QuestionKind) []model.PaperQuestion {
	entries := make([]model.PaperQuestion, len(qs))
	for i, q := range qs {
		entries[i] = model.PaperQuestion{
			Number:   i + 1,
			Question: q.Text(kind),
			BTLevel:  q.BTLevel,
			Unit:     q.Unit,
		}
	}
	return entries
}

func sumCounts(counts map[int]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// sortedPositiveKeys returns the keys with strictly positive counts in
// ascending order. Map iteration order is random; every mode sorts so draws
// are deterministic with a deterministic sampler.
func sortedPositiveKeys(counts map[int]int) []int {
	keys := make([]int, 0, len(counts))
	for k, v := range counts {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	return keys
}

func truncate(qs []model.Question, n int) []model.Question {
	if len(qs) > n {
		return qs[:n]
	}
	return qs
}
