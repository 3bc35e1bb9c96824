package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

// fakeQuestionStore serves draws deterministically: matching rows come back
// in insertion order, so assertions can pin down exactly which rows a mode
// selects.
type fakeQuestionStore struct {
	questions []model.Question
}

func (s *fakeQuestionStore) matching(f model.PoolFilter) []model.Question {
	var out []model.Question
	for _, q := range s.questions {
		if q.FileID != f.FileID || q.UploadedBy != f.UserID ||
			q.SubjectCode != f.SubjectCode || q.Branch != f.Branch ||
			q.Regulation != f.Regulation || q.Year != f.Year || q.Semester != f.Semester {
			continue
		}
		if f.Unit != nil && q.Unit != *f.Unit {
			continue
		}
		if f.BTLevel != nil && q.BTLevel != *f.BTLevel {
			continue
		}
		if f.Kind == model.KindShort && q.ShortQuestion == "" {
			continue
		}
		if f.Kind == model.KindLong && q.LongQuestion == "" {
			continue
		}
		out = append(out, q)
	}
	return out
}

func (s *fakeQuestionStore) CountMatching(_ context.Context, f model.PoolFilter) (int, error) {
	return len(s.matching(f)), nil
}

func (s *fakeQuestionStore) SampleMatching(_ context.Context, f model.PoolFilter, limit int) ([]model.Question, error) {
	if limit <= 0 {
		return nil, nil
	}
	qs := s.matching(f)
	if len(qs) > limit {
		qs = qs[:limit]
	}
	return qs, nil
}

func (s *fakeQuestionStore) ListByFile(_ context.Context, fileID uuid.UUID) ([]model.Question, error) {
	var out []model.Question
	for _, q := range s.questions {
		if q.FileID == fileID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *fakeQuestionStore) FindSubjectInfo(_ context.Context, subjectCode string, userID int) (*model.Question, error) {
	for _, q := range s.questions {
		if q.SubjectCode == subjectCode && q.UploadedBy == userID {
			return &q, nil
		}
	}
	return nil, nil
}

type fakeFileStore struct {
	files map[uuid.UUID]*model.UploadedFile
}

func (s *fakeFileStore) GetByID(_ context.Context, fileID uuid.UUID, userID int) (*model.UploadedFile, error) {
	f, ok := s.files[fileID]
	if !ok || f.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return f, nil
}

type fakeUserStore struct {
	users map[int]*model.User
}

func (s *fakeUserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

// ─── Fixtures ───────────────────────────────────────────────────────────────

const testUserID = 7

var testFileID = uuid.MustParse("5a0a7e06-4cb7-4dcd-9c9d-0f2a3a6a9b01")

func baseRequest() *model.GenerateRequest {
	return &model.GenerateRequest{
		FileID:     testFileID,
		Subject:    "CS301",
		Branch:     "CSE",
		Regulation: "R21",
		Year:       "III",
		Semester:   5,
	}
}

// question builds a pool row that matches baseRequest's filters.
func question(unit, btLevel int, short, long string) model.Question {
	return model.Question{
		ID:            uuid.New(),
		FileID:        testFileID,
		UploadedBy:    testUserID,
		SubjectCode:   "CS301",
		Subject:       "Operating Systems",
		Branch:        "CSE",
		Regulation:    "R21",
		Year:          "III",
		Semester:      5,
		Unit:          unit,
		BTLevel:       btLevel,
		ShortQuestion: short,
		LongQuestion:  long,
	}
}

func newTestService(questions []model.Question) (*GenerateService, *fakeQuestionStore) {
	qs := &fakeQuestionStore{questions: questions}
	users := &fakeUserStore{users: map[int]*model.User{
		testUserID: {ID: testUserID, Email: "lecturer@example.com", IsVerified: true},
	}}
	files := &fakeFileStore{files: map[uuid.UUID]*model.UploadedFile{
		testFileID: {ID: testFileID, UserID: testUserID, Filename: "cs301.xlsx", QuestionCount: len(questions)},
	}}
	return NewGenerateService(users, files, qs, zerolog.Nop()), qs
}

// ─── Config validation ──────────────────────────────────────────────────────

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     model.GenerationConfig
		wantErr bool
	}{
		{
			name: "flat draw needs no cross-check",
			cfg:  model.GenerationConfig{TotalCount: 5},
		},
		{
			name: "bt levels matching total",
			cfg: model.GenerationConfig{
				UseBtLevels:   true,
				TotalCount:    6,
				BtLevelCounts: map[int]int{1: 2, 2: 4},
			},
		},
		{
			name: "bt levels not matching total",
			cfg: model.GenerationConfig{
				UseBtLevels:   true,
				TotalCount:    5,
				BtLevelCounts: map[int]int{1: 2, 2: 4},
			},
			wantErr: true,
		},
		{
			name: "unit-wise with bt levels matching",
			cfg: model.GenerationConfig{
				UseUnitWise:   true,
				UseBtLevels:   true,
				UnitCounts:    map[int]int{1: 3, 2: 3},
				BtLevelCounts: map[int]int{1: 6},
			},
		},
		{
			name: "unit-wise with bt levels mismatch",
			cfg: model.GenerationConfig{
				UseUnitWise:   true,
				UseBtLevels:   true,
				UnitCounts:    map[int]int{1: 3, 2: 3},
				BtLevelCounts: map[int]int{1: 5},
			},
			wantErr: true,
		},
		{
			name: "unit-wise alone must match total",
			cfg: model.GenerationConfig{
				UseUnitWise: true,
				TotalCount:  5,
				UnitCounts:  map[int]int{1: 2, 2: 2},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg, model.KindShort)
			if tt.wantErr {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfigErrorNamesBothTotals(t *testing.T) {
	err := ValidateConfig(model.GenerationConfig{
		UseBtLevels:   true,
		TotalCount:    5,
		BtLevelCounts: map[int]int{1: 2, 2: 4},
	}, model.KindShort)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "(5)")
	assert.Contains(t, err.Error(), "(6)")
	assert.Contains(t, err.Error(), "short")
}

func TestGenerateRejectsNegativeCounts(t *testing.T) {
	svc, _ := newTestService([]model.Question{question(1, 1, "q", "")})

	req := baseRequest()
	req.Config.Short = model.GenerationConfig{
		UseBtLevels:   true,
		BtLevelCounts: map[int]int{2: -1},
	}

	_, err := svc.Generate(context.Background(), testUserID, req)
	var boundsErr *BoundsError
	require.ErrorAs(t, err, &boundsErr)
	assert.Equal(t, model.KindShort, boundsErr.Kind)
}

// ─── Sampling modes ─────────────────────────────────────────────────────────

func TestGenerateFlatDraw(t *testing.T) {
	pool := []model.Question{
		question(1, 1, "s1", "l1"),
		question(1, 2, "s2", "l2"),
		question(2, 3, "s3", ""),
		question(2, 1, "", "l4"),
	}
	svc, _ := newTestService(pool)

	req := baseRequest()
	req.Config.Short.TotalCount = 2
	req.Config.Long.TotalCount = 10

	paper, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)

	// Short is truncated to the requested 2; long under-fills at 3 because
	// only three rows carry long text.
	assert.Len(t, paper.ShortAnswers, 2)
	assert.Len(t, paper.LongAnswers, 3)
	assert.Equal(t, 5, paper.Metadata.TotalQuestions)
}

func TestGenerateUnitWiseAssignsLevelsInOrder(t *testing.T) {
	// Three units, two configured levels. Units take the first unused level
	// in ascending order; once all are used the first level is reused.
	pool := []model.Question{
		question(1, 2, "u1-l2", ""),
		question(1, 4, "u1-l4", ""),
		question(2, 2, "u2-l2", ""),
		question(2, 4, "u2-l4", ""),
		question(3, 2, "u3-l2", ""),
		question(3, 4, "u3-l4", ""),
	}
	svc, _ := newTestService(pool)

	req := baseRequest()
	req.Config.Short = model.GenerationConfig{
		UseUnitWise:   true,
		UseBtLevels:   true,
		UnitCounts:    map[int]int{1: 1, 2: 1, 3: 1},
		BtLevelCounts: map[int]int{2: 1, 4: 2},
	}

	paper, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)
	require.Len(t, paper.ShortAnswers, 3)

	assert.Equal(t, "u1-l2", paper.ShortAnswers[0].Question)
	assert.Equal(t, "u2-l4", paper.ShortAnswers[1].Question)
	assert.Equal(t, "u3-l2", paper.ShortAnswers[2].Question)
}

func TestGenerateUnitWiseFallsBackWhenAssignedLevelEmpty(t *testing.T) {
	// Unit 2 has no level-4 rows, so after its assigned draw comes back
	// empty it retries the remaining configured levels.
	pool := []model.Question{
		question(1, 2, "u1-l2", ""),
		question(2, 2, "u2-l2", ""),
	}
	svc, _ := newTestService(pool)

	req := baseRequest()
	req.Config.Short = model.GenerationConfig{
		UseUnitWise:   true,
		UseBtLevels:   true,
		UnitCounts:    map[int]int{1: 1, 2: 1},
		BtLevelCounts: map[int]int{2: 1, 4: 1},
	}

	paper, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)
	require.Len(t, paper.ShortAnswers, 2)
	assert.Equal(t, "u1-l2", paper.ShortAnswers[0].Question)
	assert.Equal(t, "u2-l2", paper.ShortAnswers[1].Question)
}

func TestGenerateUnitWiseUnderFillsSilently(t *testing.T) {
	// Unit 3 exists in the config but not in the pool; it contributes zero
	// rows and the rest of the paper still generates.
	pool := []model.Question{
		question(1, 1, "u1", ""),
		question(2, 1, "u2", ""),
	}
	svc, _ := newTestService(pool)

	req := baseRequest()
	req.Config.Short = model.GenerationConfig{
		UseUnitWise: true,
		TotalCount:  3,
		UnitCounts:  map[int]int{1: 1, 2: 1, 3: 1},
	}

	paper, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)
	assert.Len(t, paper.ShortAnswers, 2)
}

func TestGenerateUnitWiseUsesLevelCountsEvenWhenFlagOff(t *testing.T) {
	// The unit-wise draw takes its level set from the positive keys of
	// bt_level_counts whether or not use_bt_levels is set. With level 2
	// configured, level-1 rows are never drawn.
	pool := []model.Question{
		question(1, 1, "u1-l1", ""),
		question(1, 2, "u1-l2", ""),
		question(2, 1, "u2-l1", ""),
		question(2, 2, "u2-l2", ""),
	}
	svc, _ := newTestService(pool)

	req := baseRequest()
	req.Config.Short = model.GenerationConfig{
		UseUnitWise:   true,
		UseBtLevels:   false,
		TotalCount:    2,
		UnitCounts:    map[int]int{1: 1, 2: 1},
		BtLevelCounts: map[int]int{2: 2},
	}

	paper, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)
	require.Len(t, paper.ShortAnswers, 2)
	assert.Equal(t, "u1-l2", paper.ShortAnswers[0].Question)
	assert.Equal(t, "u2-l2", paper.ShortAnswers[1].Question)
}

func TestGeneratePerLevelDrawsAscending(t *testing.T) {
	pool := []model.Question{
		question(1, 3, "l3-a", ""),
		question(1, 1, "l1-a", ""),
		question(2, 3, "l3-b", ""),
		question(2, 1, "l1-b", ""),
	}
	svc, _ := newTestService(pool)

	req := baseRequest()
	req.Config.Short = model.GenerationConfig{
		UseBtLevels:   true,
		TotalCount:    3,
		BtLevelCounts: map[int]int{1: 2, 3: 1},
	}

	paper, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)
	require.Len(t, paper.ShortAnswers, 3)

	// Level 1 rows come first, then level 3, regardless of pool order.
	assert.Equal(t, 1, paper.ShortAnswers[0].BTLevel)
	assert.Equal(t, 1, paper.ShortAnswers[1].BTLevel)
	assert.Equal(t, 3, paper.ShortAnswers[2].BTLevel)
}

func TestGeneratePerLevelHasNoFallback(t *testing.T) {
	// Level 5 is requested but absent from the pool; per-level mode
	// under-fills instead of borrowing from other levels.
	pool := []model.Question{
		question(1, 1, "l1", ""),
	}
	svc, _ := newTestService(pool)

	req := baseRequest()
	req.Config.Short = model.GenerationConfig{
		UseBtLevels:   true,
		TotalCount:    2,
		BtLevelCounts: map[int]int{1: 1, 5: 1},
	}

	paper, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)
	assert.Len(t, paper.ShortAnswers, 1)
}

// ─── Numbering and metadata ─────────────────────────────────────────────────

func TestGenerateNumbersEachKindFromOne(t *testing.T) {
	pool := []model.Question{
		question(1, 1, "s1", "l1"),
		question(1, 2, "s2", "l2"),
	}
	svc, _ := newTestService(pool)

	req := baseRequest()
	req.Config.Short.TotalCount = 2
	req.Config.Long.TotalCount = 2

	paper, err := svc.Generate(context.Background(), testUserID, req)
	require.NoError(t, err)

	for i, q := range paper.ShortAnswers {
		assert.Equal(t, i+1, q.Number)
	}
	for i, q := range paper.LongAnswers {
		assert.Equal(t, i+1, q.Number)
	}

	assert.Equal(t, "Operating Systems", paper.Metadata.Subject)
	assert.Equal(t, "CS301", paper.Metadata.SubjectCode)
	assert.Equal(t, "lecturer@example.com", paper.Metadata.GeneratedBy)
	assert.Equal(t, "cs301.xlsx", paper.Metadata.Filename)
	assert.False(t, paper.Metadata.GeneratedAt.IsZero())
}

// ─── Error paths ────────────────────────────────────────────────────────────

func TestGenerateErrors(t *testing.T) {
	pool := []model.Question{question(1, 1, "s1", "")}

	t.Run("unknown user", func(t *testing.T) {
		svc, _ := newTestService(pool)
		_, err := svc.Generate(context.Background(), 999, baseRequest())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unverified user", func(t *testing.T) {
		svc, _ := newTestService(pool)
		users := &fakeUserStore{users: map[int]*model.User{
			testUserID: {ID: testUserID, IsVerified: false},
		}}
		svc.users = users
		_, err := svc.Generate(context.Background(), testUserID, baseRequest())
		assert.ErrorIs(t, err, ErrUserNotVerified)
	})

	t.Run("file not owned", func(t *testing.T) {
		svc, _ := newTestService(pool)
		req := baseRequest()
		req.FileID = uuid.New()
		_, err := svc.Generate(context.Background(), testUserID, req)
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("file without questions", func(t *testing.T) {
		svc, _ := newTestService(nil)
		_, err := svc.Generate(context.Background(), testUserID, baseRequest())
		assert.ErrorIs(t, err, ErrFileEmpty)
	})

	t.Run("filters match nothing", func(t *testing.T) {
		svc, _ := newTestService(pool)
		req := baseRequest()
		req.Branch = "ECE"
		req.Config.Short.TotalCount = 1
		_, err := svc.Generate(context.Background(), testUserID, req)
		assert.ErrorIs(t, err, ErrNoQuestionsMatched)
	})

	t.Run("constraints select nothing", func(t *testing.T) {
		svc, _ := newTestService(pool)
		req := baseRequest()
		// Pool matches the base filter but zero questions are requested.
		_, err := svc.Generate(context.Background(), testUserID, req)
		assert.ErrorIs(t, err, ErrEmptyGeneration)
	})
}

// ─── Subject catalog ────────────────────────────────────────────────────────

func TestSubjectsByFileGroupsInFirstSeenOrder(t *testing.T) {
	other := question(1, 1, "q", "")
	other.SubjectCode = "CS302"
	other.Subject = "Databases"
	other.Year = "IV"
	other.Semester = 7

	pool := []model.Question{
		question(1, 1, "a", ""),
		other,
		question(2, 2, "b", ""), // Same subject as the first row
	}
	svc, _ := newTestService(pool)

	subjects, err := svc.SubjectsByFile(context.Background(), testUserID, testFileID)
	require.NoError(t, err)
	require.Len(t, subjects, 2)

	assert.Equal(t, "CS301", subjects[0].SubjectCode)
	assert.Equal(t, []string{"III"}, subjects[0].Years)
	assert.Equal(t, []int{5}, subjects[0].Semesters)

	assert.Equal(t, "CS302", subjects[1].SubjectCode)
	assert.Equal(t, "Databases", subjects[1].Subject)
	assert.Equal(t, []string{"IV"}, subjects[1].Years)
	assert.Equal(t, []int{7}, subjects[1].Semesters)
}

func TestSubjectsByFileUnknownFile(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.SubjectsByFile(context.Background(), testUserID, uuid.New())
	assert.ErrorIs(t, err, ErrFileNotFound)
}
