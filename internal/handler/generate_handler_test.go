package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/qforge/qpgen-backend/internal/middleware"
	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/qforge/qpgen-backend/internal/response"
	"github.com/qforge/qpgen-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUserStore serves a single fixed user.
type stubUserStore struct {
	user *model.User
}

func (s *stubUserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, pgx.ErrNoRows
	}
	return s.user, nil
}

type stubFileStore struct{}

func (stubFileStore) GetByID(_ context.Context, _ uuid.UUID, _ int) (*model.UploadedFile, error) {
	return nil, pgx.ErrNoRows
}

type stubQuestionStore struct{}

func (stubQuestionStore) CountMatching(_ context.Context, _ model.PoolFilter) (int, error) {
	return 0, nil
}

func (stubQuestionStore) SampleMatching(_ context.Context, _ model.PoolFilter, _ int) ([]model.Question, error) {
	return nil, nil
}

func (stubQuestionStore) ListByFile(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	return nil, nil
}

func (stubQuestionStore) FindSubjectInfo(_ context.Context, _ string, _ int) (*model.Question, error) {
	return nil, nil
}

// asUser injects claims the way the JWT middleware would after validation.
func asUser(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: userID})
		c.Next()
	}
}

func generateRouter(user *model.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewGenerateService(&stubUserStore{user: user}, stubFileStore{}, stubQuestionStore{}, zerolog.Nop())
	h := NewGenerateHandler(svc)

	r := gin.New()
	r.POST("/generate", asUser(7), h.Generate)
	return r
}

func postGenerate(t *testing.T, r *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(model.GenerateRequest{
		FileID:     uuid.New(),
		Subject:    "CS301",
		Branch:     "CSE",
		Regulation: "R21",
		Year:       "III",
		Semester:   5,
		Config: model.GenerateConfigSet{
			Short: model.GenerationConfig{TotalCount: 2},
			Long:  model.GenerationConfig{TotalCount: 1},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()

	var envelope struct {
		Error *response.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	return *envelope.Error
}

func TestGenerateUnverifiedCallerGetsUnauthorized(t *testing.T) {
	r := generateRouter(&model.User{ID: 7, Email: "u@example.com", IsVerified: false})

	w := postGenerate(t, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrNotVerified, decodeErrorBody(t, w).Code)
}

func TestGenerateUnknownCallerGetsUnauthorized(t *testing.T) {
	r := generateRouter(nil)

	w := postGenerate(t, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenInvalid, decodeErrorBody(t, w).Code)
}
