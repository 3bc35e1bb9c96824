package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/qforge/qpgen-backend/internal/response"
	"github.com/qforge/qpgen-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRouter(user *model.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewUploadService(&stubUserStore{user: user}, nil, zerolog.Nop())
	h := NewUploadHandler(svc, 1<<20)

	r := gin.New()
	r.POST("/uploads", asUser(7), h.Upload)
	return r
}

func postUpload(t *testing.T, r *gin.Engine, filename string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("workbook bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUploadUnverifiedCallerGetsUnauthorized(t *testing.T) {
	r := uploadRouter(&model.User{ID: 7, IsVerified: false})

	// The verification check runs before the workbook is parsed, so the
	// body content never matters here.
	w := postUpload(t, r, "bank.xlsx")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrNotVerified, decodeErrorBody(t, w).Code)
}

func TestUploadRejectsNonXlsxFilename(t *testing.T) {
	r := uploadRouter(&model.User{ID: 7, IsVerified: true})

	w := postUpload(t, r, "bank.csv")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrUnsupportedFile, decodeErrorBody(t, w).Code)
}
