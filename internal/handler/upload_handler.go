package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qforge/qpgen-backend/internal/middleware"
	"github.com/qforge/qpgen-backend/internal/response"
	"github.com/qforge/qpgen-backend/internal/service"
)

// UploadHandler handles question-bank spreadsheet uploads.
type UploadHandler struct {
	uploadService  *service.UploadService
	maxUploadBytes int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadService *service.UploadService, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService:  uploadService,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload godoc
// POST /api/v1/uploads
// Ingests an .xlsx question bank. Rows replace any earlier upload of the
// same subject code for this user.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID := middleware.GetUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	if fileHeader.Size > h.maxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer src.Close()

	description := c.PostForm("description")

	file, err := h.uploadService.Ingest(c.Request.Context(), userID, fileHeader.Filename, description, src)
	if err != nil {
		var sheetErr *service.SheetError
		switch {
		case errors.Is(err, service.ErrUserNotVerified):
			response.Fail(c, http.StatusUnauthorized, response.ErrNotVerified)
		case errors.Is(err, service.ErrUserNotFound):
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		case errors.As(err, &sheetErr):
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrSheetInvalid, sheetErr.Error())
		case errors.Is(err, service.ErrSheetEmpty):
			response.Fail(c, http.StatusBadRequest, response.ErrSheetInvalid)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"file": file})
}

// ListFiles godoc
// GET /api/v1/uploads
// Lists the user's uploaded question banks.
func (h *UploadHandler) ListFiles(c *gin.Context) {
	userID := middleware.GetUserID(c)

	files, err := h.uploadService.ListFiles(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"files": files})
}

// DeleteFile godoc
// DELETE /api/v1/uploads/:file_id
// Removes one upload and its questions.
func (h *UploadHandler) DeleteFile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	fileID, err := uuid.Parse(c.Param("file_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.uploadService.DeleteFile(c.Request.Context(), userID, fileID); err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrFileNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
