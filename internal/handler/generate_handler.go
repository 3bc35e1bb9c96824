package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qforge/qpgen-backend/internal/middleware"
	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/qforge/qpgen-backend/internal/response"
	"github.com/qforge/qpgen-backend/internal/service"
	"github.com/qforge/qpgen-backend/internal/validator"
)

// GenerateHandler handles paper generation and subject catalog endpoints.
type GenerateHandler struct {
	generateService *service.GenerateService
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(generateService *service.GenerateService) *GenerateHandler {
	return &GenerateHandler{generateService: generateService}
}

// Generate godoc
// POST /api/v1/papers/generate
// Draws a random paper from the user's question bank under the requested
// unit and BT level distribution. The result is not persisted.
func (h *GenerateHandler) Generate(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req model.GenerateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.generateService.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeGenerateError(c, &req, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// Subjects godoc
// GET /api/v1/papers/subjects/:file_id
// Lists the distinct subjects of an uploaded file with their observed years
// and semesters, for populating the generation form.
func (h *GenerateHandler) Subjects(c *gin.Context) {
	userID := middleware.GetUserID(c)

	fileID, err := uuid.Parse(c.Param("file_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	subjects, err := h.generateService.SubjectsByFile(c.Request.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrFileNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if subjects == nil {
		subjects = []model.SubjectOption{}
	}

	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// writeGenerateError maps generation domain errors onto API responses. Config
// errors keep their request-specific message; a no-match keeps the echoed
// filters so the client can show what was asked for.
func (h *GenerateHandler) writeGenerateError(c *gin.Context, req *model.GenerateRequest, err error) {
	var cfgErr *service.ConfigError
	var boundsErr *service.BoundsError

	switch {
	case errors.As(err, &cfgErr):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrConfigMismatch, cfgErr.Error())
	case errors.As(err, &boundsErr):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrConfigMismatch, boundsErr.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
	case errors.Is(err, service.ErrUserNotVerified):
		response.Fail(c, http.StatusUnauthorized, response.ErrNotVerified)
	case errors.Is(err, service.ErrFileNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrFileNotFound)
	case errors.Is(err, service.ErrFileEmpty):
		response.Fail(c, http.StatusNotFound, response.ErrFileEmpty)
	case errors.Is(err, service.ErrNoQuestionsMatched):
		response.FailWithDetails(c, http.StatusNotFound, response.ErrNoQuestionsMatched, gin.H{
			"subject_code": req.Subject,
			"branch":       req.Branch,
			"regulation":   req.Regulation,
			"year":         req.Year,
			"semester":     req.Semester,
			"unit":         req.Unit,
			"requested": gin.H{
				"short": req.Config.Short.TotalCount,
				"long":  req.Config.Long.TotalCount,
			},
		})
	case errors.Is(err, service.ErrEmptyGeneration):
		response.Fail(c, http.StatusNotFound, response.ErrEmptyGeneration)
	case errors.Is(err, service.ErrSubjectNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSubjectNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
