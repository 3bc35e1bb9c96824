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

// PaperHandler handles saved-paper endpoints.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// Save godoc
// POST /api/v1/papers
// Stores a previously generated paper verbatim into the user's list.
func (h *PaperHandler) Save(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req model.SavePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Save(c.Request.Context(), userID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"paper": paper})
}

// List godoc
// GET /api/v1/papers
// Lists the user's saved papers, newest first.
func (h *PaperHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	papers, err := h.paperService.List(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"papers": papers})
}

// Delete godoc
// DELETE /api/v1/papers/:paper_id
// Removes one saved paper.
func (h *PaperHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)

	paperID, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.paperService.Delete(c.Request.Context(), userID, paperID); err != nil {
		if errors.Is(err, service.ErrPaperNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
