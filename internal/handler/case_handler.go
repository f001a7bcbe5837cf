package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
	"github.com/noah-isme/sma-bk-api/pkg/response"
)

type caseService interface {
	Intake(ctx context.Context, req dto.IntakeCaseRequest) (*dto.AssignmentOutcome, error)
	Confirm(ctx context.Context, caseID string) (*dto.AssignmentOutcome, error)
	Reject(ctx context.Context, caseID string) (*dto.AssignmentOutcome, error)
	Pending(ctx context.Context) []dto.AssignmentOutcome
	TodayCases(ctx context.Context) []models.CaseFile
}

// CaseHandler exposes case intake and the escalation-gate endpoints.
type CaseHandler struct {
	service caseService
}

// NewCaseHandler builds a new handler.
func NewCaseHandler(service caseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// Intake godoc
// @Summary Submit a case for assignment
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body dto.IntakeCaseRequest true "Case draft"
// @Success 201 {object} response.Envelope
// @Router /cases [post]
func (h *CaseHandler) Intake(c *gin.Context) {
	var req dto.IntakeCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid case payload"))
		return
	}
	outcome, err := h.service.Intake(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, outcome)
}

// Confirm godoc
// @Summary Confirm a pending assignment
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/confirm [post]
func (h *CaseHandler) Confirm(c *gin.Context) {
	outcome, err := h.service.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Reject godoc
// @Summary Reject a pending assignment and reassign
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/reject [post]
func (h *CaseHandler) Reject(c *gin.Context) {
	outcome, err := h.service.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Pending godoc
// @Summary List assignments awaiting confirmation
// @Tags Cases
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cases/pending [get]
func (h *CaseHandler) Pending(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Pending(c.Request.Context()), nil)
}

// Today godoc
// @Summary List today's open cases
// @Tags Cases
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cases/today [get]
func (h *CaseHandler) Today(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.TodayCases(c.Request.Context()), nil)
}
