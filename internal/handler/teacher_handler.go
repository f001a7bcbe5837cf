package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/models"
	"github.com/noah-isme/sma-bk-api/internal/service"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
	"github.com/noah-isme/sma-bk-api/pkg/response"
)

type rosterService interface {
	List(ctx context.Context) ([]dto.TeacherWithLoad, error)
	Create(ctx context.Context, req service.CreateTeacherRequest) (*models.Teacher, error)
	UpdateFlags(ctx context.Context, id string, req dto.UpdateTeacherFlagsRequest, actor *models.JWTClaims) (*models.Teacher, error)
	LoadFor(ctx context.Context, id, period string) (*dto.TeacherLoadResponse, error)
}

// TeacherHandler exposes roster and ledger endpoints.
type TeacherHandler struct {
	service rosterService
}

// NewTeacherHandler builds a new handler.
func NewTeacherHandler(service rosterService) *TeacherHandler {
	return &TeacherHandler{service: service}
}

// List godoc
// @Summary List the roster with current loads
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Create godoc
// @Summary Register a roster member
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	teacher, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// UpdateFlags godoc
// @Summary Patch day-scoped duty flags
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.UpdateTeacherFlagsRequest true "Flags payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/flags [patch]
func (h *TeacherHandler) UpdateFlags(c *gin.Context) {
	var req dto.UpdateTeacherFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid flags payload"))
		return
	}
	teacher, err := h.service.UpdateFlags(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Load godoc
// @Summary Recompute a teacher's load for a period
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Param period query string true "Period, YYYY or YYYY-MM"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/load [get]
func (h *TeacherHandler) Load(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period query parameter is required"))
		return
	}
	load, err := h.service.LoadFor(c.Request.Context(), c.Param("id"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, load, nil)
}
