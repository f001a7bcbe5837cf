package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
	"github.com/noah-isme/sma-bk-api/pkg/response"
)

type settlementRunner interface {
	Run(ctx context.Context, day, trigger string) (*dto.SettlementSummary, error)
}

// SettlementHandler exposes the manual settlement trigger.
type SettlementHandler struct {
	service settlementRunner
	trigger string
}

// NewSettlementHandler builds a new handler.
func NewSettlementHandler(service settlementRunner, trigger string) *SettlementHandler {
	return &SettlementHandler{service: service, trigger: trigger}
}

// Run godoc
// @Summary Settle a day
// @Tags Settlement
// @Accept json
// @Produce json
// @Param payload body dto.RunSettlementRequest false "Optional day to settle"
// @Success 200 {object} response.Envelope
// @Router /settlement/run [post]
func (h *SettlementHandler) Run(c *gin.Context) {
	var req dto.RunSettlementRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settlement payload"))
			return
		}
	}
	summary, err := h.service.Run(c.Request.Context(), req.Day, h.trigger)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
