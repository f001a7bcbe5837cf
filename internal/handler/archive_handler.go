package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
	"github.com/noah-isme/sma-bk-api/pkg/response"
)

type reportService interface {
	Day(ctx context.Context, day string) (*dto.ArchiveDayResponse, error)
	RenderCSV(ctx context.Context, day string) ([]byte, error)
	RenderPDF(ctx context.Context, day string) ([]byte, error)
	ExportDay(ctx context.Context, day string) (*dto.ExportResult, error)
	Download(token string) (*os.File, error)
}

// ArchiveHandler serves settled day partitions and their report exports.
type ArchiveHandler struct {
	service reportService
}

// NewArchiveHandler builds a new handler.
func NewArchiveHandler(service reportService) *ArchiveHandler {
	return &ArchiveHandler{service: service}
}

// Day godoc
// @Summary Read one archived day, optionally as CSV or PDF
// @Tags Archive
// @Produce json
// @Param date path string true "Day, YYYY-MM-DD"
// @Param format query string false "Export format: csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /archive/{date} [get]
func (h *ArchiveHandler) Day(c *gin.Context) {
	day := c.Param("date")
	if _, err := time.Parse(models.DayLayout, day); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	switch c.Query("format") {
	case "":
		partition, err := h.service.Day(c.Request.Context(), day)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, partition, nil)
	case "csv":
		raw, err := h.service.RenderCSV(c.Request.Context(), day)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=rekap-kasus-%s.csv", day))
		c.Data(http.StatusOK, "text/csv", raw)
	case "pdf":
		raw, err := h.service.RenderPDF(c.Request.Context(), day)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=rekap-kasus-%s.pdf", day))
		c.Data(http.StatusOK, "application/pdf", raw)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

// Export godoc
// @Summary Export a settled day's report to disk and get a download token
// @Tags Archive
// @Produce json
// @Param date path string true "Day, YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /archive/{date}/export [post]
func (h *ArchiveHandler) Export(c *gin.Context) {
	day := c.Param("date")
	if _, err := time.Parse(models.DayLayout, day); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	result, err := h.service.ExportDay(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download streams a previously exported report. The signed token is the only
// credential, so the route sits outside the JWT group.
func (h *ArchiveHandler) Download(c *gin.Context) {
	file, err := h.service.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "failed to stat report file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", info.Name()))
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
