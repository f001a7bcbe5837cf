package dto

import (
	"time"

	"github.com/noah-isme/sma-bk-api/internal/models"
)

// ArchiveDayResponse returns one archived day partition.
type ArchiveDayResponse struct {
	Day     string            `json:"day"`
	Settled bool              `json:"settled"`
	Cases   []models.CaseFile `json:"cases"`
}

// ExportResult describes an exported settlement report and its download token.
type ExportResult struct {
	Day           string    `json:"day"`
	File          string    `json:"file"`
	DownloadToken string    `json:"download_token"`
	ExpiresAt     time.Time `json:"expires_at"`
}
