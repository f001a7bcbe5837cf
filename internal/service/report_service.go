package service

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
	"github.com/noah-isme/sma-bk-api/pkg/export"
	"github.com/noah-isme/sma-bk-api/pkg/storage"
)

type datasetExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportService turns archived day partitions into downloadable reports.
type ReportService struct {
	guard  *StateGuard
	csv    datasetExporter
	pdf    titledExporter
	cache  *CacheService
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	logger *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(guard *StateGuard, csv datasetExporter, pdf titledExporter, cache *CacheService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{guard: guard, csv: csv, pdf: pdf, cache: cache, logger: logger}
}

// EnableExports attaches the on-disk export store and the signer issuing
// download tokens for exported files.
func (s *ReportService) EnableExports(store *storage.LocalStorage, signer *storage.SignedURLSigner) {
	s.store = store
	s.signer = signer
}

// Day returns the archived partition for a day. Settled partitions are
// immutable, which makes them the one read in the system worth caching.
func (s *ReportService) Day(ctx context.Context, day string) (*dto.ArchiveDayResponse, error) {
	cacheKey := "bk:archive:" + day
	if s.cache != nil {
		var cached dto.ArchiveDayResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	var out *dto.ArchiveDayResponse
	err := s.guard.Do(func(st *engine.State) error {
		out = &dto.ArchiveDayResponse{
			Day:     day,
			Settled: st.SettledDate != "" && day <= st.SettledDate,
			Cases:   st.ArchiveOn(day),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil && out.Settled {
		_ = s.cache.Set(ctx, cacheKey, out, 0)
	}
	return out, nil
}

// RenderCSV renders the day's archive as CSV.
func (s *ReportService) RenderCSV(ctx context.Context, day string) ([]byte, error) {
	data, err := s.dataset(day)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(data)
}

// RenderPDF renders the day's archive as the printable settlement report.
func (s *ReportService) RenderPDF(ctx context.Context, day string) ([]byte, error) {
	data, err := s.dataset(day)
	if err != nil {
		return nil, err
	}
	return s.pdf.Render(data, fmt.Sprintf("Rekap kasus BK %s", day))
}

// ExportDay renders the day's settlement report to disk and returns a signed
// download token. Settlement calls this after a successful run.
func (s *ReportService) ExportDay(ctx context.Context, day string) (*dto.ExportResult, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report exports are not enabled")
	}
	raw, err := s.RenderPDF(ctx, day)
	if err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("rekap-kasus-%s.pdf", day)
	if _, err := s.store.Save(filename, raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(day, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	s.logger.Info("settlement report exported", zap.String("day", day), zap.String("file", filename))
	return &dto.ExportResult{Day: day, File: filename, DownloadToken: token, ExpiresAt: expiresAt}, nil
}

// Download resolves a signed token to the stored report file.
func (s *ReportService) Download(token string) (*os.File, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report exports are not enabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}
	return file, nil
}

func (s *ReportService) dataset(day string) (export.Dataset, error) {
	data := export.Dataset{
		Headers: []string{"Kasus", "Guru", "Jenis", "Skor", "Keterangan"},
	}
	err := s.guard.Do(func(st *engine.State) error {
		cases := st.ArchiveOn(day)
		if len(cases) == 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "no archived cases for "+day)
		}
		for _, c := range cases {
			teacherName := "-"
			if c.AssignedTo != nil {
				if t := st.Teacher(*c.AssignedTo); t != nil {
					teacherName = t.FullName
				}
			}
			data.Rows = append(data.Rows, map[string]string{
				"Kasus":      c.ID,
				"Guru":       teacherName,
				"Jenis":      caseKind(c),
				"Skor":       strconv.Itoa(c.Score),
				"Keterangan": c.Reason,
			})
		}
		return nil
	})
	return data, err
}

func caseKind(c models.CaseFile) string {
	switch {
	case c.IsAbsencePenalty:
		return "PENALTI"
	case c.IsBackupBonus:
		return "BONUS"
	default:
		return string(c.CaseType)
	}
}
