package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

// Settlement triggers, used as metric labels.
const (
	SettlementTriggerTimer  = "timer"
	SettlementTriggerManual = "manual"
)

type settlementCaseStore interface {
	ArchiveDay(ctx context.Context, day string, cases []models.CaseFile) error
}

type settlementTeacherStore interface {
	Upsert(ctx context.Context, t *models.Teacher) error
}

type settlementSettingsStore interface {
	Set(ctx context.Context, key, value string) error
}

type settlementReportExporter interface {
	ExportDay(ctx context.Context, day string) (*dto.ExportResult, error)
}

// SettlementService drives the end-of-day rollover: the engine computes
// penalties, bonuses and the archive merge; the service persists the result
// and advances the stored marker. Because every engine step is an upsert, the
// timer and manual triggers may race or repeat without corrupting the day.
type SettlementService struct {
	guard    *StateGuard
	cases    settlementCaseStore
	teachers settlementTeacherStore
	settings settlementSettingsStore
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	reports  settlementReportExporter
}

// SetReportExporter installs the optional post-settlement report export.
func (s *SettlementService) SetReportExporter(reports settlementReportExporter) {
	s.reports = reports
}

// NewSettlementService constructs the service.
func NewSettlementService(guard *StateGuard, cases settlementCaseStore, teachers settlementTeacherStore, settings settlementSettingsStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		guard:    guard,
		cases:    cases,
		teachers: teachers,
		settings: settings,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run settles one day. An empty day lets the engine infer it; inference
// without open cases or a marker is rejected, never guessed. The stored
// marker is written last so an interrupted run stays retryable from step one.
func (s *SettlementService) Run(ctx context.Context, day, trigger string) (*dto.SettlementSummary, error) {
	var summary *dto.SettlementSummary
	err := s.guard.Do(func(st *engine.State) error {
		res, err := st.Settle(day)
		if err != nil {
			return err
		}
		if err := s.cases.ArchiveDay(ctx, res.Day, res.Archived); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist archived day")
		}
		for _, t := range st.SortedTeachers() {
			if err := s.teachers.Upsert(ctx, t); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist roster state")
			}
		}
		if err := s.settings.Set(ctx, models.SettingSettledDate, st.SettledDate); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist settled-day marker")
		}
		summary = &dto.SettlementSummary{
			Day:           res.Day,
			PenaltyCount:  len(res.Penalties),
			BonusCount:    len(res.Bonuses),
			ArchivedCount: len(res.Archived),
			FlagsReset:    res.FlagsReset,
			SettledDate:   st.SettledDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSettlement(trigger)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "bk:*")
	}
	s.logger.Info("settlement completed",
		zap.String("day", summary.Day),
		zap.String("trigger", trigger),
		zap.Int("archived", summary.ArchivedCount),
		zap.Int("penalties", summary.PenaltyCount),
		zap.Int("bonuses", summary.BonusCount))

	// Report export is best effort; the settled day is already durable.
	if s.reports != nil && summary.ArchivedCount > 0 {
		if _, err := s.reports.ExportDay(ctx, summary.Day); err != nil {
			s.logger.Warn("settlement report export failed", zap.String("day", summary.Day), zap.Error(err))
		}
	}
	return summary, nil
}

// RunPending settles strictly past days until the marker catches up. Used by
// the midnight scheduler; the current day is left open for intake.
func (s *SettlementService) RunPending(ctx context.Context) ([]dto.SettlementSummary, error) {
	var summaries []dto.SettlementSummary
	for {
		var day, today string
		err := s.guard.Do(func(st *engine.State) error {
			today = st.Today()
			next, err := st.NextSettlementDay()
			if err != nil {
				return err
			}
			day = next
			return nil
		})
		if err != nil {
			// Nothing to infer means nothing pending.
			if appErrors.FromError(err).Code == appErrors.ErrAmbiguousSettlementDay.Code {
				return summaries, nil
			}
			return summaries, err
		}
		if day >= today {
			return summaries, nil
		}
		summary, err := s.Run(ctx, day, SettlementTriggerTimer)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, *summary)
	}
}

// Start launches the midnight scheduler in the engine's timezone. The ticker
// only observes state; idempotent settlement is what makes an overlap with a
// manual trigger safe.
func (s *SettlementService) Start(ctx context.Context) {
	go func() {
		for {
			var next time.Time
			_ = s.guard.Do(func(st *engine.State) error {
				now := st.Now()
				next = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, st.Location()).AddDate(0, 0, 1)
				return nil
			})
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if _, err := s.RunPending(ctx); err != nil {
					s.logger.Error("scheduled settlement failed", zap.Error(err))
				}
			}
		}
	}()
}
