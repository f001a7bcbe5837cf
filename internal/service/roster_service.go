package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

type rosterTeacherStore interface {
	Upsert(ctx context.Context, t *models.Teacher) error
}

// CreateTeacherRequest registers a new roster member.
type CreateTeacherRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	NIP      *string `json:"nip" validate:"omitempty,max=50"`
	Role     string  `json:"role" validate:"omitempty,oneof=GURU_BK STAF_PENDUKUNG"`
}

// RosterService manages the teacher roster and its day-scoped flags, and
// answers ledger queries.
type RosterService struct {
	guard     *StateGuard
	teachers  rosterTeacherStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(guard *StateGuard, teachers rosterTeacherStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		guard:     guard,
		teachers:  teachers,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns the roster with reconciled loads and today's assignment counts.
// Listing doubles as the opportunistic reconciliation point: stale caches are
// overwritten from the log and the repair count published as a metric.
func (s *RosterService) List(ctx context.Context) ([]dto.TeacherWithLoad, error) {
	var out []dto.TeacherWithLoad
	err := s.guard.Do(func(st *engine.State) error {
		repaired := st.ReconcileLoads()
		s.metrics.RecordLedgerRepairs(repaired)
		today := st.Today()
		for _, t := range st.SortedTeachers() {
			out = append(out, dto.TeacherWithLoad{
				Teacher:    *t,
				TodayCount: st.AssignmentCount(t.ID, today),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Create registers a roster member. Teachers enter the system through the
// staff admin; the engine only tracks what assignment needs.
func (s *RosterService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	role := models.TeacherRole(req.Role)
	if role == "" {
		role = models.TeacherRoleCounselor
	}
	teacher := &models.Teacher{
		ID:       uuid.NewString(),
		FullName: strings.TrimSpace(req.FullName),
		NIP:      req.NIP,
		Role:     role,
		Active:   true,
	}
	err := s.guard.Do(func(st *engine.State) error {
		teacher.CreatedAt = st.Now()
		teacher.UpdatedAt = teacher.CreatedAt
		st.UpsertTeacher(teacher)
		return s.persist(ctx, teacher)
	})
	if err != nil {
		return nil, err
	}
	return teacher, nil
}

// UpdateFlags patches the day-scoped duty flags. A provided empty string
// clears the flag; nil leaves it untouched.
func (s *RosterService) UpdateFlags(ctx context.Context, id string, req dto.UpdateTeacherFlagsRequest, actor *models.JWTClaims) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid flags payload")
	}
	var updated *models.Teacher
	err := s.guard.Do(func(st *engine.State) error {
		teacher := st.Teacher(id)
		if teacher == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		applyFlag(&teacher.AbsentOn, req.AbsentOn)
		applyFlag(&teacher.BackupOn, req.BackupOn)
		applyFlag(&teacher.TesterOn, req.TesterOn)
		teacher.UpdatedAt = st.Now()
		updated = teacher
		return s.persist(ctx, teacher)
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "bk:roster*")
	}
	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}
	s.logger.Info("teacher flags updated",
		zap.String("teacher_id", id),
		zap.String("actor", actorID))
	return updated, nil
}

// LoadFor answers a ledger recomputation for one teacher and period. Periods
// are "2006" for a year or "2006-01" for a month.
func (s *RosterService) LoadFor(ctx context.Context, id, period string) (*dto.TeacherLoadResponse, error) {
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	var load int
	err = s.guard.Do(func(st *engine.State) error {
		if st.Teacher(id) == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		load = st.LoadFor(id, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.TeacherLoadResponse{TeacherID: id, Period: period, Load: load}, nil
}

func (s *RosterService) persist(ctx context.Context, t *models.Teacher) error {
	if err := s.teachers.Upsert(ctx, t); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist teacher")
	}
	return nil
}

func applyFlag(target **string, value *string) {
	if value == nil {
		return
	}
	if *value == "" {
		*target = nil
		return
	}
	day := *value
	*target = &day
}

func parsePeriod(raw string) (engine.Period, error) {
	if t, err := time.Parse(models.MonthLayout, raw); err == nil {
		return engine.MonthPeriod(t.Year(), t.Month()), nil
	}
	if t, err := time.Parse("2006", raw); err == nil {
		return engine.YearPeriod(t.Year()), nil
	}
	return engine.Period{}, appErrors.Clone(appErrors.ErrValidation, "period must be YYYY or YYYY-MM")
}
