package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

type assignmentCaseStore interface {
	UpsertOpen(ctx context.Context, c *models.CaseFile) error
}

type assignmentTeacherStore interface {
	Upsert(ctx context.Context, t *models.Teacher) error
}

type assignmentNotifier interface {
	NotifyAssignment(teacherID, title, message, priority string)
}

// pendingAssignment holds a deferred escalation-gate decision: the uncommitted
// draft, the candidate awaiting confirmation and the exclusions accumulated
// through rejections.
type pendingAssignment struct {
	draft       *models.CaseFile
	candidateID string
	reason      string
	excluded    map[string]bool
	heldSince   time.Time
}

// AssignmentService orchestrates case intake: selector decision, escalation
// gate, commit with notification dispatch and persistence write-back.
type AssignmentService struct {
	guard     *StateGuard
	cases     assignmentCaseStore
	teachers  assignmentTeacherStore
	notifier  assignmentNotifier
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	scoreHook engine.ScoreHook

	// pending is only touched under the state guard.
	pending map[string]*pendingAssignment
}

// NewAssignmentService constructs the service.
func NewAssignmentService(guard *StateGuard, cases assignmentCaseStore, teachers assignmentTeacherStore, notifier assignmentNotifier, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		guard:     guard,
		cases:     cases,
		teachers:  teachers,
		notifier:  notifier,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		pending:   make(map[string]*pendingAssignment),
	}
}

// SetScoreHook installs the optional extension that lets deployments attach
// diagnosis counts (or anything else on the case) to scoring.
func (s *AssignmentService) SetScoreHook(hook engine.ScoreHook) {
	s.scoreHook = hook
}

// Intake evaluates a case draft and either commits the assignment, defers it
// for confirmation, or reports that no candidate exists. A NO_CANDIDATE case
// stays in the open set unassigned and is not auto-retried.
func (s *AssignmentService) Intake(ctx context.Context, req dto.IntakeCaseRequest) (*dto.AssignmentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid case payload")
	}

	draft := &models.CaseFile{
		ID:             uuid.NewString(),
		CaseType:       models.CaseType(req.CaseType),
		IsNew:          req.IsNew,
		IsTestCase:     req.IsTestCase,
		DiagnosisCount: req.DiagnosisCount,
		Reason:         req.Reason,
	}

	var outcome *dto.AssignmentOutcome
	err := s.guard.Do(func(st *engine.State) error {
		draft.CreatedAt = st.Now()
		verdict := st.Evaluate(draft, nil)
		var err error
		outcome, err = s.applyVerdict(ctx, st, draft, verdict, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAssignment(outcome.Status)
	return outcome, nil
}

// Confirm commits a pending escalation-gate decision to exactly the held
// candidate, regardless of how the roster moved since.
func (s *AssignmentService) Confirm(ctx context.Context, caseID string) (*dto.AssignmentOutcome, error) {
	var outcome *dto.AssignmentOutcome
	err := s.guard.Do(func(st *engine.State) error {
		entry, ok := s.pending[caseID]
		if !ok {
			return appErrors.ErrNotPending
		}
		teacher := st.Teacher(entry.candidateID)
		if teacher == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "held candidate left the roster")
		}
		delete(s.pending, caseID)
		s.metrics.SetPendingConfirmations(len(s.pending))
		var err error
		outcome, err = s.commit(ctx, st, entry.draft, teacher)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAssignment(outcome.Status)
	return outcome, nil
}

// Reject re-runs the selector with the held candidate excluded. This is a full
// re-evaluation of current state, not a resumption of the prior ranking.
func (s *AssignmentService) Reject(ctx context.Context, caseID string) (*dto.AssignmentOutcome, error) {
	var outcome *dto.AssignmentOutcome
	err := s.guard.Do(func(st *engine.State) error {
		entry, ok := s.pending[caseID]
		if !ok {
			return appErrors.ErrNotPending
		}
		entry.excluded[entry.candidateID] = true
		verdict := st.Evaluate(entry.draft, entry.excluded)
		var err error
		outcome, err = s.applyVerdict(ctx, st, entry.draft, verdict, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAssignment(outcome.Status)
	return outcome, nil
}

// Pending lists the decisions currently awaiting confirmation.
func (s *AssignmentService) Pending(ctx context.Context) []dto.AssignmentOutcome {
	var out []dto.AssignmentOutcome
	_ = s.guard.Do(func(st *engine.State) error {
		for _, entry := range s.pending {
			out = append(out, dto.AssignmentOutcome{
				Status:  string(engine.OutcomePending),
				Reason:  entry.reason,
				Case:    entry.draft,
				Teacher: teacherSummary(st.Teacher(entry.candidateID)),
			})
		}
		return nil
	})
	return out
}

// TodayCases returns the open case set for the current day.
func (s *AssignmentService) TodayCases(ctx context.Context) []models.CaseFile {
	var out []models.CaseFile
	_ = s.guard.Do(func(st *engine.State) error {
		out = st.OpenOn(st.Today())
		return nil
	})
	return out
}

// applyVerdict routes an evaluation result. Held entries are created, updated
// or released depending on where the re-evaluation landed.
func (s *AssignmentService) applyVerdict(ctx context.Context, st *engine.State, draft *models.CaseFile, verdict engine.Outcome, held *pendingAssignment) (*dto.AssignmentOutcome, error) {
	switch verdict.Status {
	case engine.OutcomeAssigned:
		if held != nil {
			delete(s.pending, draft.ID)
			s.metrics.SetPendingConfirmations(len(s.pending))
		}
		return s.commit(ctx, st, draft, verdict.Teacher)

	case engine.OutcomePending:
		if held != nil {
			held.candidateID = verdict.Teacher.ID
			held.reason = verdict.Reason
		} else {
			s.pending[draft.ID] = &pendingAssignment{
				draft:       draft,
				candidateID: verdict.Teacher.ID,
				reason:      verdict.Reason,
				excluded:    make(map[string]bool),
				heldSince:   st.Now(),
			}
		}
		s.metrics.SetPendingConfirmations(len(s.pending))
		return &dto.AssignmentOutcome{
			Status:  string(engine.OutcomePending),
			Reason:  verdict.Reason,
			Case:    draft,
			Teacher: teacherSummary(verdict.Teacher),
		}, nil

	default:
		if held != nil {
			delete(s.pending, draft.ID)
			s.metrics.SetPendingConfirmations(len(s.pending))
		}
		// The case stays unassigned in the open set; intake decides whether
		// to re-submit once the roster changes.
		st.UpsertOpenCase(draft)
		if err := s.cases.UpsertOpen(ctx, draft); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist unassigned case")
		}
		return &dto.AssignmentOutcome{Status: string(engine.OutcomeNoCandidate), Case: draft}, nil
	}
}

// commit finalises an assignment: engine mutation, persistence write-back and
// fire-and-forget notification. A notification failure never rolls back the
// assignment; a persistence failure is surfaced, never swallowed.
func (s *AssignmentService) commit(ctx context.Context, st *engine.State, draft *models.CaseFile, teacher *models.Teacher) (*dto.AssignmentOutcome, error) {
	st.CommitAssignment(draft, teacher, s.scoreHook)

	if err := s.cases.UpsertOpen(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist case")
	}
	if err := s.teachers.Upsert(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist teacher loads")
	}

	if s.notifier != nil {
		priority := NotificationPriorityNormal
		if draft.IsTestCase {
			priority = NotificationPriorityHigh
		}
		s.notifier.NotifyAssignment(teacher.ID,
			"Penugasan kasus baru",
			fmt.Sprintf("Anda menerima kasus %s (skor %d)", draft.CaseType, draft.Score),
			priority)
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "bk:*")
	}

	s.logger.Info("case assigned",
		zap.String("case_id", draft.ID),
		zap.String("teacher_id", teacher.ID),
		zap.Int("score", draft.Score),
		zap.Bool("test_case", draft.IsTestCase))

	return &dto.AssignmentOutcome{
		Status:  string(engine.OutcomeAssigned),
		Case:    draft,
		Teacher: teacherSummary(teacher),
	}, nil
}

func teacherSummary(t *models.Teacher) *dto.TeacherSummary {
	if t == nil {
		return nil
	}
	return &dto.TeacherSummary{ID: t.ID, FullName: t.FullName, YearlyLoad: t.YearlyLoad}
}
