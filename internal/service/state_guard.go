package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
)

// StateGuard serialises access to the shared in-memory engine snapshot.
// Engine state expects a single writer; the guard enforces that across HTTP
// handlers and the settlement scheduler.
type StateGuard struct {
	mu    sync.Mutex
	state *engine.State
}

// NewStateGuard wraps a snapshot.
func NewStateGuard(state *engine.State) *StateGuard {
	return &StateGuard{state: state}
}

// Do runs fn with exclusive access to the snapshot.
func (g *StateGuard) Do(fn func(*engine.State) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.state)
}

type stateTeacherSource interface {
	All(ctx context.Context) ([]models.Teacher, error)
}

type stateCaseSource interface {
	ListOpen(ctx context.Context) ([]models.CaseFile, error)
	ListArchivedSince(ctx context.Context, fromDay string) (map[string][]models.CaseFile, error)
}

type stateSettingsSource interface {
	Load(ctx context.Context) (map[string]string, error)
}

// LoadState assembles the engine snapshot from persistence: roster, open
// cases, the current year's archive, persisted settings overrides and the
// settled-day marker. Caches are reconciled once at boot so the snapshot
// starts consistent with the log.
func LoadState(ctx context.Context, teachers stateTeacherSource, cases stateCaseSource, settingsSrc stateSettingsSource, defaults models.Settings, opts ...engine.Option) (*engine.State, error) {
	values, err := settingsSrc.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings := defaults
	settings.ApplyMap(values)

	state := engine.NewState(settings, opts...)
	state.SettledDate = values[models.SettingSettledDate]

	roster, err := teachers.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	for i := range roster {
		t := roster[i]
		state.UpsertTeacher(&t)
	}

	open, err := cases.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("load open cases: %w", err)
	}
	for i := range open {
		c := open[i]
		state.UpsertOpenCase(&c)
	}

	yearStart := time.Date(state.Now().Year(), time.January, 1, 0, 0, 0, 0, state.Location())
	archive, err := cases.ListArchivedSince(ctx, models.DayOf(yearStart))
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	for day, entries := range archive {
		state.Archive[day] = entries
	}

	state.ReconcileLoads()
	return state, nil
}
