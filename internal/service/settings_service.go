package service

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

type settingsStore interface {
	Set(ctx context.Context, key, value string) error
}

// SettingsService exposes the recognised engine tunables. Changes take effect
// on the live snapshot immediately and are persisted key by key.
type SettingsService struct {
	guard     *StateGuard
	store     settingsStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the service.
func NewSettingsService(guard *StateGuard, store settingsStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{guard: guard, store: store, cache: cache, validator: validate, logger: logger}
}

// Get returns the active settings.
func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := s.guard.Do(func(st *engine.State) error {
		settings = st.Settings
		return nil
	})
	return settings, err
}

// Update applies a partial settings change to the live engine and persists
// the touched keys.
func (s *SettingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest, actor *models.JWTClaims) (models.Settings, error) {
	var settings models.Settings
	if err := s.validator.Struct(req); err != nil {
		return settings, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	changed := map[string]int{}
	collect := func(key string, value *int) {
		if value != nil {
			changed[key] = *value
		}
	}
	collect(models.SettingDailyCaseLimit, req.DailyCaseLimit)
	collect(models.SettingScoreTest, req.ScoreTest)
	collect(models.SettingScoreNewBonus, req.ScoreNewBonus)
	collect(models.SettingScoreTypeReferral, req.ScoreTypeReferral)
	collect(models.SettingScoreTypeSupport, req.ScoreTypeSupport)
	collect(models.SettingScoreTypeBoth, req.ScoreTypeBoth)
	collect(models.SettingBackupBonusAmount, req.BackupBonusAmount)
	collect(models.SettingAbsencePenaltyAmount, req.AbsencePenaltyAmount)

	err := s.guard.Do(func(st *engine.State) error {
		raw := make(map[string]string, len(changed))
		for key, value := range changed {
			raw[key] = strconv.Itoa(value)
		}
		st.Settings.ApplyMap(raw)
		for key, value := range raw {
			if err := s.store.Set(ctx, key, value); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist setting "+key)
			}
		}
		settings = st.Settings
		return nil
	})
	if err != nil {
		return settings, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "bk:settings*")
	}
	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}
	s.logger.Info("settings updated", zap.Int("keys", len(changed)), zap.String("actor", actorID))
	return settings, nil
}
