package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

func intPtr(v int) *int {
	return &v
}

func TestSettingsGetReturnsLiveValues(t *testing.T) {
	guard := newTestGuard()
	svc := NewSettingsService(guard, &settingsStoreStub{}, nil, nil, nil)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, settings.DailyCaseLimit)
	assert.Equal(t, 3, settings.ScoreTypeReferral)
}

func TestSettingsUpdateAppliesAndPersists(t *testing.T) {
	guard := newTestGuard()
	store := &settingsStoreStub{}
	svc := NewSettingsService(guard, store, nil, nil, nil)

	updated, err := svc.Update(context.Background(), dto.UpdateSettingsRequest{
		DailyCaseLimit:    intPtr(6),
		BackupBonusAmount: intPtr(5),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.DailyCaseLimit)
	assert.Equal(t, 5, updated.BackupBonusAmount)
	// Untouched keys keep their values.
	assert.Equal(t, 2, updated.ScoreTypeSupport)

	assert.Equal(t, "6", store.values["dailyCaseLimit"])
	assert.Equal(t, "5", store.values["backupBonusAmount"])
	assert.NotContains(t, store.values, "scoreTypeSupport")

	again, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, again.DailyCaseLimit)
}

func TestSettingsUpdateRejectsNegativeLimit(t *testing.T) {
	guard := newTestGuard()
	svc := NewSettingsService(guard, &settingsStoreStub{}, nil, nil, nil)

	_, err := svc.Update(context.Background(), dto.UpdateSettingsRequest{DailyCaseLimit: intPtr(-1)}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSettingsUpdateAllowsNegativeTypeWeight(t *testing.T) {
	guard := newTestGuard()
	store := &settingsStoreStub{}
	svc := NewSettingsService(guard, store, nil, nil, nil)

	updated, err := svc.Update(context.Background(), dto.UpdateSettingsRequest{ScoreTypeSupport: intPtr(-2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, -2, updated.ScoreTypeSupport)
	assert.Equal(t, "-2", store.values["scoreTypeSupport"])
}
