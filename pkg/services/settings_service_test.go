package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/models"
)

func TestSettingsService_UpdateClampsCooldown(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"negative clamps to zero", -5, 0},
		{"zero passes through", 0, 0},
		{"in range passes through", 30, 30},
		{"above max clamps", 10000, models.MaxCooldownDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSettingsRepo{}
			service := NewSettingsService(repo, zap.NewNop())

			settings, err := service.Update(context.Background(), tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, settings.RefreshCooldownDays)
			assert.Equal(t, tt.want, repo.settings.RefreshCooldownDays)
		})
	}
}

func TestSettingsService_PolicyReflectsSettings(t *testing.T) {
	repo := &mockSettingsRepo{settings: models.EngineSettings{RefreshCooldownDays: 14}}
	service := NewSettingsService(repo, zap.NewNop())

	policy, err := service.Policy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, policy.CooldownDays)
}

func TestSettingsService_PolicyPropagatesStoreError(t *testing.T) {
	repo := &mockSettingsRepo{getErr: errors.New("connection reset")}
	service := NewSettingsService(repo, zap.NewNop())

	_, err := service.Policy(context.Background())
	require.Error(t, err)
}
