package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store/storetest"
)

func TestAssistantCreate(t *testing.T) {
	svc := NewAssistantService(storetest.New(), zerolog.Nop())
	ctx := context.Background()

	a, err := svc.Create(ctx, "  helper  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "helper", a.Name)
	assert.True(t, a.IsActive)
	assert.NotEmpty(t, a.AssistantID)

	_, err = svc.Create(ctx, "helper", nil)
	assert.True(t, errors.Is(err, model.ErrConflict))

	_, err = svc.Create(ctx, "", nil)
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = svc.Create(ctx, strings.Repeat("x", 51), nil)
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestAssistantUpdateAndDeactivate(t *testing.T) {
	svc := NewAssistantService(storetest.New(), zerolog.Nop())
	ctx := context.Background()

	a, err := svc.Create(ctx, "helper", nil)
	require.NoError(t, err)

	persona := "terse"
	newName := "helper-2"
	upd, err := svc.Update(ctx, a.AssistantID, AssistantPatch{Name: &newName, Personality: &persona})
	require.NoError(t, err)
	assert.Equal(t, "helper-2", upd.Name)
	require.NotNil(t, upd.Personality)
	assert.Equal(t, "terse", *upd.Personality)

	_, err = svc.Update(ctx, "missing", AssistantPatch{Name: &newName})
	assert.True(t, errors.Is(err, model.ErrNotFound))

	require.NoError(t, svc.Deactivate(ctx, a.AssistantID))
	got, err := svc.Get(ctx, a.AssistantID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.True(t, errors.Is(svc.Deactivate(ctx, "missing"), model.ErrNotFound))
}
