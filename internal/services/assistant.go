// Package services contains the CRUD orchestration around assistants and
// memories. Search lives in internal/search.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store"
)

const maxAssistantNameLen = 50

// AssistantService manages assistant records.
type AssistantService struct {
	store store.Store
	log   zerolog.Logger
}

// NewAssistantService builds an AssistantService.
func NewAssistantService(st store.Store, log zerolog.Logger) *AssistantService {
	return &AssistantService{store: st, log: log.With().Str("component", "assistants").Logger()}
}

// Create registers a new assistant. Names are unique and 1 to 50 characters.
func (s *AssistantService) Create(ctx context.Context, name string, personality *string) (*model.Assistant, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxAssistantNameLen {
		return nil, fmt.Errorf("name must be 1-%d characters: %w", maxAssistantNameLen, model.ErrValidation)
	}
	a, err := s.store.Assistants().Create(ctx, &model.Assistant{Name: name, Personality: personality})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("assistant_id", a.AssistantID).Str("name", a.Name).Msg("assistant created")
	return a, nil
}

// Get returns one assistant by ID.
func (s *AssistantService) Get(ctx context.Context, assistantID string) (*model.Assistant, error) {
	return s.store.Assistants().Get(ctx, assistantID)
}

// List returns all assistants, newest first.
func (s *AssistantService) List(ctx context.Context) ([]*model.Assistant, error) {
	return s.store.Assistants().List(ctx)
}

// AssistantPatch carries the updatable assistant fields; nil means unchanged.
type AssistantPatch struct {
	Name        *string `json:"name,omitempty"`
	Personality *string `json:"personality,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Update applies a partial update and returns the stored state.
func (s *AssistantService) Update(ctx context.Context, assistantID string, patch AssistantPatch) (*model.Assistant, error) {
	cur, err := s.store.Assistants().Get(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" || len(name) > maxAssistantNameLen {
			return nil, fmt.Errorf("name must be 1-%d characters: %w", maxAssistantNameLen, model.ErrValidation)
		}
		cur.Name = name
	}
	if patch.Personality != nil {
		cur.Personality = patch.Personality
	}
	if patch.IsActive != nil {
		cur.IsActive = *patch.IsActive
	}
	return s.store.Assistants().Update(ctx, cur)
}

// Deactivate soft-deletes an assistant; its memories are kept.
func (s *AssistantService) Deactivate(ctx context.Context, assistantID string) error {
	if err := s.store.Assistants().Deactivate(ctx, assistantID); err != nil {
		return err
	}
	s.log.Info().Str("assistant_id", assistantID).Msg("assistant deactivated")
	return nil
}
