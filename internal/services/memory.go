package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/esmlabs/extended-memory/internal/embeddings"
	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store"
	"github.com/esmlabs/extended-memory/internal/textutil"
)

const (
	defaultMemoryType = "general"
	defaultImportance = 5

	// Long content is chunked before embedding so each stored vector covers
	// a coherent slice of the text.
	embedChunkSize    = 2000
	embedChunkOverlap = 200
)

// MemoryService manages memory records and their embeddings.
type MemoryService struct {
	store   store.Store
	gateway *embeddings.Gateway
	log     zerolog.Logger
}

// NewMemoryService builds a MemoryService.
func NewMemoryService(st store.Store, gw *embeddings.Gateway, log zerolog.Logger) *MemoryService {
	return &MemoryService{store: st, gateway: gw, log: log.With().Str("component", "memories").Logger()}
}

// Create validates and stores a memory, then embeds its content when an
// embedding backend is configured. Embedding failures are logged, never
// returned; the memory exists either way.
func (s *MemoryService) Create(ctx context.Context, m *model.Memory) (*model.Memory, error) {
	if err := validateMemory(m); err != nil {
		return nil, err
	}
	if _, err := s.store.Assistants().Get(ctx, m.AssistantID); err != nil {
		return nil, fmt.Errorf("assistant %s: %w", m.AssistantID, err)
	}

	created, err := s.store.Memories().Create(ctx, m)
	if err != nil {
		return nil, err
	}
	s.embedContent(ctx, created)
	s.log.Info().Str("memory_id", created.MemoryID).Str("assistant_id", created.AssistantID).Msg("memory created")
	return created, nil
}

// Get returns one memory and records the access.
func (s *MemoryService) Get(ctx context.Context, memoryID string) (*model.Memory, error) {
	m, err := s.store.Memories().Get(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Memories().RecordAccess(ctx, memoryID); err != nil {
		s.log.Warn().Err(err).Str("memory_id", memoryID).Msg("failed to record access")
	}
	return m, nil
}

// List returns memories matching the filter, newest first.
func (s *MemoryService) List(ctx context.Context, filter model.MemoryFilter) ([]*model.Memory, error) {
	return s.store.Memories().Find(ctx, filter)
}

// MemoryPatch carries the updatable memory fields; nil means unchanged.
type MemoryPatch struct {
	Content        *string   `json:"content,omitempty"`
	Summary        *string   `json:"summary,omitempty"`
	MemoryType     *string   `json:"memoryType,omitempty"`
	Importance     *int      `json:"importance,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
	Source         *string   `json:"source,omitempty"`
	Context        *string   `json:"context,omitempty"`
	IsShared       *bool     `json:"isShared,omitempty"`
	SharedCategory *string   `json:"sharedCategory,omitempty"`
}

// Update applies a partial update. Content changes replace the stored
// embeddings.
func (s *MemoryService) Update(ctx context.Context, memoryID string, patch MemoryPatch) (*model.Memory, error) {
	cur, err := s.store.Memories().Get(ctx, memoryID)
	if err != nil {
		return nil, err
	}

	contentChanged := false
	if patch.Content != nil {
		changed := strings.TrimSpace(*patch.Content)
		contentChanged = changed != cur.Content
		cur.Content = changed
	}
	if patch.Summary != nil {
		cur.Summary = patch.Summary
	}
	if patch.MemoryType != nil {
		cur.MemoryType = *patch.MemoryType
	}
	if patch.Importance != nil {
		cur.Importance = *patch.Importance
	}
	if patch.Tags != nil {
		cur.Tags = *patch.Tags
	}
	if patch.Source != nil {
		cur.Source = patch.Source
	}
	if patch.Context != nil {
		cur.Context = patch.Context
	}
	if patch.IsShared != nil {
		cur.IsShared = *patch.IsShared
	}
	if patch.SharedCategory != nil {
		cur.SharedCategory = patch.SharedCategory
	}
	if !cur.IsShared {
		cur.SharedCategory = nil
	}
	if err := validateMemory(cur); err != nil {
		return nil, err
	}

	updated, err := s.store.Memories().Update(ctx, cur)
	if err != nil {
		return nil, err
	}
	if contentChanged {
		if err := s.store.Embeddings().DeleteByMemory(ctx, memoryID); err != nil {
			s.log.Warn().Err(err).Str("memory_id", memoryID).Msg("failed to drop stale embeddings")
		}
		s.embedContent(ctx, updated)
	}
	return updated, nil
}

// Delete removes a memory; stored embeddings go with it.
func (s *MemoryService) Delete(ctx context.Context, memoryID string) error {
	if err := s.store.Memories().Delete(ctx, memoryID); err != nil {
		return err
	}
	s.log.Info().Str("memory_id", memoryID).Msg("memory deleted")
	return nil
}

// embedContent chunks and embeds a memory's content, persisting one vector
// per chunk. No-op when embeddings are unconfigured.
func (s *MemoryService) embedContent(ctx context.Context, m *model.Memory) {
	if !s.gateway.Configured() {
		return
	}
	chunks := textutil.Chunk(m.Content, embedChunkSize, embedChunkOverlap)
	results := s.gateway.EmbedBatch(ctx, chunks)
	stored := 0
	for _, r := range results {
		if r.Unavailable {
			continue
		}
		_, err := s.store.Embeddings().Put(ctx, &model.MemoryEmbedding{
			MemoryID: m.MemoryID,
			Vector:   r.Vector,
			Model:    s.gateway.Model(),
		})
		if err != nil {
			s.log.Warn().Err(err).Str("memory_id", m.MemoryID).Msg("failed to store embedding")
			continue
		}
		stored++
	}
	if stored < len(chunks) {
		s.log.Warn().Str("memory_id", m.MemoryID).Int("stored", stored).Int("chunks", len(chunks)).
			Msg("memory embedded partially")
	}
}

func validateMemory(m *model.Memory) error {
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("content must not be empty: %w", model.ErrValidation)
	}
	if m.AssistantID == "" {
		return fmt.Errorf("assistantId is required: %w", model.ErrValidation)
	}
	if m.MemoryType == "" {
		m.MemoryType = defaultMemoryType
	}
	if m.Importance == 0 {
		m.Importance = defaultImportance
	}
	if m.Importance < 1 || m.Importance > 10 {
		return fmt.Errorf("importance must be between 1 and 10: %w", model.ErrValidation)
	}
	if m.IsShared && (m.SharedCategory == nil || strings.TrimSpace(*m.SharedCategory) == "") {
		return fmt.Errorf("sharedCategory is required for shared memories: %w", model.ErrValidation)
	}
	if !m.IsShared && m.SharedCategory != nil {
		return fmt.Errorf("sharedCategory is only valid for shared memories: %w", model.ErrValidation)
	}
	return nil
}
