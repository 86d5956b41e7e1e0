// Package store defines the persistence interface for the entity store.
// Implementations live under internal/store/<driver>/ (postgres, sqlite);
// storetest holds an in-memory fake for tests.
package store

import (
	"context"

	"github.com/esmlabs/extended-memory/internal/model"
)

// Store exposes persistence operations required by services and search.
type Store interface {
	Assistants() Assistants
	Memories() Memories
	Embeddings() Embeddings
	SearchLogs() SearchLogs
}

type Assistants interface {
	Create(ctx context.Context, a *model.Assistant) (*model.Assistant, error)
	Get(ctx context.Context, assistantID string) (*model.Assistant, error)
	GetByName(ctx context.Context, name string) (*model.Assistant, error)
	List(ctx context.Context) ([]*model.Assistant, error)
	Update(ctx context.Context, a *model.Assistant) (*model.Assistant, error)
	Deactivate(ctx context.Context, assistantID string) error
}

type Memories interface {
	Create(ctx context.Context, m *model.Memory) (*model.Memory, error)
	Get(ctx context.Context, memoryID string) (*model.Memory, error)
	Find(ctx context.Context, f model.MemoryFilter) ([]*model.Memory, error)
	Update(ctx context.Context, m *model.Memory) (*model.Memory, error)
	Delete(ctx context.Context, memoryID string) error
	RecordAccess(ctx context.Context, memoryID string) error
}

type Embeddings interface {
	Put(ctx context.Context, e *model.MemoryEmbedding) (*model.MemoryEmbedding, error)
	// FindWithMemories returns memory/embedding pairs for candidates matching
	// the filter. Keyword constraints in the filter are ignored here; the
	// semantic engine scores by vector similarity instead.
	FindWithMemories(ctx context.Context, f model.MemoryFilter) ([]*model.EmbeddedMemory, error)
	DeleteByMemory(ctx context.Context, memoryID string) error
}

type SearchLogs interface {
	Record(ctx context.Context, l *model.SearchLog) error
	// Suggestions returns distinct recent queries containing q, newest first.
	Suggestions(ctx context.Context, q, assistantID string, limit int) ([]string, error)
	Recent(ctx context.Context, assistantID string, limit int) ([]*model.SearchLog, error)
}
