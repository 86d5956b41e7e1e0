// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store"
)

// Fake is a map-backed store.Store. Safe for concurrent use.
type Fake struct {
	mu         sync.Mutex
	assistants map[string]*model.Assistant
	memories   map[string]*model.Memory
	embeddings map[string]*model.MemoryEmbedding
	logs       []*model.SearchLog
}

// New returns an empty fake store.
func New() *Fake {
	return &Fake{
		assistants: make(map[string]*model.Assistant),
		memories:   make(map[string]*model.Memory),
		embeddings: make(map[string]*model.MemoryEmbedding),
	}
}

func (f *Fake) Assistants() store.Assistants { return (*fakeAssistants)(f) }
func (f *Fake) Memories() store.Memories     { return (*fakeMemories)(f) }
func (f *Fake) Embeddings() store.Embeddings { return (*fakeEmbeddings)(f) }
func (f *Fake) SearchLogs() store.SearchLogs { return (*fakeSearchLogs)(f) }

// HealthPing implements health.HealthPinger.
func (f *Fake) HealthPing(context.Context) error { return nil }

// SeedMemory inserts a memory, minting an ID when absent.
func (f *Fake) SeedMemory(m *model.Memory) *model.Memory {
	out, _ := f.Memories().Create(context.Background(), m)
	return out
}

// SeedEmbedding inserts an embedding for an existing memory.
func (f *Fake) SeedEmbedding(memoryID string, vec []float32) {
	_, _ = f.Embeddings().Put(context.Background(), &model.MemoryEmbedding{
		MemoryID: memoryID,
		Vector:   vec,
	})
}

type fakeAssistants Fake

func (f *fakeAssistants) Create(_ context.Context, m *model.Assistant) (*model.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assistants {
		if a.Name == m.Name {
			return nil, fmt.Errorf("assistant %q: %w", m.Name, model.ErrConflict)
		}
	}
	out := *m
	if out.AssistantID == "" {
		out.AssistantID = uuid.New().String()
	}
	out.IsActive = true
	out.CreationTime = time.Now().UTC()
	out.UpdateTime = out.CreationTime
	f.assistants[out.AssistantID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeAssistants) Get(_ context.Context, id string) (*model.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assistants[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssistants) GetByName(_ context.Context, name string) (*model.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assistants {
		if a.Name == name {
			cp := *a
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeAssistants) List(_ context.Context) ([]*model.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Assistant, 0, len(f.assistants))
	for _, a := range f.assistants {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreationTime.After(out[j].CreationTime) })
	return out, nil
}

func (f *fakeAssistants) Update(_ context.Context, m *model.Assistant) (*model.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.assistants[m.AssistantID]
	if !ok {
		return nil, model.ErrNotFound
	}
	upd := *m
	upd.CreationTime = cur.CreationTime
	upd.UpdateTime = time.Now().UTC()
	f.assistants[m.AssistantID] = &upd
	cp := upd
	return &cp, nil
}

func (f *fakeAssistants) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assistants[id]
	if !ok {
		return model.ErrNotFound
	}
	a.IsActive = false
	a.UpdateTime = time.Now().UTC()
	return nil
}

type fakeMemories Fake

func (f *fakeMemories) Create(_ context.Context, in *model.Memory) (*model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *in
	if out.MemoryID == "" {
		out.MemoryID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	out.UpdateTime = out.CreationTime
	f.memories[out.MemoryID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeMemories) Get(_ context.Context, id string) (*model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memories[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemories) Find(_ context.Context, filt model.MemoryFilter) ([]*model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Memory
	for _, m := range f.memories {
		if matches(m, filt) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreationTime.Equal(out[j].CreationTime) {
			return out[i].CreationTime.After(out[j].CreationTime)
		}
		return out[i].MemoryID < out[j].MemoryID
	})
	if filt.Limit > 0 && len(out) > filt.Limit {
		out = out[:filt.Limit]
	}
	return out, nil
}

func (f *fakeMemories) Update(_ context.Context, in *model.Memory) (*model.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.memories[in.MemoryID]
	if !ok {
		return nil, model.ErrNotFound
	}
	upd := *in
	upd.CreationTime = cur.CreationTime
	upd.AccessCount = cur.AccessCount
	upd.AccessTime = cur.AccessTime
	upd.UpdateTime = time.Now().UTC()
	f.memories[in.MemoryID] = &upd
	cp := upd
	return &cp, nil
}

func (f *fakeMemories) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.memories[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.memories, id)
	for eid, e := range f.embeddings {
		if e.MemoryID == id {
			delete(f.embeddings, eid)
		}
	}
	return nil
}

func (f *fakeMemories) RecordAccess(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memories[id]
	if !ok {
		return nil
	}
	m.AccessCount++
	now := time.Now().UTC()
	m.AccessTime = &now
	return nil
}

type fakeEmbeddings Fake

func (f *fakeEmbeddings) Put(_ context.Context, in *model.MemoryEmbedding) (*model.MemoryEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.memories[in.MemoryID]; !ok {
		return nil, fmt.Errorf("memory %s: %w", in.MemoryID, model.ErrNotFound)
	}
	out := *in
	if out.EmbeddingID == "" {
		out.EmbeddingID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	f.embeddings[out.EmbeddingID] = &out
	cp := out
	return &cp, nil
}

func (f *fakeEmbeddings) FindWithMemories(_ context.Context, filt model.MemoryFilter) ([]*model.EmbeddedMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	filt.Keywords = nil
	var out []*model.EmbeddedMemory
	for _, e := range f.embeddings {
		m, ok := f.memories[e.MemoryID]
		if !ok || !matches(m, filt) {
			continue
		}
		mc, ec := *m, *e
		out = append(out, &model.EmbeddedMemory{Memory: &mc, Embedding: &ec})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Embedding.EmbeddingID < out[j].Embedding.EmbeddingID
	})
	return out, nil
}

func (f *fakeEmbeddings) DeleteByMemory(_ context.Context, memoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.embeddings {
		if e.MemoryID == memoryID {
			delete(f.embeddings, id)
		}
	}
	return nil
}

type fakeSearchLogs Fake

func (f *fakeSearchLogs) Record(_ context.Context, l *model.SearchLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	if cp.LogID == "" {
		cp.LogID = uuid.New().String()
	}
	cp.CreationTime = time.Now().UTC()
	f.logs = append(f.logs, &cp)
	return nil
}

func (f *fakeSearchLogs) Suggestions(_ context.Context, q, assistantID string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for i := len(f.logs) - 1; i >= 0; i-- {
		l := f.logs[i]
		if assistantID != "" && (l.AssistantID == nil || *l.AssistantID != assistantID) {
			continue
		}
		if !strings.Contains(strings.ToLower(l.Query), strings.ToLower(q)) || seen[l.Query] {
			continue
		}
		seen[l.Query] = true
		out = append(out, l.Query)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSearchLogs) Recent(_ context.Context, assistantID string, limit int) ([]*model.SearchLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.SearchLog
	for i := len(f.logs) - 1; i >= 0; i-- {
		l := f.logs[i]
		if assistantID != "" && (l.AssistantID == nil || *l.AssistantID != assistantID) {
			continue
		}
		cp := *l
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Logs returns a snapshot of recorded search logs, oldest first.
func (f *Fake) Logs() []*model.SearchLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.SearchLog, len(f.logs))
	copy(out, f.logs)
	return out
}

func matches(m *model.Memory, f model.MemoryFilter) bool {
	if f.AssistantID != "" {
		if m.AssistantID != f.AssistantID && !(f.IncludeShared && m.IsShared) {
			return false
		}
	}
	if f.MemoryType != "" && m.MemoryType != f.MemoryType {
		return false
	}
	if f.MinImportance > 0 && m.Importance < f.MinImportance {
		return false
	}
	joined := strings.ToLower(strings.Join(m.Tags, ","))
	for _, t := range f.Tags {
		if !strings.Contains(joined, strings.ToLower(t)) {
			return false
		}
	}
	if f.DateFrom != nil && m.CreationTime.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && m.CreationTime.After(*f.DateTo) {
		return false
	}
	if len(f.Keywords) > 0 {
		hay := strings.ToLower(m.Content)
		if m.Summary != nil {
			hay += " " + strings.ToLower(*m.Summary)
		}
		hay += " " + joined
		hit := false
		for _, k := range f.Keywords {
			if strings.Contains(hay, strings.ToLower(k)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
