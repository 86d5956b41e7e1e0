// Package sqlite implements store.Store over modernc.org/sqlite for the
// local build target. Timestamps are written from Go so they round-trip as
// time.Time through the driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store"
)

// Open opens (and creates if needed) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer; avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS assistants (
        assistant_id  TEXT PRIMARY KEY,
        name          TEXT NOT NULL UNIQUE,
        personality   TEXT,
        is_active     INTEGER NOT NULL DEFAULT 1,
        creation_time TIMESTAMP NOT NULL,
        update_time   TIMESTAMP NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS memories (
        memory_id       TEXT PRIMARY KEY,
        assistant_id    TEXT NOT NULL REFERENCES assistants(assistant_id),
        content         TEXT NOT NULL,
        summary         TEXT,
        memory_type     TEXT NOT NULL DEFAULT 'general',
        importance      INTEGER NOT NULL DEFAULT 5,
        tags            TEXT,
        source          TEXT,
        context         TEXT,
        is_shared       INTEGER NOT NULL DEFAULT 0,
        shared_category TEXT,
        access_count    INTEGER NOT NULL DEFAULT 0,
        creation_time   TIMESTAMP NOT NULL,
        update_time     TIMESTAMP NOT NULL,
        access_time     TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS memory_embeddings (
        embedding_id     TEXT PRIMARY KEY,
        memory_id        TEXT NOT NULL REFERENCES memories(memory_id) ON DELETE CASCADE,
        embedding_vector TEXT,
        embedding_model  TEXT NOT NULL DEFAULT '',
        creation_time    TIMESTAMP NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS search_logs (
        log_id            TEXT PRIMARY KEY,
        assistant_id      TEXT,
        query             TEXT NOT NULL,
        search_type       TEXT,
        result_count      INTEGER,
        execution_time_ms REAL,
        creation_time     TIMESTAMP NOT NULL
    )`,
}

// Bootstrap ensures the schema exists.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// NewWithDB constructs a SQLite store backed by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &liteStore{db: db} }

type liteStore struct{ db *sql.DB }

func (s *liteStore) Assistants() store.Assistants { return &assistants{db: s.db} }
func (s *liteStore) Memories() store.Memories     { return &memories{db: s.db} }
func (s *liteStore) Embeddings() store.Embeddings { return &embeddings{db: s.db} }
func (s *liteStore) SearchLogs() store.SearchLogs { return &searchLogs{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *liteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface{ Scan(dest ...any) error }

// --- Assistants ---

type assistants struct{ db *sql.DB }

func (a *assistants) Create(ctx context.Context, m *model.Assistant) (*model.Assistant, error) {
	id := m.AssistantID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := a.db.ExecContext(ctx, `
        INSERT INTO assistants (assistant_id, name, personality, is_active, creation_time, update_time)
        VALUES (?,?,?,1,?,?)
    `, id, m.Name, m.Personality, now, now)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("assistant %q: %w", m.Name, model.ErrConflict)
		}
		return nil, err
	}
	out := *m
	out.AssistantID = id
	out.IsActive = true
	out.CreationTime = now
	out.UpdateTime = now
	return &out, nil
}

func (a *assistants) Get(ctx context.Context, assistantID string) (*model.Assistant, error) {
	return scanAssistant(a.db.QueryRowContext(ctx, `
        SELECT assistant_id, name, personality, is_active, creation_time, update_time
        FROM assistants WHERE assistant_id=?`, assistantID))
}

func (a *assistants) GetByName(ctx context.Context, name string) (*model.Assistant, error) {
	return scanAssistant(a.db.QueryRowContext(ctx, `
        SELECT assistant_id, name, personality, is_active, creation_time, update_time
        FROM assistants WHERE name=?`, name))
}

func (a *assistants) List(ctx context.Context) ([]*model.Assistant, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT assistant_id, name, personality, is_active, creation_time, update_time
        FROM assistants ORDER BY creation_time DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Assistant
	for rows.Next() {
		m, err := scanAssistant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (a *assistants) Update(ctx context.Context, m *model.Assistant) (*model.Assistant, error) {
	res, err := a.db.ExecContext(ctx, `
        UPDATE assistants SET name=?, personality=?, is_active=?, update_time=?
        WHERE assistant_id=?
    `, m.Name, m.Personality, m.IsActive, time.Now().UTC(), m.AssistantID)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("assistant %q: %w", m.Name, model.ErrConflict)
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return a.Get(ctx, m.AssistantID)
}

func (a *assistants) Deactivate(ctx context.Context, assistantID string) error {
	res, err := a.db.ExecContext(ctx, `
        UPDATE assistants SET is_active=0, update_time=? WHERE assistant_id=?
    `, time.Now().UTC(), assistantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanAssistant(r rowScanner) (*model.Assistant, error) {
	var out model.Assistant
	if err := r.Scan(&out.AssistantID, &out.Name, &out.Personality, &out.IsActive, &out.CreationTime, &out.UpdateTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// --- Memories ---

type memories struct{ db *sql.DB }

const memoryCols = `m.memory_id, m.assistant_id, m.content, m.summary, m.memory_type,
        m.importance, m.tags, m.source, m.context, m.is_shared, m.shared_category,
        m.access_count, m.creation_time, m.update_time, m.access_time`

func (s *memories) Create(ctx context.Context, in *model.Memory) (*model.Memory, error) {
	id := in.MemoryID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO memories (memory_id, assistant_id, content, summary, memory_type,
            importance, tags, source, context, is_shared, shared_category,
            creation_time, update_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
    `, id, in.AssistantID, in.Content, in.Summary, in.MemoryType, in.Importance,
		joinTags(in.Tags), in.Source, in.Context, in.IsShared, in.SharedCategory, now, now)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("assistant %s: %w", in.AssistantID, model.ErrNotFound)
		}
		return nil, err
	}
	out := *in
	out.MemoryID = id
	out.CreationTime = now
	out.UpdateTime = now
	return &out, nil
}

func (s *memories) Get(ctx context.Context, memoryID string) (*model.Memory, error) {
	return scanMemory(s.db.QueryRowContext(ctx,
		`SELECT `+memoryCols+` FROM memories m WHERE m.memory_id=?`, memoryID))
}

func (s *memories) Find(ctx context.Context, f model.MemoryFilter) ([]*model.Memory, error) {
	where, args := buildFilter(f)
	q := `SELECT ` + memoryCols + ` FROM memories m` + where + ` ORDER BY m.creation_time DESC, m.memory_id ASC`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *memories) Update(ctx context.Context, in *model.Memory) (*model.Memory, error) {
	res, err := s.db.ExecContext(ctx, `
        UPDATE memories SET content=?, summary=?, memory_type=?, importance=?,
            tags=?, source=?, context=?, is_shared=?, shared_category=?, update_time=?
        WHERE memory_id=?
    `, in.Content, in.Summary, in.MemoryType, in.Importance, joinTags(in.Tags),
		in.Source, in.Context, in.IsShared, in.SharedCategory, time.Now().UTC(), in.MemoryID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return s.Get(ctx, in.MemoryID)
}

func (s *memories) Delete(ctx context.Context, memoryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE memory_id=?`, memoryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *memories) RecordAccess(ctx context.Context, memoryID string) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE memories SET access_count=access_count+1, access_time=? WHERE memory_id=?
    `, time.Now().UTC(), memoryID)
	return err
}

func scanMemory(r rowScanner) (*model.Memory, error) {
	var out model.Memory
	var tags *string
	if err := r.Scan(&out.MemoryID, &out.AssistantID, &out.Content, &out.Summary,
		&out.MemoryType, &out.Importance, &tags, &out.Source, &out.Context,
		&out.IsShared, &out.SharedCategory, &out.AccessCount,
		&out.CreationTime, &out.UpdateTime, &out.AccessTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	out.Tags = splitTags(tags)
	return &out, nil
}

// --- Embeddings ---

type embeddings struct{ db *sql.DB }

func (e *embeddings) Put(ctx context.Context, in *model.MemoryEmbedding) (*model.MemoryEmbedding, error) {
	id := in.EmbeddingID
	if id == "" {
		id = uuid.New().String()
	}
	vec, err := json.Marshal(in.Vector)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if _, err := e.db.ExecContext(ctx, `
        INSERT INTO memory_embeddings (embedding_id, memory_id, embedding_vector, embedding_model, creation_time)
        VALUES (?,?,?,?,?)
    `, id, in.MemoryID, string(vec), in.Model, now); err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("memory %s: %w", in.MemoryID, model.ErrNotFound)
		}
		return nil, err
	}
	out := *in
	out.EmbeddingID = id
	out.CreationTime = now
	return &out, nil
}

func (e *embeddings) FindWithMemories(ctx context.Context, f model.MemoryFilter) ([]*model.EmbeddedMemory, error) {
	f.Keywords = nil
	where, args := buildFilter(f)
	q := `SELECT ` + memoryCols + `, e.embedding_id, e.embedding_vector, e.embedding_model, e.creation_time
        FROM memories m JOIN memory_embeddings e ON e.memory_id = m.memory_id` + where
	rows, err := e.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.EmbeddedMemory
	for rows.Next() {
		var mem model.Memory
		var tags, rawVec *string
		var emb model.MemoryEmbedding
		if err := rows.Scan(&mem.MemoryID, &mem.AssistantID, &mem.Content, &mem.Summary,
			&mem.MemoryType, &mem.Importance, &tags, &mem.Source, &mem.Context,
			&mem.IsShared, &mem.SharedCategory, &mem.AccessCount,
			&mem.CreationTime, &mem.UpdateTime, &mem.AccessTime,
			&emb.EmbeddingID, &rawVec, &emb.Model, &emb.CreationTime); err != nil {
			return nil, err
		}
		mem.Tags = splitTags(tags)
		emb.MemoryID = mem.MemoryID
		if rawVec != nil {
			_ = json.Unmarshal([]byte(*rawVec), &emb.Vector)
		}
		out = append(out, &model.EmbeddedMemory{Memory: &mem, Embedding: &emb})
	}
	return out, rows.Err()
}

func (e *embeddings) DeleteByMemory(ctx context.Context, memoryID string) error {
	_, err := e.db.ExecContext(ctx, `DELETE FROM memory_embeddings WHERE memory_id=?`, memoryID)
	return err
}

// --- SearchLogs ---

type searchLogs struct{ db *sql.DB }

func (s *searchLogs) Record(ctx context.Context, l *model.SearchLog) error {
	id := l.LogID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO search_logs (log_id, assistant_id, query, search_type, result_count, execution_time_ms, creation_time)
        VALUES (?,?,?,?,?,?,?)
    `, id, l.AssistantID, l.Query, string(l.SearchType), l.ResultCount, l.ExecutionTimeMs, time.Now().UTC())
	return err
}

func (s *searchLogs) Suggestions(ctx context.Context, q, assistantID string, limit int) ([]string, error) {
	query := `SELECT query FROM search_logs WHERE lower(query) LIKE ?`
	args := []any{"%" + strings.ToLower(q) + "%"}
	if assistantID != "" {
		query += ` AND assistant_id=?`
		args = append(args, assistantID)
	}
	query += ` GROUP BY query ORDER BY max(creation_time) DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *searchLogs) Recent(ctx context.Context, assistantID string, limit int) ([]*model.SearchLog, error) {
	query := `
        SELECT log_id, assistant_id, query, search_type, result_count, execution_time_ms, creation_time
        FROM search_logs`
	var args []any
	if assistantID != "" {
		query += ` WHERE assistant_id=?`
		args = append(args, assistantID)
	}
	query += ` ORDER BY creation_time DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.SearchLog
	for rows.Next() {
		var l model.SearchLog
		var st string
		if err := rows.Scan(&l.LogID, &l.AssistantID, &l.Query, &st, &l.ResultCount, &l.ExecutionTimeMs, &l.CreationTime); err != nil {
			return nil, err
		}
		l.SearchType = model.SearchMode(st)
		out = append(out, &l)
	}
	return out, rows.Err()
}

// --- helpers ---

func buildFilter(f model.MemoryFilter) (string, []any) {
	var conds []string
	var args []any

	if f.AssistantID != "" {
		if f.IncludeShared {
			conds = append(conds, "(m.assistant_id=? OR m.is_shared=1)")
		} else {
			conds = append(conds, "m.assistant_id=?")
		}
		args = append(args, f.AssistantID)
	}
	if f.MemoryType != "" {
		conds = append(conds, "m.memory_type=?")
		args = append(args, f.MemoryType)
	}
	if f.MinImportance > 0 {
		conds = append(conds, "m.importance>=?")
		args = append(args, f.MinImportance)
	}
	for _, tag := range f.Tags {
		conds = append(conds, "lower(coalesce(m.tags,'')) LIKE ?")
		args = append(args, "%"+strings.ToLower(tag)+"%")
	}
	if f.DateFrom != nil {
		conds = append(conds, "m.creation_time>=?")
		args = append(args, (*f.DateFrom).UTC())
	}
	if f.DateTo != nil {
		conds = append(conds, "m.creation_time<=?")
		args = append(args, (*f.DateTo).UTC())
	}
	if len(f.Keywords) > 0 {
		var kw []string
		for _, k := range f.Keywords {
			kw = append(kw, "(lower(m.content) LIKE ? OR lower(coalesce(m.summary,'')) LIKE ? OR lower(coalesce(m.tags,'')) LIKE ?)")
			p := "%" + strings.ToLower(k) + "%"
			args = append(args, p, p, p)
		}
		conds = append(conds, "("+strings.Join(kw, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func joinTags(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	s := strings.Join(tags, ",")
	return &s
}

func splitTags(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	parts := strings.Split(*s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "CONSTRAINT")
}
