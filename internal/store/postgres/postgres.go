// Package postgres implements store.Store over PostgreSQL using the pgx
// stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Assistants() store.Assistants { return &assistants{db: s.db} }
func (s *pgStore) Memories() store.Memories     { return &memories{db: s.db} }
func (s *pgStore) Embeddings() store.Embeddings { return &embeddings{db: s.db} }
func (s *pgStore) SearchLogs() store.SearchLogs { return &searchLogs{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Assistants ---

type assistants struct{ db *sql.DB }

func (a *assistants) Create(ctx context.Context, m *model.Assistant) (*model.Assistant, error) {
	id := m.AssistantID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := a.db.QueryRowContext(ctx, `
        INSERT INTO assistants (assistant_id, name, personality, is_active)
        VALUES ($1,$2,$3,TRUE)
        RETURNING creation_time
    `, id, m.Name, m.Personality)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("assistant %q: %w", m.Name, model.ErrConflict)
		}
		return nil, err
	}
	out := *m
	out.AssistantID = id
	out.IsActive = true
	out.CreationTime = created
	out.UpdateTime = created
	return &out, nil
}

func (a *assistants) Get(ctx context.Context, assistantID string) (*model.Assistant, error) {
	row := a.db.QueryRowContext(ctx, `
        SELECT assistant_id, name, personality, is_active, creation_time, update_time
        FROM assistants WHERE assistant_id=$1
    `, assistantID)
	return scanAssistant(row)
}

func (a *assistants) GetByName(ctx context.Context, name string) (*model.Assistant, error) {
	row := a.db.QueryRowContext(ctx, `
        SELECT assistant_id, name, personality, is_active, creation_time, update_time
        FROM assistants WHERE name=$1
    `, name)
	return scanAssistant(row)
}

func (a *assistants) List(ctx context.Context) ([]*model.Assistant, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT assistant_id, name, personality, is_active, creation_time, update_time
        FROM assistants ORDER BY creation_time DESC
    `)
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
        UPDATE assistants SET name=$2, personality=$3, is_active=$4, update_time=now()
        WHERE assistant_id=$1
    `, m.AssistantID, m.Name, m.Personality, m.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
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
        UPDATE assistants SET is_active=FALSE, update_time=now() WHERE assistant_id=$1
    `, assistantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

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

// Columns are table-qualified so the same list works in the embeddings join.
const memoryCols = `memories.memory_id, memories.assistant_id, memories.content,
        memories.summary, memories.memory_type, memories.importance, memories.tags,
        memories.source, memories.context, memories.is_shared, memories.shared_category,
        memories.access_count, memories.creation_time, memories.update_time, memories.access_time`

func (m *memories) Create(ctx context.Context, in *model.Memory) (*model.Memory, error) {
	id := in.MemoryID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := m.db.QueryRowContext(ctx, `
        INSERT INTO memories (memory_id, assistant_id, content, summary, memory_type,
            importance, tags, source, context, is_shared, shared_category)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING creation_time
    `, id, in.AssistantID, in.Content, in.Summary, in.MemoryType, in.Importance,
		joinTags(in.Tags), in.Source, in.Context, in.IsShared, in.SharedCategory)
	if err := row.Scan(&created); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("assistant %s: %w", in.AssistantID, model.ErrNotFound)
		}
		return nil, err
	}
	out := *in
	out.MemoryID = id
	out.CreationTime = created
	out.UpdateTime = created
	return &out, nil
}

func (m *memories) Get(ctx context.Context, memoryID string) (*model.Memory, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+memoryCols+` FROM memories WHERE memory_id=$1`, memoryID)
	return scanMemory(row)
}

func (m *memories) Find(ctx context.Context, f model.MemoryFilter) ([]*model.Memory, error) {
	where, args := buildFilter(f, 0)
	q := `SELECT ` + memoryCols + ` FROM memories` + where + ` ORDER BY memories.creation_time DESC, memories.memory_id ASC`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Memory
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mem)
	}
	return out, rows.Err()
}

func (m *memories) Update(ctx context.Context, in *model.Memory) (*model.Memory, error) {
	res, err := m.db.ExecContext(ctx, `
        UPDATE memories SET content=$2, summary=$3, memory_type=$4, importance=$5,
            tags=$6, source=$7, context=$8, is_shared=$9, shared_category=$10,
            update_time=now()
        WHERE memory_id=$1
    `, in.MemoryID, in.Content, in.Summary, in.MemoryType, in.Importance,
		joinTags(in.Tags), in.Source, in.Context, in.IsShared, in.SharedCategory)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return m.Get(ctx, in.MemoryID)
}

func (m *memories) Delete(ctx context.Context, memoryID string) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM memories WHERE memory_id=$1`, memoryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (m *memories) RecordAccess(ctx context.Context, memoryID string) error {
	_, err := m.db.ExecContext(ctx, `
        UPDATE memories SET access_count=access_count+1, access_time=now() WHERE memory_id=$1
    `, memoryID)
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
	var created time.Time
	row := e.db.QueryRowContext(ctx, `
        INSERT INTO memory_embeddings (embedding_id, memory_id, embedding_vector, embedding_model)
        VALUES ($1,$2,$3,$4)
        RETURNING creation_time
    `, id, in.MemoryID, string(vec), in.Model)
	if err := row.Scan(&created); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("memory %s: %w", in.MemoryID, model.ErrNotFound)
		}
		return nil, err
	}
	out := *in
	out.EmbeddingID = id
	out.CreationTime = created
	return &out, nil
}

func (e *embeddings) FindWithMemories(ctx context.Context, f model.MemoryFilter) ([]*model.EmbeddedMemory, error) {
	f.Keywords = nil
	where, args := buildFilter(f, 0)
	q := `SELECT ` + memoryCols + `, e.embedding_id, e.embedding_vector, e.embedding_model, e.creation_time
        FROM memories JOIN memory_embeddings e ON e.memory_id = memories.memory_id` + where
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
			// Undecodable vectors are kept as nil; the semantic engine skips
			// them per-item instead of failing the whole query.
			_ = json.Unmarshal([]byte(*rawVec), &emb.Vector)
		}
		out = append(out, &model.EmbeddedMemory{Memory: &mem, Embedding: &emb})
	}
	return out, rows.Err()
}

func (e *embeddings) DeleteByMemory(ctx context.Context, memoryID string) error {
	_, err := e.db.ExecContext(ctx, `DELETE FROM memory_embeddings WHERE memory_id=$1`, memoryID)
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
        INSERT INTO search_logs (log_id, assistant_id, query, search_type, result_count, execution_time_ms)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, id, l.AssistantID, l.Query, string(l.SearchType), l.ResultCount, l.ExecutionTimeMs)
	return err
}

func (s *searchLogs) Suggestions(ctx context.Context, q, assistantID string, limit int) ([]string, error) {
	query := `
        SELECT query FROM search_logs
        WHERE lower(query) LIKE $1`
	args := []any{"%" + strings.ToLower(q) + "%"}
	if assistantID != "" {
		query += ` AND assistant_id=$2`
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
		query += ` WHERE assistant_id=$1`
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

// buildFilter renders a WHERE clause for a MemoryFilter. startArg is the
// number of placeholders already consumed by the caller.
func buildFilter(f model.MemoryFilter, startArg int) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", startArg+len(args))
	}

	if f.AssistantID != "" {
		if f.IncludeShared {
			conds = append(conds, fmt.Sprintf("(memories.assistant_id=%s OR memories.is_shared=TRUE)", arg(f.AssistantID)))
		} else {
			conds = append(conds, "memories.assistant_id="+arg(f.AssistantID))
		}
	}
	if f.MemoryType != "" {
		conds = append(conds, "memories.memory_type="+arg(f.MemoryType))
	}
	if f.MinImportance > 0 {
		conds = append(conds, "memories.importance>="+arg(f.MinImportance))
	}
	for _, tag := range f.Tags {
		conds = append(conds, "lower(coalesce(memories.tags,'')) LIKE "+arg("%"+strings.ToLower(tag)+"%"))
	}
	if f.DateFrom != nil {
		conds = append(conds, "memories.creation_time>="+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "memories.creation_time<="+arg(*f.DateTo))
	}
	if len(f.Keywords) > 0 {
		var kw []string
		for _, k := range f.Keywords {
			p := arg("%" + strings.ToLower(k) + "%")
			kw = append(kw, fmt.Sprintf(
				"(lower(memories.content) LIKE %s OR lower(coalesce(memories.summary,'')) LIKE %s OR lower(coalesce(memories.tags,'')) LIKE %s)",
				p, p, p))
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

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}
