package postgres

import (
	"context"
	"database/sql"
)

// ddl creates the service schema. Statements are idempotent so Bootstrap can
// run on every startup; production migrations are owned by deploy tooling.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS assistants (
        assistant_id  TEXT PRIMARY KEY,
        name          TEXT NOT NULL UNIQUE,
        personality   TEXT,
        is_active     BOOLEAN NOT NULL DEFAULT TRUE,
        creation_time TIMESTAMPTZ NOT NULL DEFAULT now(),
        update_time   TIMESTAMPTZ NOT NULL DEFAULT now()
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
        is_shared       BOOLEAN NOT NULL DEFAULT FALSE,
        shared_category TEXT,
        access_count    INTEGER NOT NULL DEFAULT 0,
        creation_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
        update_time     TIMESTAMPTZ NOT NULL DEFAULT now(),
        access_time     TIMESTAMPTZ
    )`,
	`CREATE INDEX IF NOT EXISTS ix_memories_assistant_type ON memories(assistant_id, memory_type)`,
	`CREATE INDEX IF NOT EXISTS ix_memories_importance ON memories(importance)`,
	`CREATE INDEX IF NOT EXISTS ix_memories_shared ON memories(is_shared, shared_category)`,
	`CREATE TABLE IF NOT EXISTS memory_embeddings (
        embedding_id     TEXT PRIMARY KEY,
        memory_id        TEXT NOT NULL REFERENCES memories(memory_id) ON DELETE CASCADE,
        embedding_vector TEXT,
        embedding_model  TEXT NOT NULL DEFAULT '',
        creation_time    TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS ix_memory_embeddings_memory ON memory_embeddings(memory_id)`,
	`CREATE TABLE IF NOT EXISTS search_logs (
        log_id            TEXT PRIMARY KEY,
        assistant_id      TEXT,
        query             TEXT NOT NULL,
        search_type       TEXT,
        result_count      INTEGER,
        execution_time_ms DOUBLE PRECISION,
        creation_time     TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS ix_search_logs_creation ON search_logs(creation_time)`,
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
