package repository

import (
	"context"
	"database/sql"
)

// schemaDDL is portable across the two supported drivers; UUIDs and enums are
// stored as text, documents as serialized JSON.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS engagement (
		id           TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		status       TEXT NOT NULL,
		phase        INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS extraction_job (
		id                TEXT PRIMARY KEY,
		engagement_id     TEXT NOT NULL,
		artifact_name     TEXT NOT NULL,
		artifact_text     TEXT NOT NULL DEFAULT '',
		content_hash_hex  TEXT NOT NULL,
		category_hint     TEXT,
		status            TEXT NOT NULL,
		current_stage     TEXT,
		progress_step     INTEGER,
		progress_total    INTEGER,
		detected_category TEXT,
		retry_count       INTEGER NOT NULL DEFAULT 0,
		error_message     TEXT,
		created_at        TIMESTAMP NOT NULL,
		completed_at      TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_job_engagement ON extraction_job (engagement_id)`,
	`CREATE TABLE IF NOT EXISTS raw_extraction (
		id            TEXT PRIMARY KEY,
		job_id        TEXT NOT NULL,
		engagement_id TEXT NOT NULL,
		category      TEXT NOT NULL,
		stage         TEXT NOT NULL,
		raw_output    TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_extraction_job ON raw_extraction (job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_extraction_engagement ON raw_extraction (engagement_id)`,
	`CREATE TABLE IF NOT EXISTS atomic_fact (
		id                TEXT PRIMARY KEY,
		engagement_id     TEXT NOT NULL,
		source_session_id TEXT NOT NULL,
		fact_type         TEXT NOT NULL,
		content           TEXT NOT NULL,
		confidence        REAL NOT NULL DEFAULT 0,
		status            TEXT NOT NULL,
		structured_data   TEXT,
		created_at        TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_atomic_fact_engagement ON atomic_fact (engagement_id)`,
	`CREATE INDEX IF NOT EXISTS idx_atomic_fact_source ON atomic_fact (source_session_id)`,
	`CREATE TABLE IF NOT EXISTS saved_profile (
		engagement_id TEXT NOT NULL,
		kind          TEXT NOT NULL,
		doc           TEXT NOT NULL,
		updated_at    TIMESTAMP NOT NULL,
		PRIMARY KEY (engagement_id, kind)
	)`,
}

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
