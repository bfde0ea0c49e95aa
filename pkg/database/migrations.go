package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version int
	stmts   []string
}

// The schema sticks to types both SQLite and PostgreSQL accept. Nested values
// (syllabus trees, page ranges, videos) are stored as JSON text.
var migrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			)`,
			`CREATE TABLE IF NOT EXISTS plans (
				id                  TEXT PRIMARY KEY,
				name                TEXT NOT NULL,
				observations        TEXT NOT NULL DEFAULT '',
				cargo               TEXT NOT NULL DEFAULT '',
				edital              TEXT NOT NULL DEFAULT '',
				source_file         TEXT NOT NULL DEFAULT '',
				subjects            TEXT NOT NULL DEFAULT '[]',
				banca_topic_weights TEXT NOT NULL DEFAULT '{}',
				created_at          TIMESTAMP NOT NULL,
				updated_at          TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS study_records (
				id                TEXT PRIMARY KEY,
				plan_id           TEXT NOT NULL DEFAULT '',
				study_date        TEXT NOT NULL,
				subject           TEXT NOT NULL,
				topic             TEXT NOT NULL DEFAULT '',
				subject_id        TEXT NOT NULL DEFAULT '',
				topic_id          TEXT NOT NULL DEFAULT '',
				study_time_ms     BIGINT NOT NULL DEFAULT 0,
				questions_correct INTEGER NOT NULL DEFAULT 0,
				questions_total   INTEGER NOT NULL DEFAULT 0,
				pages             TEXT NOT NULL DEFAULT '[]',
				videos            TEXT NOT NULL DEFAULT '[]',
				notes             TEXT NOT NULL DEFAULT '',
				category          TEXT NOT NULL,
				review_periods    TEXT NOT NULL DEFAULT '[]',
				teoria_finalizada BOOLEAN NOT NULL DEFAULT FALSE,
				count_in_planning BOOLEAN NOT NULL DEFAULT TRUE,
				created_at        TIMESTAMP NOT NULL,
				updated_at        TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_study_records_subject_topic ON study_records (subject, topic)`,
			`CREATE INDEX IF NOT EXISTS idx_study_records_date ON study_records (study_date)`,
			`CREATE TABLE IF NOT EXISTS app_settings (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
}

// Migrate applies outstanding migrations in order, each inside its own transaction.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	if err := db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration v%d: %w", m.version, err)
		}
		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("applying migration v%d: %w", m.version, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", m.version, err)
		}
	}

	return nil
}
