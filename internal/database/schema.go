package database

import (
	"context"
	"fmt"
)

// schemaStatements create the analysis tables. Every statement is
// idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS analysis_runs (
		id                UUID PRIMARY KEY,
		generated_at      TIMESTAMPTZ NOT NULL,
		total             INTEGER NOT NULL,
		valid             INTEGER NOT NULL,
		zero_trade        INTEGER NOT NULL,
		malformed         INTEGER NOT NULL,
		eligible          INTEGER NOT NULL,
		recommended       INTEGER NOT NULL,
		dropped           INTEGER NOT NULL,
		capital_committed NUMERIC NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_runs_generated_at ON analysis_runs (generated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS backtest_dispositions (
		run_id           UUID NOT NULL REFERENCES analysis_runs (id) ON DELETE CASCADE,
		position         INTEGER NOT NULL,
		lab_id           TEXT NOT NULL,
		backtest_id      TEXT NOT NULL,
		market           TEXT NOT NULL,
		script_name      TEXT NOT NULL,
		validity         TEXT NOT NULL,
		reason           TEXT NOT NULL,
		trade_count      INTEGER NOT NULL,
		roi_pct          DOUBLE PRECISION,
		win_rate_pct     DOUBLE PRECISION,
		profit_factor    TEXT,
		max_drawdown_pct DOUBLE PRECISION,
		score            INTEGER,
		classification   TEXT,
		eligible         BOOLEAN NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		id               UUID NOT NULL,
		run_id           UUID NOT NULL REFERENCES analysis_runs (id) ON DELETE CASCADE,
		rank             INTEGER NOT NULL,
		lab_id           TEXT NOT NULL,
		backtest_id      TEXT NOT NULL,
		bot_name         TEXT NOT NULL,
		script_name      TEXT NOT NULL,
		market           TEXT NOT NULL,
		score            INTEGER NOT NULL,
		roi_pct          DOUBLE PRECISION NOT NULL,
		win_rate_pct     DOUBLE PRECISION NOT NULL,
		max_drawdown_pct DOUBLE PRECISION NOT NULL,
		account_size     NUMERIC NOT NULL,
		trade_amount     NUMERIC NOT NULL,
		leverage         DOUBLE PRECISION NOT NULL,
		position_mode    TEXT NOT NULL,
		margin_mode      TEXT NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_identity ON recommendations (lab_id, backtest_id)`,
}

// EnsureSchema creates the analysis tables when they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
