package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/yourusername/lab-ranker/internal/database"
	"github.com/yourusername/lab-ranker/internal/models"
)

const (
	errScanRun            = "failed to scan analysis run: %w"
	errScanRecommendation = "failed to scan recommendation: %w"
	errScanDisposition    = "failed to scan disposition: %w"
)

const (
	insertRunQuery = `
		INSERT INTO analysis_runs (
			id, generated_at, total, valid, zero_trade, malformed,
			eligible, recommended, dropped, capital_committed
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::numeric)
	`
	insertDispositionQuery = `
		INSERT INTO backtest_dispositions (
			run_id, position, lab_id, backtest_id, market, script_name, validity, reason,
			trade_count, roi_pct, win_rate_pct, profit_factor, max_drawdown_pct, score,
			classification, eligible
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`
	insertRecommendationQuery = `
		INSERT INTO recommendations (
			id, run_id, rank, lab_id, backtest_id, bot_name, script_name, market, score,
			roi_pct, win_rate_pct, max_drawdown_pct, account_size, trade_amount, leverage,
			position_mode, margin_mode
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13::numeric,$14::numeric,$15,$16,$17)
	`
)

// DispositionRow is one stored disposition. Metric columns are nil for
// malformed records; score and classification are nil unless scored.
type DispositionRow struct {
	RunID          uuid.UUID
	Position       int
	LabID          string
	BacktestID     string
	Market         string
	ScriptName     string
	Validity       models.Validity
	Reason         string
	TradeCount     int
	ROIPct         *float64
	WinRatePct     *float64
	ProfitFactor   *string
	MaxDrawdownPct *float64
	Score          *int
	Classification *string
	Eligible       bool
}

// PostgresAnalysisRunRepository implements AnalysisRunRepository for PostgreSQL
type PostgresAnalysisRunRepository struct {
	db *database.DB
}

// NewPostgresAnalysisRunRepository creates a new analysis run repository
func NewPostgresAnalysisRunRepository(db *database.DB) AnalysisRunRepository {
	return &PostgresAnalysisRunRepository{db: db}
}

// SaveRun stores the run header, every disposition and every
// recommendation in one transaction
func (r *PostgresAnalysisRunRepository) SaveRun(ctx context.Context, report *models.Report) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		s := report.Summary
		if _, err := tx.Exec(ctx, insertRunQuery,
			report.RunID, report.GeneratedAt, s.Total, s.Valid, s.ZeroTrade, s.Malformed,
			s.Eligible, s.Recommended, s.Dropped, s.CapitalCommitted.String(),
		); err != nil {
			return fmt.Errorf("failed to save analysis run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, row := range DispositionRows(report) {
			batch.Queue(insertDispositionQuery,
				row.RunID, row.Position, row.LabID, row.BacktestID, row.Market, row.ScriptName,
				string(row.Validity), row.Reason, row.TradeCount, row.ROIPct, row.WinRatePct,
				row.ProfitFactor, row.MaxDrawdownPct, row.Score, row.Classification, row.Eligible,
			)
		}
		for _, rec := range report.Recommendations {
			batch.Queue(insertRecommendationQuery,
				rec.ID, report.RunID, rec.Rank, rec.Identity.LabID, rec.Identity.BacktestID,
				rec.BotName, rec.ScriptName, rec.Market, rec.Score, rec.ROIPct, rec.WinRatePct,
				rec.MaxDrawdownPct, rec.AccountSize.String(), rec.TradeAmount.String(), rec.Leverage,
				string(rec.PositionMode), string(rec.MarginMode),
			)
		}
		if batch.Len() == 0 {
			return nil
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to save run rows: %w", err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.RunID, err)
	}
	return nil
}

// GetLatestRuns retrieves the most recent runs
func (r *PostgresAnalysisRunRepository) GetLatestRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	query := `
		SELECT id, generated_at, total, valid, zero_trade, malformed, eligible,
			recommended, dropped, capital_committed::text, created_at
		FROM analysis_runs ORDER BY generated_at DESC LIMIT $1
	`
	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AnalysisRun
	for rows.Next() {
		run := &models.AnalysisRun{}
		var capital string
		s := &run.Summary
		if err := rows.Scan(
			&run.ID, &run.GeneratedAt, &s.Total, &s.Valid, &s.ZeroTrade, &s.Malformed, &s.Eligible,
			&s.Recommended, &s.Dropped, &capital, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanRun, err)
		}
		if s.CapitalCommitted, err = decimal.NewFromString(capital); err != nil {
			return nil, fmt.Errorf(errScanRun, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRecommendations retrieves the recommendations of a run in rank order
func (r *PostgresAnalysisRunRepository) GetRecommendations(ctx context.Context, runID uuid.UUID) ([]models.Recommendation, error) {
	query := `
		SELECT id, rank, lab_id, backtest_id, bot_name, script_name, market, score,
			roi_pct, win_rate_pct, max_drawdown_pct, account_size::text, trade_amount::text,
			leverage, position_mode, margin_mode
		FROM recommendations WHERE run_id = $1 ORDER BY rank
	`
	rows, err := r.db.GetPool().Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		var rec models.Recommendation
		var accountSize, tradeAmount, positionMode, marginMode string
		if err := rows.Scan(
			&rec.ID, &rec.Rank, &rec.Identity.LabID, &rec.Identity.BacktestID, &rec.BotName,
			&rec.ScriptName, &rec.Market, &rec.Score, &rec.ROIPct, &rec.WinRatePct,
			&rec.MaxDrawdownPct, &accountSize, &tradeAmount, &rec.Leverage, &positionMode, &marginMode,
		); err != nil {
			return nil, fmt.Errorf(errScanRecommendation, err)
		}
		if rec.AccountSize, err = decimal.NewFromString(accountSize); err != nil {
			return nil, fmt.Errorf(errScanRecommendation, err)
		}
		if rec.TradeAmount, err = decimal.NewFromString(tradeAmount); err != nil {
			return nil, fmt.Errorf(errScanRecommendation, err)
		}
		rec.PositionMode = models.PositionMode(positionMode)
		rec.MarginMode = models.MarginMode(marginMode)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// GetDispositions retrieves the dispositions of a run in input order
func (r *PostgresAnalysisRunRepository) GetDispositions(ctx context.Context, runID uuid.UUID) ([]DispositionRow, error) {
	query := `
		SELECT run_id, position, lab_id, backtest_id, market, script_name, validity, reason,
			trade_count, roi_pct, win_rate_pct, profit_factor, max_drawdown_pct, score,
			classification, eligible
		FROM backtest_dispositions WHERE run_id = $1 ORDER BY position
	`
	rows, err := r.db.GetPool().Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispositions: %w", err)
	}
	defer rows.Close()

	var result []DispositionRow
	for rows.Next() {
		var row DispositionRow
		var validity string
		if err := rows.Scan(
			&row.RunID, &row.Position, &row.LabID, &row.BacktestID, &row.Market, &row.ScriptName,
			&validity, &row.Reason, &row.TradeCount, &row.ROIPct, &row.WinRatePct, &row.ProfitFactor,
			&row.MaxDrawdownPct, &row.Score, &row.Classification, &row.Eligible,
		); err != nil {
			return nil, fmt.Errorf(errScanDisposition, err)
		}
		row.Validity = models.Validity(validity)
		result = append(result, row)
	}
	return result, rows.Err()
}

// DispositionRows maps the dispositions of a report to stored rows, in
// input order
func DispositionRows(report *models.Report) []DispositionRow {
	rows := make([]DispositionRow, 0, len(report.Dispositions))
	for i, disp := range report.Dispositions {
		rec := disp.Record
		row := DispositionRow{
			RunID:      report.RunID,
			Position:   i,
			LabID:      rec.Identity.LabID,
			BacktestID: rec.Identity.BacktestID,
			Market:     rec.Market,
			ScriptName: rec.ScriptName,
			Validity:   rec.Validity,
			Reason:     rec.Reason,
			TradeCount: rec.TradeCount,
			Eligible:   disp.Eligible,
		}
		if m := disp.Metrics; m != nil {
			roi := m.ROIPct
			dd := m.MaxDrawdownPct
			row.ROIPct = &roi
			row.MaxDrawdownPct = &dd
			if wr, ok := m.WinRate(); ok {
				row.WinRatePct = &wr
			}
			if m.ProfitFactor.IsDefined() {
				pf := m.ProfitFactor.String()
				row.ProfitFactor = &pf
			}
			if score, ok := m.Scored(); ok {
				class := m.Classification.String()
				row.Score = &score
				row.Classification = &class
			}
		}
		rows = append(rows, row)
	}
	return rows
}
