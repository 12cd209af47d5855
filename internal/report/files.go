package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/yourusername/lab-ranker/internal/models"
)

// Output formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatCSV     = "csv"
)

// DispositionRow is one CSV line per input backtest
type DispositionRow struct {
	LabID          string `csv:"lab_id"`
	BacktestID     string `csv:"backtest_id"`
	Market         string `csv:"market"`
	ScriptName     string `csv:"script_name"`
	Validity       string `csv:"validity"`
	Reason         string `csv:"reason"`
	Trades         int    `csv:"trades"`
	ROIPct         string `csv:"roi_pct"`
	WinRatePct     string `csv:"win_rate_pct"`
	ProfitFactor   string `csv:"profit_factor"`
	MaxDrawdownPct string `csv:"max_drawdown_pct"`
	Score          string `csv:"score"`
	Classification string `csv:"classification"`
	Eligible       bool   `csv:"eligible"`
}

// RecommendationRow is one CSV line per recommendation
type RecommendationRow struct {
	ID           string  `csv:"id"`
	Rank         int     `csv:"rank"`
	LabID        string  `csv:"lab_id"`
	BacktestID   string  `csv:"backtest_id"`
	BotName      string  `csv:"bot_name"`
	Market       string  `csv:"market"`
	Score        int     `csv:"score"`
	ROIPct       float64 `csv:"roi_pct"`
	WinRatePct   float64 `csv:"win_rate_pct"`
	DrawdownPct  float64 `csv:"max_drawdown_pct"`
	AccountSize  string  `csv:"account_size"`
	TradeAmount  string  `csv:"trade_amount"`
	Leverage     float64 `csv:"leverage"`
	PositionMode string  `csv:"position_mode"`
	MarginMode   string  `csv:"margin_mode"`
}

// DispositionRows flattens the dispositions of a report, in input order
func DispositionRows(report *models.Report) []*DispositionRow {
	rows := make([]*DispositionRow, 0, len(report.Dispositions))
	for _, disp := range report.Dispositions {
		rec := disp.Record
		row := &DispositionRow{
			LabID:      rec.Identity.LabID,
			BacktestID: rec.Identity.BacktestID,
			Market:     rec.Market,
			ScriptName: rec.ScriptName,
			Validity:   string(rec.Validity),
			Reason:     rec.Reason,
			Trades:     rec.TradeCount,
			Eligible:   disp.Eligible,
		}
		if m := disp.Metrics; m != nil {
			row.ROIPct = formatFloat(m.ROIPct)
			if wr, ok := m.WinRate(); ok {
				row.WinRatePct = formatFloat(wr)
			}
			if m.ProfitFactor.IsDefined() {
				row.ProfitFactor = m.ProfitFactor.String()
			}
			row.MaxDrawdownPct = formatFloat(m.MaxDrawdownPct)
			if score, ok := m.Scored(); ok {
				row.Score = strconv.Itoa(score)
				row.Classification = m.Classification.String()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// RecommendationRows flattens the recommendations of a report, by rank
func RecommendationRows(report *models.Report) []*RecommendationRow {
	rows := make([]*RecommendationRow, 0, len(report.Recommendations))
	for _, rec := range report.Recommendations {
		rows = append(rows, &RecommendationRow{
			ID:           rec.ID.String(),
			Rank:         rec.Rank,
			LabID:        rec.Identity.LabID,
			BacktestID:   rec.Identity.BacktestID,
			BotName:      rec.BotName,
			Market:       rec.Market,
			Score:        rec.Score,
			ROIPct:       rec.ROIPct,
			WinRatePct:   rec.WinRatePct,
			DrawdownPct:  rec.MaxDrawdownPct,
			AccountSize:  rec.AccountSize.String(),
			TradeAmount:  rec.TradeAmount.String(),
			Leverage:     rec.Leverage,
			PositionMode: string(rec.PositionMode),
			MarginMode:   string(rec.MarginMode),
		})
	}
	return rows
}

// WriteJSON writes the full report as indented JSON
func WriteJSON(report *models.Report, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// WriteCSV writes one row per disposition
func WriteCSV(report *models.Report, outputPath string) error {
	rows := DispositionRows(report)
	return writeRows(&rows, outputPath)
}

// WriteRecommendationsCSV writes one row per recommendation
func WriteRecommendationsCSV(report *models.Report, outputPath string) error {
	rows := RecommendationRows(report)
	return writeRows(&rows, outputPath)
}

// WriteAll writes the file formats among formats into dir and returns the
// paths written. The console format is not a file and is ignored here.
func WriteAll(report *models.Report, dir string, formats []string) ([]string, error) {
	base := filepath.Join(dir, "run-"+report.RunID.String())
	var written []string
	for _, format := range formats {
		switch format {
		case FormatJSON:
			path := base + ".json"
			if err := WriteJSON(report, path); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", path, err)
			}
			written = append(written, path)
		case FormatCSV:
			dispositions := base + "-dispositions.csv"
			if err := WriteCSV(report, dispositions); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", dispositions, err)
			}
			recommendations := base + "-recommendations.csv"
			if err := WriteRecommendationsCSV(report, recommendations); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", recommendations, err)
			}
			written = append(written, dispositions, recommendations)
		case FormatConsole:
		default:
			return written, fmt.Errorf("unknown report format %q", format)
		}
	}
	return written, nil
}

func writeRows(rows interface{}, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
