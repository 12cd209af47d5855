// Package report renders analysis reports for terminals and files.
package report

import (
	"fmt"
	"strings"

	"github.com/yourusername/lab-ranker/internal/models"
)

// ConsoleReport formats a run for terminal output
func ConsoleReport(report *models.Report) string {
	var b strings.Builder
	s := report.Summary

	b.WriteString("Lab Ranker Report\n")
	b.WriteString("=================\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", report.RunID))
	b.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST")))
	b.WriteString(fmt.Sprintf("Backtests: %d (valid %d, zero-trade %d, malformed %d)\n", s.Total, s.Valid, s.ZeroTrade, s.Malformed))
	b.WriteString(fmt.Sprintf("Eligible: %d\n", s.Eligible))
	b.WriteString(fmt.Sprintf("Recommended: %d (dropped %d), capital committed %s\n", s.Recommended, s.Dropped, s.CapitalCommitted.StringFixed(2)))

	if len(report.Recommendations) > 0 {
		b.WriteString("\nRecommendations\n")
		b.WriteString(fmt.Sprintf("%-4s %-30s %-28s %5s %9s %9s %9s %12s %12s\n",
			"#", "Backtest", "Market", "Score", "ROI%", "Win%", "DD%", "Account", "Trade"))
		for _, rec := range report.Recommendations {
			b.WriteString(fmt.Sprintf("%-4d %-30s %-28s %5d %9.2f %9.2f %9.2f %12s %12s\n",
				rec.Rank,
				truncate(rec.Identity.String(), 30),
				truncate(rec.Market, 28),
				rec.Score,
				rec.ROIPct,
				rec.WinRatePct,
				rec.MaxDrawdownPct,
				rec.AccountSize.StringFixed(2),
				rec.TradeAmount.StringFixed(2),
			))
		}
	}

	if len(report.Dropped) > 0 {
		b.WriteString("\nDropped\n")
		for _, d := range report.Dropped {
			b.WriteString(fmt.Sprintf("%-4d %s: %s\n", d.Rank, d.Identity, d.Reason))
		}
	}

	malformed := 0
	for _, disp := range report.Dispositions {
		if disp.Record.Validity == models.ValidityMalformed {
			if malformed == 0 {
				b.WriteString("\nMalformed\n")
			}
			malformed++
			b.WriteString(fmt.Sprintf("  %s: %s\n", identityOrUnknown(disp.Record.Identity), disp.Record.Reason))
		}
	}

	return b.String()
}

func identityOrUnknown(id models.Identity) string {
	if id.LabID == "" && id.BacktestID == "" {
		return "(unknown)"
	}
	return id.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
