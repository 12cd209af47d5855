package analysis

import (
	"github.com/yourusername/lab-ranker/internal/models"
)

const (
	minScore = 0
	maxScore = 100
)

// Tier awards Points when a value is strictly greater than Above. Tiers in
// a list are mutually exclusive: the first matching tier wins.
type Tier struct {
	Above  float64 `mapstructure:"above" json:"above"`
	Points int     `mapstructure:"points" json:"points" validate:"gte=0,lte=100"`
}

// Rubric holds the point values and thresholds of the scoring rules.
type Rubric struct {
	ProfitablePoints     int     `mapstructure:"profitable_points" json:"profitable_points" validate:"gte=0,lte=100"`
	ROITiers             []Tier  `mapstructure:"roi_tiers" json:"roi_tiers" validate:"dive"`
	PositiveSharpePoints int     `mapstructure:"positive_sharpe_points" json:"positive_sharpe_points" validate:"gte=0,lte=100"`
	LowDrawdownPct       float64 `mapstructure:"low_drawdown_pct" json:"low_drawdown_pct" validate:"gt=0,lte=100"`
	LowDrawdownPoints    int     `mapstructure:"low_drawdown_points" json:"low_drawdown_points" validate:"gte=0,lte=100"`
	WinRateTiers         []Tier  `mapstructure:"win_rate_tiers" json:"win_rate_tiers" validate:"dive"`
	ProfitFactorTiers    []Tier  `mapstructure:"profit_factor_tiers" json:"profit_factor_tiers" validate:"dive"`
	HighQualityScore     int     `mapstructure:"high_quality_score" json:"high_quality_score" validate:"gte=0,lte=100"`
	HighRiskDrawdownPct  float64 `mapstructure:"high_risk_drawdown_pct" json:"high_risk_drawdown_pct" validate:"gte=0"`
}

// DefaultRubric returns the standard scoring rubric:
//
//	profitability   40 when profitable, plus 10 above 50% ROI or 5 above 20%
//	risk            15 for a positive Sharpe-like ratio, 15 below 20% drawdown
//	win rate        20 above 40%, 10 above 30%
//	profit factor   10 above 2.0 (infinite included), 5 above 1.5
func DefaultRubric() Rubric {
	return Rubric{
		ProfitablePoints:     40,
		ROITiers:             []Tier{{Above: 50, Points: 10}, {Above: 20, Points: 5}},
		PositiveSharpePoints: 15,
		LowDrawdownPct:       20,
		LowDrawdownPoints:    15,
		WinRateTiers:         []Tier{{Above: 40, Points: 20}, {Above: 30, Points: 10}},
		ProfitFactorTiers:    []Tier{{Above: 2.0, Points: 10}, {Above: 1.5, Points: 5}},
		HighQualityScore:     70,
		HighRiskDrawdownPct:  30,
	}
}

// Validate checks point ranges and tier ordering. Tiers must be listed from
// the highest threshold down, and a lower tier may not award more points
// than the tier above it.
func (r Rubric) Validate() error {
	if err := validateStruct("rubric", r); err != nil {
		return err
	}
	for field, tiers := range map[string][]Tier{
		"rubric.roi_tiers":           r.ROITiers,
		"rubric.win_rate_tiers":      r.WinRateTiers,
		"rubric.profit_factor_tiers": r.ProfitFactorTiers,
	} {
		if err := validateTiers(field, tiers); err != nil {
			return err
		}
	}
	return nil
}

func validateTiers(field string, tiers []Tier) error {
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Above >= tiers[i-1].Above {
			return models.NewConfigurationError(field, "threshold %v must be below the preceding threshold %v", tiers[i].Above, tiers[i-1].Above)
		}
		if tiers[i].Points > tiers[i-1].Points {
			return models.NewConfigurationError(field, "tier above %v awards %d points, more than the %d of the tier above %v", tiers[i].Above, tiers[i].Points, tiers[i-1].Points, tiers[i-1].Above)
		}
	}
	return nil
}

// rule is one additive scoring category.
type rule func(r Rubric, m models.MetricSet) int

var rules = []rule{
	profitabilityPoints,
	riskPoints,
	winRatePoints,
	profitFactorPoints,
}

// Scorer applies a validated Rubric to metric sets.
type Scorer struct {
	rubric Rubric
}

// NewScorer validates rubric and returns a scorer for it.
func NewScorer(rubric Rubric) (*Scorer, error) {
	if err := rubric.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{rubric: rubric}, nil
}

// Rubric returns the rubric the scorer applies.
func (s *Scorer) Rubric() Rubric {
	return s.rubric
}

// Score evaluates the rules in order and clamps the total to [0, 100].
func (s *Scorer) Score(m models.MetricSet) (int, models.Classification) {
	total := 0
	for _, apply := range rules {
		total += apply(s.rubric, m)
	}
	score := clamp(total)
	return score, models.Classification{
		HighQuality: score >= s.rubric.HighQualityScore,
		HighRisk:    m.MaxDrawdownPct > s.rubric.HighRiskDrawdownPct,
	}
}

func profitabilityPoints(r Rubric, m models.MetricSet) int {
	if !m.RealizedProfit.IsPositive() {
		return 0
	}
	return r.ProfitablePoints + firstTier(r.ROITiers, m.ROIPct)
}

func riskPoints(r Rubric, m models.MetricSet) int {
	points := 0
	if m.SharpeLikeRatio != nil && *m.SharpeLikeRatio > 0 {
		points += r.PositiveSharpePoints
	}
	if m.MaxDrawdownPct < r.LowDrawdownPct {
		points += r.LowDrawdownPoints
	}
	return points
}

func winRatePoints(r Rubric, m models.MetricSet) int {
	rate, ok := m.WinRate()
	if !ok {
		return 0
	}
	return firstTier(r.WinRateTiers, rate)
}

func profitFactorPoints(r Rubric, m models.MetricSet) int {
	for _, tier := range r.ProfitFactorTiers {
		if m.ProfitFactor.Exceeds(tier.Above) {
			return tier.Points
		}
	}
	return 0
}

func firstTier(tiers []Tier, value float64) int {
	for _, tier := range tiers {
		if value > tier.Above {
			return tier.Points
		}
	}
	return 0
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
