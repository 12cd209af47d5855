package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lab-ranker/internal/models"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	scorer, err := NewScorer(DefaultRubric())
	require.NoError(t, err)
	return scorer
}

func TestScoreScenario(t *testing.T) {
	scorer := newTestScorer(t)

	score, class := scorer.Score(Compute(scenarioRecord()))
	assert.Equal(t, 100, score)
	assert.True(t, class.HighQuality)
	assert.False(t, class.HighRisk)
	assert.Equal(t, "high quality", class.String())
}

func TestScoreRules(t *testing.T) {
	base := func() models.MetricSet {
		return models.MetricSet{
			RealizedProfit: decimal.NewFromInt(100),
			ProfitFactor:   models.UndefinedProfitFactor(),
			MaxDrawdownPct: 25,
		}
	}

	tests := []struct {
		name   string
		mutate func(*models.MetricSet)
		want   int
	}{
		{name: "profitable only", mutate: func(m *models.MetricSet) {}, want: 40},
		{name: "roi above 50", mutate: func(m *models.MetricSet) { m.ROIPct = 50.01 }, want: 50},
		{name: "roi exactly 50 takes the mid tier", mutate: func(m *models.MetricSet) { m.ROIPct = 50 }, want: 45},
		{name: "roi exactly 20 earns nothing", mutate: func(m *models.MetricSet) { m.ROIPct = 20 }, want: 40},
		{name: "loss ignores roi", mutate: func(m *models.MetricSet) {
			m.RealizedProfit = decimal.NewFromInt(-1)
			m.ROIPct = 80
		}, want: 0},
		{name: "zero profit is not profitable", mutate: func(m *models.MetricSet) {
			m.RealizedProfit = decimal.Zero
		}, want: 0},
		{name: "positive sharpe", mutate: func(m *models.MetricSet) { m.SharpeLikeRatio = floatPtr(0.01) }, want: 55},
		{name: "zero sharpe", mutate: func(m *models.MetricSet) { m.SharpeLikeRatio = floatPtr(0) }, want: 40},
		{name: "drawdown just below 20", mutate: func(m *models.MetricSet) { m.MaxDrawdownPct = 19.99 }, want: 55},
		{name: "drawdown at 20", mutate: func(m *models.MetricSet) { m.MaxDrawdownPct = 20 }, want: 40},
		{name: "win rate above 40", mutate: func(m *models.MetricSet) { m.WinRatePct = floatPtr(40.5) }, want: 60},
		{name: "win rate 40", mutate: func(m *models.MetricSet) { m.WinRatePct = floatPtr(40) }, want: 50},
		{name: "win rate 30", mutate: func(m *models.MetricSet) { m.WinRatePct = floatPtr(30) }, want: 40},
		{name: "infinite profit factor", mutate: func(m *models.MetricSet) { m.ProfitFactor = models.InfiniteProfitFactor() }, want: 50},
		{name: "profit factor 2", mutate: func(m *models.MetricSet) { m.ProfitFactor = models.FiniteProfitFactor(2) }, want: 45},
		{name: "profit factor 1.5", mutate: func(m *models.MetricSet) { m.ProfitFactor = models.FiniteProfitFactor(1.5) }, want: 40},
		{name: "everything clamps to 100", mutate: func(m *models.MetricSet) {
			m.ROIPct = 400
			m.SharpeLikeRatio = floatPtr(3)
			m.MaxDrawdownPct = 1
			m.WinRatePct = floatPtr(90)
			m.ProfitFactor = models.InfiniteProfitFactor()
		}, want: 100},
	}

	scorer := newTestScorer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(&m)
			score, _ := scorer.Score(m)
			assert.Equal(t, tt.want, score)
		})
	}
}

func TestClassificationAxesAreIndependent(t *testing.T) {
	scorer := newTestScorer(t)

	risky := models.MetricSet{
		RealizedProfit:  decimal.NewFromInt(10),
		ROIPct:          60,
		WinRatePct:      floatPtr(70),
		SharpeLikeRatio: floatPtr(2),
		ProfitFactor:    models.InfiniteProfitFactor(),
		MaxDrawdownPct:  31,
	}
	score, class := scorer.Score(risky)
	assert.Equal(t, 95, score)
	assert.True(t, class.HighQuality)
	assert.True(t, class.HighRisk)

	_, class = scorer.Score(models.MetricSet{MaxDrawdownPct: 30})
	assert.False(t, class.HighQuality)
	assert.False(t, class.HighRisk)
	assert.Equal(t, "standard", class.String())
}

func TestScoreMonotonicInROI(t *testing.T) {
	scorer := newTestScorer(t)
	previous := -1
	for roi := -100.0; roi <= 200; roi += 0.5 {
		m := models.MetricSet{
			RealizedProfit: decimal.NewFromFloat(roi),
			ROIPct:         roi,
			WinRatePct:     floatPtr(45),
			MaxDrawdownPct: 10,
		}
		score, _ := scorer.Score(m)
		assert.GreaterOrEqual(t, score, previous, "roi %v", roi)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
		previous = score
	}
}

func TestScoreMonotonicInDecreasingDrawdown(t *testing.T) {
	scorer := newTestScorer(t)
	previous := -1
	for dd := 40.0; dd >= 0; dd -= 0.25 {
		m := models.MetricSet{
			RealizedProfit: decimal.NewFromInt(1),
			ROIPct:         5,
			MaxDrawdownPct: dd,
		}
		score, _ := scorer.Score(m)
		assert.GreaterOrEqual(t, score, previous, "drawdown %v", dd)
		previous = score
	}
}

func TestRubricValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rubric)
	}{
		{name: "negative points", mutate: func(r *Rubric) { r.ProfitablePoints = -1 }},
		{name: "points above 100", mutate: func(r *Rubric) { r.PositiveSharpePoints = 101 }},
		{name: "negative tier points", mutate: func(r *Rubric) { r.ROITiers[1].Points = -5 }},
		{name: "mid threshold above high", mutate: func(r *Rubric) { r.ROITiers[1].Above = 60 }},
		{name: "mid tier pays more", mutate: func(r *Rubric) { r.WinRateTiers[1].Points = 25 }},
		{name: "zero drawdown ceiling", mutate: func(r *Rubric) { r.LowDrawdownPct = 0 }},
		{name: "quality bar above 100", mutate: func(r *Rubric) { r.HighQualityScore = 101 }},
	}

	require.NoError(t, DefaultRubric().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rubric := DefaultRubric()
			tt.mutate(&rubric)

			err := rubric.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrConfiguration)
			var cfgErr *models.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)

			_, err = NewScorer(rubric)
			assert.Error(t, err)
		})
	}
}
