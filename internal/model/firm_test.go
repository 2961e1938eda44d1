package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ipo-sim/internal/geo"
)

func TestInferRoundStage(t *testing.T) {
	tests := map[Category]RoundStage{
		CategoryAngel:          StagePreSeed,
		CategoryVC:             StageSeriesA,
		CategoryPE:             StageSeriesC,
		CategoryInvestmentBank: StageIPO,
		CategoryAssetManager:   StagePostIPO,
		Category("Hedge Fund"): "",
	}
	for cat, want := range tests {
		assert.Equal(t, want, InferRoundStage(cat), string(cat))
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid())
	}
	assert.False(t, Category("vc").Valid())
	assert.False(t, Category("").Valid())
}

func TestRoundStageValid(t *testing.T) {
	assert.True(t, StageSeriesB.Valid())
	assert.False(t, RoundStage("Series D").Valid())
}

func TestNeedsGeocode(t *testing.T) {
	pos := geo.LatLng{40.75, -73.98}
	assert.True(t, Firm{}.NeedsGeocode())
	assert.True(t, Firm{Position: &pos, Placeholder: true}.NeedsGeocode())
	assert.False(t, Firm{Position: &pos}.NeedsGeocode())
	assert.True(t, Firm{Position: &pos, Placeholder: true}.HasPosition())
}

func TestParseCapitalRange(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", DefaultCapitalUSD},
		{"n/a", DefaultCapitalUSD},
		{"$50K-200K", 125000},
		{"$1.5M", 1500000},
		{"$1M-$2B", 1000500000},
		{"$1,000", MinCapitalUSD},
		{"250000", 250000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCapitalRange(tt.in))
		})
	}
	assert.Equal(t, int64(125000), Firm{RequiredCapital: "$50K-200K"}.CapitalEstimate())
}

func TestParseEconomy(t *testing.T) {
	econ, err := ParseEconomy([]byte(`{"round_multipliers":{"Seed":1.5},"dilution_ranges":{"Seed":[0.1,0.2]}}`))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, econ.RoundMultipliers["Seed"], 1e-9)
	assert.Equal(t, [2]float64{0.1, 0.2}, econ.DilutionRanges["Seed"])

	econ, err = ParseEconomy([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, econ.RoundMultipliers)
	assert.NotNil(t, econ.DilutionRanges)
	assert.Empty(t, econ.RoundMultipliers)

	_, err = ParseEconomy([]byte(`{"dilution_ranges":{"Seed":[0.1]}}`))
	assert.Error(t, err)

	_, err = ParseEconomy([]byte(`{"round_multipliers":{"Seed":"high"}}`))
	assert.Error(t, err)
}
