package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/model"
)

func TestNormalize_CanonicalRecord(t *testing.T) {
	n := New(nil)
	res := n.Normalize(Record{
		"id":                      float64(7),
		"category":                "VC",
		"firm_name":               "Hudson Ventures",
		"hq_address":              "200 Broadway",
		"city":                    "New York",
		"state":                   "NY",
		"difficulty_level":        float64(3),
		"cost_level":              "4",
		"required_capital_usd":    "$1M-5M",
		"website":                 "https://hudson.example.com",
		"sector_focus":            "Fintech",
		"valuation_increase_rate": "1.2",
		"equity_dilution_rate":    0.15,
		"position":                []any{40.71, -74.0},
	}, -1, model.SourceBase)

	require.True(t, res.OK(), res.Detail)
	f := res.Firm
	assert.Equal(t, 7, f.ID)
	assert.Equal(t, model.CategoryVC, f.Category)
	assert.Equal(t, "Hudson Ventures", f.Name)
	assert.Equal(t, 3, f.Difficulty)
	assert.Equal(t, 4, f.Cost)
	assert.Equal(t, model.StageSeriesA, f.RoundStage)
	require.NotNil(t, f.ValuationIncreaseRate)
	assert.InDelta(t, 1.2, *f.ValuationIncreaseRate, 1e-9)
	require.NotNil(t, f.EquityDilutionRate)
	assert.Nil(t, f.ReputationEffect)
	require.NotNil(t, f.Position)
	assert.Equal(t, geo.LatLng{40.71, -74.0}, *f.Position)
	assert.Equal(t, model.SourceBase, f.Source)
}

func TestNormalize_CapitalizedAliases(t *testing.T) {
	res := New(nil).Normalize(Record{
		"Category":         "PE",
		"Firm":             "Empire Capital",
		"Address":          "350 Park Ave",
		"City":             "New York",
		"State":            "NY",
		"Difficulty (1-5)": "4",
		"Cost Level (1-5)": "5",
		"Website":          "empire.example.com",
		"Latitude":         "40.757",
		"Lon":              "-73.978",
	}, -2000000, model.SourceCSV)

	require.True(t, res.OK(), res.Detail)
	f := res.Firm
	assert.Equal(t, -2000000, f.ID)
	assert.Equal(t, "Empire Capital", f.Name)
	assert.Equal(t, "350 Park Ave", f.Address)
	assert.Equal(t, 4, f.Difficulty)
	assert.Equal(t, 5, f.Cost)
	assert.Equal(t, "https://empire.example.com", f.Website)
	require.NotNil(t, f.Position)
	assert.Equal(t, geo.LatLng{40.757, -73.978}, *f.Position)
}

func TestNormalize_RoundStageInference(t *testing.T) {
	want := map[string]model.RoundStage{
		"Angel":           model.StagePreSeed,
		"VC":              model.StageSeriesA,
		"PE":              model.StageSeriesC,
		"Investment Bank": model.StageIPO,
		"Asset Manager":   model.StagePostIPO,
	}
	n := New(nil)
	for cat, stage := range want {
		res := n.Normalize(Record{"category": cat, "firm_name": "X"}, -1, model.SourceJSON)
		require.True(t, res.OK(), cat)
		assert.Equal(t, stage, res.Firm.RoundStage, cat)
	}
}

func TestNormalize_ExplicitRoundStageKept(t *testing.T) {
	res := New(nil).Normalize(Record{"category": "PE", "firm_name": "X", "round_stage": "Series B"}, -1, model.SourceJSON)
	require.True(t, res.OK())
	assert.Equal(t, model.StageSeriesB, res.Firm.RoundStage)
}

func TestNormalize_DropReasons(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want Reason
	}{
		{"nil", nil, ReasonNotObject},
		{"no category", Record{"firm_name": "X"}, ReasonInvalidCategory},
		{"bad category", Record{"firm_name": "X", "category": "Hedge Fund"}, ReasonInvalidCategory},
		{"no name", Record{"category": "VC"}, ReasonMissingName},
		{"blank name", Record{"category": "VC", "firm_name": "  "}, ReasonMissingName},
		{"difficulty out of range", Record{"category": "VC", "firm_name": "X", "difficulty_level": 6.0}, ReasonInvalidDifficulty},
		{"difficulty fractional", Record{"category": "VC", "firm_name": "X", "difficulty_level": "2.5"}, ReasonInvalidDifficulty},
		{"cost unparsable", Record{"category": "VC", "firm_name": "X", "cost_level": "high"}, ReasonInvalidCost},
		{"bad stage", Record{"category": "VC", "firm_name": "X", "round_stage": "Series Z"}, ReasonInvalidRoundStage},
		{"bad website", Record{"category": "VC", "firm_name": "X", "website": "not a url"}, ReasonInvalidWebsite},
		{"object city", Record{"category": "VC", "firm_name": "X", "city": map[string]any{"x": 1}}, ReasonInvalidField},
	}
	n := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := n.Normalize(tt.rec, -1, model.SourceJSON)
			assert.False(t, res.OK())
			assert.Equal(t, tt.want, res.Reason)
			assert.NotEmpty(t, res.Detail)
		})
	}
}

func TestNormalize_NonFiniteModifierIsAbsent(t *testing.T) {
	res := New(nil).Normalize(Record{
		"category":            "VC",
		"firm_name":           "X",
		"reputation_effect":   "NaN",
		"growth_speed_effect": "fast",
	}, -1, model.SourceJSON)
	require.True(t, res.OK())
	assert.Nil(t, res.Firm.ReputationEffect)
	assert.Nil(t, res.Firm.GrowthSpeedEffect)
}

func TestNormalize_StringIDUsesFallback(t *testing.T) {
	res := New(nil).Normalize(Record{"id": "12", "category": "VC", "firm_name": "X"}, -5, model.SourceCSV)
	require.True(t, res.OK())
	assert.Equal(t, -5, res.Firm.ID)
}

func TestNormalize_OutOfRangeIDUsesFallback(t *testing.T) {
	for _, id := range []any{1e300, -1e12, float64(math.MaxInt32) + 1, 2.5, math.NaN(), int64(math.MaxInt64)} {
		res := New(nil).Normalize(Record{"id": id, "category": "VC", "firm_name": "X"}, -7, model.SourceJSON)
		require.True(t, res.OK())
		assert.Equal(t, -7, res.Firm.ID, "id %v", id)
	}

	res := New(nil).Normalize(Record{"id": float64(math.MaxInt32), "category": "VC", "firm_name": "X"}, -7, model.SourceJSON)
	assert.Equal(t, math.MaxInt32, res.Firm.ID)
}

func TestNormalize_CategoryCaseInsensitive(t *testing.T) {
	res := New(nil).Normalize(Record{"category": "investment bank", "firm_name": "X"}, -1, model.SourceCSV)
	require.True(t, res.OK())
	assert.Equal(t, model.CategoryInvestmentBank, res.Firm.Category)
}

func TestNormalize_BlankCellsAreAbsent(t *testing.T) {
	res := New(nil).Normalize(Record{
		"category": "VC", "firm_name": "X", "lat": "", "lng": "", "difficulty_level": " ",
	}, -1, model.SourceCSV)
	require.True(t, res.OK())
	assert.Nil(t, res.Firm.Position)
	assert.Equal(t, 0, res.Firm.Difficulty)
}

func TestPositionExtraction(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want *geo.LatLng
	}{
		{"pair lat first", Record{"position": []any{40.7, -74.0}}, &geo.LatLng{40.7, -74.0}},
		{"pair lng first", Record{"position": []any{-74.0, 40.7}}, &geo.LatLng{40.7, -74.0}},
		{"pair outside keeps order", Record{"position": []any{51.5, -0.12}}, &geo.LatLng{51.5, -0.12}},
		{"pair of strings", Record{"position": []any{"-73.9", "40.8"}}, &geo.LatLng{40.8, -73.9}},
		{"object", Record{"position": map[string]any{"latitude": 40.7, "lon": -74.0}}, &geo.LatLng{40.7, -74.0}},
		{"string pair", Record{"position": "[-74.0, 40.7]"}, &geo.LatLng{40.7, -74.0}},
		{"top-level wins", Record{"lat": 40.6, "lng": -73.9, "position": []any{40.7, -74.0}}, &geo.LatLng{40.6, -73.9}},
		{"only lat", Record{"lat": 40.6}, nil},
		{"three elements", Record{"position": []any{1.0, 2.0, 3.0}}, nil},
		{"garbage", Record{"position": []any{"a", "b"}}, nil},
	}
	n := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rec["category"] = "VC"
			tt.rec["firm_name"] = "X"
			res := n.Normalize(tt.rec, -1, model.SourceJSON)
			require.True(t, res.OK())
			assert.Equal(t, tt.want, res.Firm.Position)
		})
	}
}
