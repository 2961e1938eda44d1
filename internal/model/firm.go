// Package model defines the canonical firm record and its closed vocabularies.
package model

import (
	"github.com/sells-group/ipo-sim/internal/geo"
)

// Category classifies an investor firm.
type Category string

// Firm categories, in display order.
const (
	CategoryAngel          Category = "Angel"
	CategoryVC             Category = "VC"
	CategoryPE             Category = "PE"
	CategoryInvestmentBank Category = "Investment Bank"
	CategoryAssetManager   Category = "Asset Manager"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAngel,
	CategoryVC,
	CategoryPE,
	CategoryInvestmentBank,
	CategoryAssetManager,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// RoundStage is the funding stage a firm typically participates in.
type RoundStage string

// Funding stages.
const (
	StagePreSeed RoundStage = "Pre-Seed"
	StageSeed    RoundStage = "Seed"
	StageSeriesA RoundStage = "Series A"
	StageSeriesB RoundStage = "Series B"
	StageSeriesC RoundStage = "Series C"
	StageIPO     RoundStage = "IPO"
	StagePostIPO RoundStage = "Post-IPO"
)

// RoundStages lists every stage in funding order.
var RoundStages = []RoundStage{
	StagePreSeed,
	StageSeed,
	StageSeriesA,
	StageSeriesB,
	StageSeriesC,
	StageIPO,
	StagePostIPO,
}

// Valid reports whether s is one of the known stages.
func (s RoundStage) Valid() bool {
	for _, k := range RoundStages {
		if s == k {
			return true
		}
	}
	return false
}

// defaultStages maps a category to the stage assumed when a record has none.
var defaultStages = map[Category]RoundStage{
	CategoryAngel:          StagePreSeed,
	CategoryVC:             StageSeriesA,
	CategoryPE:             StageSeriesC,
	CategoryInvestmentBank: StageIPO,
	CategoryAssetManager:   StagePostIPO,
}

// InferRoundStage returns the default stage for a category, or "" if unknown.
func InferRoundStage(c Category) RoundStage {
	return defaultStages[c]
}

// Source tags which dataset produced a record.
type Source string

// Dataset sources.
const (
	SourceBase   Source = "base"
	SourceJSON   Source = "json"
	SourceCSV    Source = "csv"
	SourceMerged Source = "merged"
)

// Firm is one investor/institution the player can transact with.
//
// Optional numeric modifiers are pointers so an absent value is distinguishable
// from zero. Difficulty and Cost use 0 for "not set".
type Firm struct {
	ID                    int         `json:"id"`
	Category              Category    `json:"category"`
	Name                  string      `json:"firm_name"`
	Address               string      `json:"hq_address"`
	City                  string      `json:"city"`
	State                 string      `json:"state"`
	Difficulty            int         `json:"difficulty_level,omitempty"`
	Cost                  int         `json:"cost_level,omitempty"`
	RequiredCapital       string      `json:"required_capital_usd,omitempty"`
	RoundStage            RoundStage  `json:"round_stage,omitempty"`
	Website               string      `json:"website,omitempty"`
	SectorFocus           string      `json:"sector_focus,omitempty"`
	ValuationIncreaseRate *float64    `json:"valuation_increase_rate,omitempty"`
	EquityDilutionRate    *float64    `json:"equity_dilution_rate,omitempty"`
	ReputationEffect      *float64    `json:"reputation_effect,omitempty"`
	GrowthSpeedEffect     *float64    `json:"growth_speed_effect,omitempty"`
	Position              *geo.LatLng `json:"position,omitempty"`

	// Placeholder is set when Position was generated rather than sourced or geocoded.
	Placeholder bool `json:"placeholder,omitempty"`

	// Source is merge bookkeeping only.
	Source Source `json:"-"`
}

// HasPosition reports whether the firm carries any position, placeholder included.
func (f Firm) HasPosition() bool {
	return f.Position != nil
}

// NeedsGeocode reports whether the firm lacks a real (sourced or geocoded) position.
func (f Firm) NeedsGeocode() bool {
	return f.Position == nil || f.Placeholder
}
