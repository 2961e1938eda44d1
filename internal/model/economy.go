package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Economy holds the game's round multipliers and dilution ranges.
type Economy struct {
	RoundMultipliers map[string]float64    `json:"round_multipliers"`
	DilutionRanges   map[string][2]float64 `json:"dilution_ranges"`
}

// EmptyEconomy returns an Economy with empty, non-nil maps.
func EmptyEconomy() Economy {
	return Economy{
		RoundMultipliers: map[string]float64{},
		DilutionRanges:   map[string][2]float64{},
	}
}

// ParseEconomy decodes an economy document. Missing sections default to empty.
func ParseEconomy(data []byte) (Economy, error) {
	var raw struct {
		RoundMultipliers map[string]float64   `json:"round_multipliers"`
		DilutionRanges   map[string][]float64 `json:"dilution_ranges"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return EmptyEconomy(), eris.Wrap(err, "economy: decode")
	}

	econ := EmptyEconomy()
	for k, v := range raw.RoundMultipliers {
		econ.RoundMultipliers[k] = v
	}
	for k, v := range raw.DilutionRanges {
		if len(v) != 2 {
			return EmptyEconomy(), eris.Errorf("economy: dilution range %q has %d values, want 2", k, len(v))
		}
		econ.DilutionRanges[k] = [2]float64{v[0], v[1]}
	}
	return econ, nil
}
