// Package merge folds firm lists from several sources into one deduplicated list.
package merge

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/ipo-sim/internal/model"
)

// Key identifies "the same firm" across sources: lower(name) + "|" + lower(category).
func Key(f model.Firm) string {
	lower := cases.Lower(language.Und)
	return lower.String(f.Name) + "|" + lower.String(string(f.Category))
}

// Dedupe merges b (lower priority) into a (higher priority).
//
// Records are emitted in first-seen order. When keys collide, the earlier
// record keeps every field it already has and only gains fields it lacks.
func Dedupe(a, b []model.Firm) []model.Firm {
	out := make([]model.Firm, 0, len(a)+len(b))
	idx := make(map[string]int, len(a)+len(b))

	add := func(f model.Firm) {
		k := Key(f)
		if i, ok := idx[k]; ok {
			out[i] = Fold(out[i], f)
			return
		}
		idx[k] = len(out)
		out = append(out, f)
	}

	for _, f := range a {
		add(f)
	}
	for _, f := range b {
		add(f)
	}
	return out
}

// Fold merges lo into hi field by field without overwriting anything hi has.
// Identity (id, name, category) always comes from hi.
//
// Provenance stays json when hi came from json; otherwise lo's tag wins.
func Fold(hi, lo model.Firm) model.Firm {
	m := hi

	fillString(&m.Address, lo.Address)
	fillString(&m.City, lo.City)
	fillString(&m.State, lo.State)
	fillString(&m.RequiredCapital, lo.RequiredCapital)
	fillString(&m.Website, lo.Website)
	fillString(&m.SectorFocus, lo.SectorFocus)

	if m.Difficulty == 0 {
		m.Difficulty = lo.Difficulty
	}
	if m.Cost == 0 {
		m.Cost = lo.Cost
	}
	if m.RoundStage == "" {
		m.RoundStage = lo.RoundStage
	}

	fillFloat(&m.ValuationIncreaseRate, lo.ValuationIncreaseRate)
	fillFloat(&m.EquityDilutionRate, lo.EquityDilutionRate)
	fillFloat(&m.ReputationEffect, lo.ReputationEffect)
	fillFloat(&m.GrowthSpeedEffect, lo.GrowthSpeedEffect)

	if m.Position == nil && lo.Position != nil {
		pos := *lo.Position
		m.Position = &pos
		m.Placeholder = lo.Placeholder
	}

	if hi.Source != model.SourceJSON {
		m.Source = lo.Source
	}
	return m
}

func fillString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func fillFloat(dst **float64, v *float64) {
	if *dst == nil && v != nil {
		f := *v
		*dst = &f
	}
}
