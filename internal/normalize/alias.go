package normalize

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliases []byte

// Canonical field names.
const (
	FieldID                    = "id"
	FieldCategory              = "category"
	FieldName                  = "firm_name"
	FieldAddress               = "hq_address"
	FieldCity                  = "city"
	FieldState                 = "state"
	FieldDifficulty            = "difficulty_level"
	FieldCost                  = "cost_level"
	FieldRequiredCapital       = "required_capital_usd"
	FieldRoundStage            = "round_stage"
	FieldWebsite               = "website"
	FieldSectorFocus           = "sector_focus"
	FieldValuationIncreaseRate = "valuation_increase_rate"
	FieldEquityDilutionRate    = "equity_dilution_rate"
	FieldReputationEffect      = "reputation_effect"
	FieldGrowthSpeedEffect     = "growth_speed_effect"
	FieldLat                   = "lat"
	FieldLng                   = "lng"
	FieldPosition              = "position"
)

// AliasTable maps each canonical field to the input keys accepted for it,
// highest priority first.
type AliasTable struct {
	order   []string
	aliases map[string][]string
}

type aliasFile struct {
	Fields []struct {
		Field   string   `yaml:"field"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"fields"`
}

// ParseAliasTable decodes an alias table document.
func ParseAliasTable(data []byte) (*AliasTable, error) {
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "normalize: parse alias table")
	}

	t := &AliasTable{aliases: make(map[string][]string, len(f.Fields))}
	for _, fd := range f.Fields {
		if fd.Field == "" {
			return nil, eris.New("normalize: alias entry without field name")
		}
		if _, dup := t.aliases[fd.Field]; dup {
			return nil, eris.Errorf("normalize: duplicate alias entry for %q", fd.Field)
		}
		if len(fd.Aliases) == 0 {
			fd.Aliases = []string{fd.Field}
		}
		t.order = append(t.order, fd.Field)
		t.aliases[fd.Field] = fd.Aliases
	}
	return t, nil
}

// DefaultAliasTable returns the built-in alias table.
func DefaultAliasTable() *AliasTable {
	t, err := ParseAliasTable(defaultAliases)
	if err != nil {
		panic(err)
	}
	return t
}

// Fields returns the canonical fields in declaration order.
func (t *AliasTable) Fields() []string {
	return append([]string(nil), t.order...)
}

// Aliases returns the accepted keys for field.
func (t *AliasTable) Aliases(field string) []string {
	if a, ok := t.aliases[field]; ok {
		return a
	}
	return []string{field}
}

// Lookup returns the value of the first alias of field present in rec.
// Nil values and blank strings count as absent.
func (t *AliasTable) Lookup(rec Record, field string) (any, bool) {
	for _, key := range t.Aliases(field) {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}
