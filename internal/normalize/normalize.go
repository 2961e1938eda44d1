// Package normalize maps loosely-typed firm records (decoded JSON objects or CSV
// rows keyed by header) onto the canonical model.Firm.
//
// Records that fail validation are not errors: Normalize returns a Result whose
// Reason says why the record was dropped, and callers log and skip it.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/model"
)

// Record is one loosely-typed input row.
type Record map[string]any

// Reason tags why a record was dropped. The empty Reason means accepted.
type Reason string

// Drop reasons.
const (
	ReasonNotObject         Reason = "not_object"
	ReasonMissingName       Reason = "missing_name"
	ReasonInvalidCategory   Reason = "invalid_category"
	ReasonInvalidDifficulty Reason = "invalid_difficulty"
	ReasonInvalidCost       Reason = "invalid_cost"
	ReasonInvalidRoundStage Reason = "invalid_round_stage"
	ReasonInvalidWebsite    Reason = "invalid_website"
	ReasonInvalidField      Reason = "invalid_field"
)

// Result is the outcome of normalizing one record.
type Result struct {
	Firm   model.Firm
	Reason Reason
	Detail string
}

// OK reports whether the record was accepted.
func (r Result) OK() bool { return r.Reason == "" }

func drop(reason Reason, format string, args ...any) Result {
	return Result{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Normalizer resolves fields through an AliasTable.
type Normalizer struct {
	aliases *AliasTable
}

// New creates a Normalizer. A nil table selects DefaultAliasTable.
func New(aliases *AliasTable) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliasTable()
	}
	return &Normalizer{aliases: aliases}
}

// Normalize converts rec into a Firm tagged with src. fallbackID is used unless
// the record carries an explicit integral numeric id.
func (n *Normalizer) Normalize(rec Record, fallbackID int, src model.Source) Result {
	if rec == nil {
		return drop(ReasonNotObject, "record is empty")
	}

	f := model.Firm{ID: fallbackID, Source: src}

	if v, ok := n.aliases.Lookup(rec, FieldID); ok {
		if id, isInt := explicitID(v); isInt {
			f.ID = id
		}
	}

	rawCat, ok := n.aliases.Lookup(rec, FieldCategory)
	if !ok {
		return drop(ReasonInvalidCategory, "category missing")
	}
	cat, ok := parseCategory(rawCat)
	if !ok {
		return drop(ReasonInvalidCategory, "unknown category %v", rawCat)
	}
	f.Category = cat

	if v, ok := n.aliases.Lookup(rec, FieldName); ok {
		if s, isStr := asString(v); isStr {
			f.Name = strings.TrimSpace(s)
		}
	}
	if f.Name == "" {
		return drop(ReasonMissingName, "firm name missing")
	}

	var res Result
	strFields := []struct {
		field string
		dst   *string
	}{
		{FieldAddress, &f.Address},
		{FieldCity, &f.City},
		{FieldState, &f.State},
		{FieldRequiredCapital, &f.RequiredCapital},
		{FieldSectorFocus, &f.SectorFocus},
	}
	for _, sf := range strFields {
		if res = n.optString(rec, sf.field, sf.dst); !res.OK() {
			return res
		}
	}

	if f.Difficulty, res = n.level(rec, FieldDifficulty, ReasonInvalidDifficulty); !res.OK() {
		return res
	}
	if f.Cost, res = n.level(rec, FieldCost, ReasonInvalidCost); !res.OK() {
		return res
	}

	f.RoundStage = model.InferRoundStage(f.Category)
	if v, ok := n.aliases.Lookup(rec, FieldRoundStage); ok {
		s, _ := asString(v)
		stage := model.RoundStage(strings.TrimSpace(s))
		if !stage.Valid() {
			return drop(ReasonInvalidRoundStage, "unknown round stage %v", v)
		}
		f.RoundStage = stage
	}

	var website string
	if res = n.optString(rec, FieldWebsite, &website); !res.OK() {
		return res
	}
	if website != "" {
		u, valid := normalizeWebsite(website)
		if !valid {
			return drop(ReasonInvalidWebsite, "invalid website %q", website)
		}
		f.Website = u
	}

	f.ValuationIncreaseRate = n.optNumber(rec, FieldValuationIncreaseRate)
	f.EquityDilutionRate = n.optNumber(rec, FieldEquityDilutionRate)
	f.ReputationEffect = n.optNumber(rec, FieldReputationEffect)
	f.GrowthSpeedEffect = n.optNumber(rec, FieldGrowthSpeedEffect)

	f.Position = n.position(rec)

	return Result{Firm: f}
}

// optString resolves an optional string field. Numbers are accepted and
// formatted; any other shape rejects the record.
func (n *Normalizer) optString(rec Record, field string, dst *string) Result {
	v, ok := n.aliases.Lookup(rec, field)
	if !ok {
		return Result{}
	}
	s, isStr := asString(v)
	if !isStr {
		return drop(ReasonInvalidField, "%s: unsupported value %T", field, v)
	}
	*dst = strings.TrimSpace(s)
	return Result{}
}

// level resolves an optional 1-5 integer field; 0 means absent.
func (n *Normalizer) level(rec Record, field string, reason Reason) (int, Result) {
	v, ok := n.aliases.Lookup(rec, field)
	if !ok {
		return 0, Result{}
	}
	num, isNum := toNumber(v)
	if !isNum || num != math.Trunc(num) || num < 1 || num > 5 {
		return 0, drop(reason, "%s: %v is not an integer in [1,5]", field, v)
	}
	return int(num), Result{}
}

func (n *Normalizer) optNumber(rec Record, field string) *float64 {
	v, ok := n.aliases.Lookup(rec, field)
	if !ok {
		return nil
	}
	num, isNum := toNumber(v)
	if !isNum {
		return nil
	}
	return &num
}

// position prefers top-level lat/lng fields, then a nested position value.
func (n *Normalizer) position(rec Record) *geo.LatLng {
	if p, ok := n.latLngFields(rec); ok {
		return &p
	}
	v, ok := n.aliases.Lookup(rec, FieldPosition)
	if !ok {
		return nil
	}
	if p, ok := n.parsePosition(v); ok {
		return &p
	}
	return nil
}

func (n *Normalizer) latLngFields(rec Record) (geo.LatLng, bool) {
	rawLat, okLat := n.aliases.Lookup(rec, FieldLat)
	rawLng, okLng := n.aliases.Lookup(rec, FieldLng)
	if !okLat || !okLng {
		return geo.LatLng{}, false
	}
	lat, okLat := toNumber(rawLat)
	lng, okLng := toNumber(rawLng)
	if !okLat || !okLng {
		return geo.LatLng{}, false
	}
	return geo.LatLng{lat, lng}, true
}

// parsePosition accepts {lat,lng}-style objects, two-element arrays and
// "a,b" strings. Pairs of unknown axis order are oriented by whichever
// ordering falls inside the service area, keeping the given order otherwise.
func (n *Normalizer) parsePosition(v any) (geo.LatLng, bool) {
	switch p := v.(type) {
	case map[string]any:
		return n.latLngFields(Record(p))
	case Record:
		return n.latLngFields(p)
	case []any:
		if len(p) != 2 {
			return geo.LatLng{}, false
		}
		return orientPair(p[0], p[1])
	case []float64:
		if len(p) != 2 {
			return geo.LatLng{}, false
		}
		return orientPair(p[0], p[1])
	case string:
		parts := strings.Split(strings.Trim(strings.TrimSpace(p), "[]()"), ",")
		if len(parts) != 2 {
			return geo.LatLng{}, false
		}
		return orientPair(parts[0], parts[1])
	}
	return geo.LatLng{}, false
}

func orientPair(rawA, rawB any) (geo.LatLng, bool) {
	a, okA := toNumber(rawA)
	b, okB := toNumber(rawB)
	if !okA || !okB {
		return geo.LatLng{}, false
	}
	if geo.NYC.Contains(a, b) {
		return geo.LatLng{a, b}, true
	}
	if geo.NYC.Contains(b, a) {
		return geo.LatLng{b, a}, true
	}
	return geo.LatLng{a, b}, true
}

func parseCategory(v any) (model.Category, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if c := model.Category(s); c.Valid() {
		return c, true
	}
	for _, c := range model.Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// explicitID accepts JSON numbers holding an integral value in the int32 range.
// Anything else falls back to a generated id.
func explicitID(v any) (int, bool) {
	var id int64
	switch n := v.(type) {
	case int:
		id = int64(n)
	case int64:
		id = n
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		id = int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		id = i
	default:
		return 0, false
	}
	if id > math.MaxInt32 || id < -math.MaxInt32 {
		return 0, false
	}
	return int(id), true
}

// toNumber coerces numbers and numeric strings; non-finite values are rejected.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	}
	return "", false
}

// normalizeWebsite validates an absolute URL. Bare domains such as
// "example.com" get an https scheme.
func normalizeWebsite(s string) (string, bool) {
	if !strings.Contains(s, "://") && strings.Contains(s, ".") && !strings.ContainsAny(s, " \t") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return "", false
	}
	return s, true
}
