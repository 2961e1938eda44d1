// Package batchgeo geocodes the override datasets offline and writes the
// verified coordinates back into the CSV and JSON files.
package batchgeo

import (
	"regexp"
	"strings"
)

var (
	reSpaces     = regexp.MustCompile(`\s+`)
	reUnit       = regexp.MustCompile(`(?i),\s*(?:\d+(?:st|nd|rd|th)?\s+)?(?:floor|fl\.?|suite|ste\.?|unit|level|room|rm\.?|office)\b[^,]*`)
	reParens     = regexp.MustCompile(`\s*\(.*?\)`)
	reEmptyComma = regexp.MustCompile(`\s*,\s*,`)
	reTrailComma = regexp.MustCompile(`,\s*$`)
	reHouseNum   = regexp.MustCompile(`^\d+\s*`)
)

// streetSynonyms rewrites Manhattan avenue names into the forms geocoders index.
var streetSynonyms = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)Avenue of the Americas`), "6th Avenue"},
	{regexp.MustCompile(`(?i)Sixth Avenue`), "6th Avenue"},
	{regexp.MustCompile(`(?i)Seventh Avenue`), "7th Avenue"},
	{regexp.MustCompile(`(?i)Seventh Ave`), "7th Ave"},
	{regexp.MustCompile(`(?i)Fifth Avenue`), "5th Avenue"},
	{regexp.MustCompile(`(?i)Fifth Ave`), "5th Ave"},
	{regexp.MustCompile(`(?i)Madison Avenue`), "Madison Ave"},
}

// NormalizeStreet collapses whitespace and strips floor/suite/unit segments,
// parenthesized notes and dangling commas.
func NormalizeStreet(address string) string {
	s := strings.TrimSpace(address)
	if s == "" {
		return ""
	}
	s = reSpaces.ReplaceAllString(s, " ")
	s = reUnit.ReplaceAllString(s, "")
	s = reParens.ReplaceAllString(s, "")
	s = reEmptyComma.ReplaceAllString(s, ",")
	s = reTrailComma.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Address is the subset of a dataset record used to build queries.
type Address struct {
	Name   string
	Street string
	City   string
	State  string
}

// Task is one unique lookup: its query variants in priority order and the road
// names an accepted result must mention. Key is the first variant.
type Task struct {
	Key      string
	Variants []string
	Roads    []string
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func roadOf(street string) string {
	first, _, _ := strings.Cut(reHouseNum.ReplaceAllString(street, ""), ",")
	return strings.ToLower(strings.TrimSpace(first))
}

// BuildTask derives the query variants for a record: the literal address,
// synonym rewrites (with and without ", USA"), the address without its house
// number, and finally the firm name in its city.
func BuildTask(a Address) Task {
	var variants, roads orderedSet

	street := NormalizeStreet(a.Street)
	city := strings.TrimSpace(a.City)
	state := strings.TrimSpace(a.State)

	variants.add(joinNonEmpty(street, city, state))
	roads.add(roadOf(street))

	for _, syn := range streetSynonyms {
		if !syn.pattern.MatchString(street) {
			continue
		}
		alt := syn.pattern.ReplaceAllString(street, syn.replacement)
		variants.add(joinNonEmpty(alt, city, state))
		variants.add(joinNonEmpty(alt, city, state, "USA"))
		roads.add(roadOf(alt))
	}

	if street != "" {
		noNumber := reHouseNum.ReplaceAllString(street, "")
		variants.add(joinNonEmpty(noNumber, city, state))
		roads.add(roadOf(noNumber))
	}

	if name := strings.TrimSpace(a.Name); name != "" {
		if city == "" {
			city = "New York"
		}
		if state == "" {
			state = "NY"
		}
		variants.add(name + ", " + city + ", " + state)
	}

	t := Task{Variants: variants.items, Roads: roads.items}
	if len(t.Variants) > 0 {
		t.Key = t.Variants[0]
	}
	return t
}
