// Package content assembles the playable firm dataset from the base pack and
// the optional JSON and CSV override files.
package content

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Mode selects which sources feed the final firm list.
type Mode string

// Source modes.
const (
	ModeBase Mode = "base"
	ModeJSON Mode = "json"
	ModeCSV  Mode = "csv"
	ModeAll  Mode = "all"
)

// Modes lists every mode.
var Modes = []Mode{ModeBase, ModeJSON, ModeCSV, ModeAll}

// ParseMode parses a mode name. The empty string selects ModeAll.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeAll, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", eris.Errorf("content: unknown source mode %q", s)
}

func (m Mode) wantsBase() bool { return m == ModeBase || m == ModeAll }
func (m Mode) wantsJSON() bool { return m == ModeJSON || m == ModeAll }
func (m Mode) wantsCSV() bool  { return m == ModeCSV || m == ModeAll }
