package content

import "github.com/sells-group/ipo-sim/internal/model"

// Paths locates the dataset resources. Override lists are tried in order and the
// first readable candidate wins.
type Paths struct {
	BaseFirms    string   `mapstructure:"base_firms"`
	Economy      string   `mapstructure:"economy"`
	JSONOverride []string `mapstructure:"json_override"`
	CSVOverride  []string `mapstructure:"csv_override"`
}

// DefaultPaths returns the web bundle layout: the game pack under
// /startup_ipo_game_pack and root-level overrides with /datasets fallbacks.
func DefaultPaths() Paths {
	return Paths{
		BaseFirms:    "/startup_ipo_game_pack/data/firms.json",
		Economy:      "/startup_ipo_game_pack/data/economy.json",
		JSONOverride: []string{"/nyc_firms.json", "/datasets/nyc_firms.json"},
		CSVOverride:  []string{"/nyc_firms.csv", "/datasets/nyc_firms.csv"},
	}
}

// idRangeSize separates the synthetic id ranges of each source.
const idRangeSize = 1_000_000

// SyntheticID returns the fallback id of row i from src. Each source owns a
// disjoint negative range so synthetic ids never collide with each other or with
// positive base ids.
func SyntheticID(src model.Source, i int) int {
	var block int
	switch src {
	case model.SourceJSON:
		block = 1
	case model.SourceCSV:
		block = 2
	default:
		block = 3
	}
	return -(block*idRangeSize + i)
}
