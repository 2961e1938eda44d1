package batchgeo

import (
	"strings"

	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/pkg/geocode"
)

var (
	cityProps   = []string{"city", "district", "county", "state", "locality", "country"}
	streetProps = []string{"street", "road", "name", "display_name"}
	cityNames   = []string{"new york", "manhattan"}
)

// Accept reports whether a geocoder hit is trustworthy for t: its place
// metadata names New York or Manhattan, it lies inside bounds, and its street
// metadata contains one of the task's road names (when the task has any).
func Accept(t Task, r *geocode.Result, bounds geo.Bounds) bool {
	if r == nil || !r.Matched {
		return false
	}
	return inCity(r) && bounds.Contains(r.Lat, r.Lng) && matchesRoad(t, r)
}

func inCity(r *geocode.Result) bool {
	for _, k := range cityProps {
		v := strings.ToLower(r.Properties[k])
		if v == "" {
			continue
		}
		for _, name := range cityNames {
			if strings.Contains(v, name) {
				return true
			}
		}
	}
	return false
}

func matchesRoad(t Task, r *geocode.Result) bool {
	if len(t.Roads) == 0 {
		return true
	}
	for _, k := range streetProps {
		v := strings.ToLower(r.Properties[k])
		if v == "" {
			continue
		}
		for _, road := range t.Roads {
			if strings.Contains(v, road) {
				return true
			}
		}
	}
	return false
}
