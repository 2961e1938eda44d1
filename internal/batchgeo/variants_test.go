package batchgeo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/pkg/geocode"
)

func TestNormalizeStreet(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1 Rockefeller Plaza, 10th Floor", "1 Rockefeller Plaza"},
		{"350 Fifth Avenue, Suite 500, New York", "350 Fifth Avenue, New York"},
		{"10 Hudson Yards (North Tower)", "10 Hudson Yards"},
		{"  745   Seventh Ave ,  ", "745 Seventh Ave"},
		{"1 Main St, Fl. 3", "1 Main St"},
		{"200 Park Ave, Ste 1700", "200 Park Ave"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStreet(tt.in))
		})
	}
}

func TestBuildTask_SynonymsAndFallbacks(t *testing.T) {
	task := BuildTask(Address{
		Name:   "Acme VC",
		Street: "1271 Avenue of the Americas, 24th Floor",
		City:   "New York",
		State:  "NY",
	})

	assert.Equal(t, "1271 Avenue of the Americas, New York, NY", task.Key)
	assert.Equal(t, []string{
		"1271 Avenue of the Americas, New York, NY",
		"1271 6th Avenue, New York, NY",
		"1271 6th Avenue, New York, NY, USA",
		"Avenue of the Americas, New York, NY",
		"Acme VC, New York, NY",
	}, task.Variants)
	assert.Equal(t, []string{"avenue of the americas", "6th avenue"}, task.Roads)
}

func TestBuildTask_NameOnly(t *testing.T) {
	task := BuildTask(Address{Name: "Beta"})
	assert.Equal(t, "Beta, New York, NY", task.Key)
	assert.Equal(t, []string{"Beta, New York, NY"}, task.Variants)
	assert.Empty(t, task.Roads)
}

func TestBuildTask_Empty(t *testing.T) {
	task := BuildTask(Address{})
	assert.Empty(t, task.Key)
	assert.Empty(t, task.Variants)
}

func TestBuildTask_MultipleSynonyms(t *testing.T) {
	task := BuildTask(Address{Street: "1 Seventh Avenue", City: "New York"})
	assert.Contains(t, task.Variants, "1 7th Avenue, New York")
	assert.Contains(t, task.Roads, "7th avenue")
}

func TestAccept(t *testing.T) {
	task := Task{Roads: []string{"avenue of the americas", "6th avenue"}}
	hit := func(props map[string]string, lat, lng float64) *geocode.Result {
		return &geocode.Result{Lat: lat, Lng: lng, Matched: true, Properties: props}
	}

	tests := []struct {
		name string
		r    *geocode.Result
		want bool
	}{
		{"all checks pass", hit(map[string]string{"city": "New York", "street": "6th Avenue"}, 40.759, -73.981), true},
		{"manhattan district", hit(map[string]string{"district": "Manhattan", "name": "1271 Avenue of the Americas"}, 40.759, -73.981), true},
		{"wrong city", hit(map[string]string{"city": "Jersey City", "street": "6th Avenue"}, 40.72, -74.04), false},
		{"out of bounds", hit(map[string]string{"state": "New York", "street": "6th Avenue"}, 42.65, -73.75), false},
		{"wrong road", hit(map[string]string{"city": "New York", "street": "Broadway"}, 40.759, -73.981), false},
		{"unmatched", &geocode.Result{}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accept(task, tt.r, geo.NYC))
		})
	}
}

func TestAccept_NoRoadsSkipsRoadCheck(t *testing.T) {
	r := &geocode.Result{Lat: 40.75, Lng: -73.98, Matched: true, Properties: map[string]string{"city": "New York"}}
	assert.True(t, Accept(Task{}, r, geo.NYC))
}
