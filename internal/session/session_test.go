package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ipo-sim/internal/geo"
	"github.com/sells-group/ipo-sim/internal/model"
)

func TestOverrides_SetGetClear(t *testing.T) {
	o := NewOverrides()
	o.Set(3, geo.LatLng{40.7, -73.9})
	o.Set(-1000000, geo.LatLng{40.8, -73.95})
	o.Set(3, geo.LatLng{40.71, -73.91})

	p, ok := o.Get(3)
	require.True(t, ok)
	assert.Equal(t, geo.LatLng{40.71, -73.91}, p)
	assert.Equal(t, 2, o.Len())
	assert.Equal(t, []int{-1000000, 3}, o.IDs())

	o.Clear()
	assert.False(t, o.Has(3))
	assert.Empty(t, o.All())
}

func TestOverrides_Apply(t *testing.T) {
	placeholder := geo.PlaceholderFor("a")
	firms := []model.Firm{
		{ID: 1, Name: "a", Position: &placeholder, Placeholder: true},
		{ID: 2, Name: "b", Position: &placeholder, Placeholder: true},
	}
	o := NewOverrides()
	o.Set(1, geo.LatLng{40.75, -73.98})

	out := o.Apply(firms)
	assert.Equal(t, geo.LatLng{40.75, -73.98}, *out[0].Position)
	assert.False(t, out[0].Placeholder)
	assert.True(t, out[1].Placeholder)
	assert.True(t, firms[0].Placeholder)
	assert.Equal(t, placeholder, *firms[0].Position)
}

func TestOverrides_ConcurrentSet(t *testing.T) {
	o := NewOverrides()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			o.Set(id, geo.LatLng{40.7, -73.9})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, o.Len())
}

func TestCategoryFilter_ToggleKeepsOneActive(t *testing.T) {
	f := NewCategoryFilter()
	assert.Equal(t, model.Categories, f.Active())

	for _, c := range model.Categories[1:] {
		assert.True(t, f.Toggle(c))
	}
	assert.Equal(t, []model.Category{model.Categories[0]}, f.Active())

	assert.False(t, f.Toggle(model.Categories[0]))
	assert.True(t, f.Allows(model.Categories[0]))

	f.Reset()
	assert.Len(t, f.Active(), len(model.Categories))
}

func TestCategoryFilter_SetAndFilter(t *testing.T) {
	f := NewCategoryFilter()
	f.Set([]model.Category{model.CategoryVC, "Hedge"})

	firms := []model.Firm{
		{ID: 1, Category: model.CategoryVC},
		{ID: 2, Category: model.CategoryPE},
	}
	out := f.Filter(firms)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ID)

	f.Set(nil)
	assert.Len(t, f.Filter(firms), 2)
}

func TestCategoryFilter_ToggleInvalid(t *testing.T) {
	assert.False(t, NewCategoryFilter().Toggle("Hedge"))
}

func TestSession_Selection(t *testing.T) {
	s := New()
	_, ok := s.Selected()
	assert.False(t, ok)

	s.Select(7)
	id, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	s.ClearSelection()
	_, ok = s.Selected()
	assert.False(t, ok)
}
