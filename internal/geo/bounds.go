// Package geo provides the service-area bounding box, the name hash used to seed
// placeholder coordinates, and the placeholder generator itself.
package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// LatLng is a (latitude, longitude) pair. It marshals as a two-element JSON array.
type LatLng [2]float64

// Lat returns the latitude.
func (p LatLng) Lat() float64 { return p[0] }

// Lng returns the longitude.
func (p LatLng) Lng() float64 { return p[1] }

// Finite reports whether both axes are finite numbers.
func (p LatLng) Finite() bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) && !math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}

// Bounds is a rectangular lat/lng region. Edges are inclusive.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// NYC is the operating region: lat [40.40, 41.10], lng [-74.40, -73.50].
var NYC = Bounds{MinLat: 40.40, MaxLat: 41.10, MinLng: -74.40, MaxLng: -73.50}

// geom returns b as an XY go-geom bounds (x = lng, y = lat).
func (b Bounds) geom() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}

// Contains reports whether the point lies inside b.
func (b Bounds) Contains(lat, lng float64) bool {
	p := LatLng{lat, lng}
	if !p.Finite() {
		return false
	}
	return b.geom().OverlapsPoint(geom.XY, geom.Coord{lng, lat})
}

// ContainsPoint is Contains for a LatLng.
func (b Bounds) ContainsPoint(p LatLng) bool {
	return b.Contains(p.Lat(), p.Lng())
}

// BBox formats b as "minLng,minLat,maxLng,maxLat", the order geocoding APIs expect.
func (b Bounds) BBox() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}
