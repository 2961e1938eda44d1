package geo

import (
	"math"
	"unicode"
	"unicode/utf16"
)

// Center is the fixed point placeholders are offset from (Midtown Manhattan).
var Center = LatLng{40.758, -73.9855}

// placeholderSpread is the maximum offset in degrees applied to Center.
const placeholderSpread = 0.01

// HashKey hashes s with the classic 31-multiplier string hash over the first
// UTF-16 unit of each code point, wrapping at 32 bits, and returns its absolute value.
func HashKey(s string) int64 {
	var h int32
	for _, r := range s {
		unit := r
		if r1, _ := utf16.EncodeRune(r); r1 != unicode.ReplacementChar {
			unit = r1
		}
		h = h*31 + int32(unit)
	}
	return int64(math.Abs(float64(h)))
}

// Placeholder returns the deterministic placeholder position for a seed.
func Placeholder(seed int64) LatLng {
	s := float64(seed)
	return LatLng{
		Center.Lat() + math.Sin(s+1)*placeholderSpread,
		Center.Lng() + math.Cos(s+2)*placeholderSpread,
	}
}

// PlaceholderFor returns the placeholder position seeded by a firm name.
func PlaceholderFor(name string) LatLng {
	return Placeholder(HashKey(name))
}
