package survey

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// DefaultZone is used for unknown zone names and as the startup zone.
const DefaultZone = "Serbule"

// Zone is a named game area with fixed dimensions in meters.
type Zone struct {
	Name   string
	Width  int
	Height int
}

var zones = []Zone{
	{Name: "Serbule", Width: 2382, Height: 2488},
	{Name: "Serbule Hills", Width: 2748, Height: 2668},
	{Name: "Eltibule", Width: 2684, Height: 2778},
	{Name: "Ilmari", Width: 2920, Height: 2920},
	{Name: "Kur Mountains", Width: 3000, Height: 3000},
}

// maxSuggestDistance bounds how far a typo may be from a known zone name.
const maxSuggestDistance = 3

// Zones returns the known zones in table order.
func Zones() []Zone {
	out := make([]Zone, len(zones))
	copy(out, zones)
	return out
}

// LookupZone returns the zone with the exact name.
func LookupZone(name string) (Zone, bool) {
	for _, z := range zones {
		if z.Name == name {
			return z, true
		}
	}
	return Zone{}, false
}

// Dimensions returns the (width, height) in meters for a zone, falling back
// to the default zone for unknown names.
func Dimensions(name string) (float64, float64) {
	z, ok := LookupZone(name)
	if !ok {
		z, _ = LookupZone(DefaultZone)
	}
	return float64(z.Width), float64(z.Height)
}

// SuggestZone returns the known zone closest to name by edit distance. It is
// only a hint for logging and input fields; Dimensions never uses it.
func SuggestZone(name string) (string, bool) {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, z := range zones {
		d := levenshtein.ComputeDistance(name, z.Name)
		if d < bestDist {
			best, bestDist = z.Name, d
		}
	}
	if best == "" || best == name {
		return "", false
	}
	return best, true
}

// NextZone returns the zone after name in table order, wrapping around.
// Unknown names start from the first zone.
func NextZone(name string) string {
	for i, z := range zones {
		if z.Name == name {
			return zones[(i+1)%len(zones)].Name
		}
	}
	return zones[0].Name
}

// Point is a position in meters within a zone.
type Point struct {
	X float64
	Y float64
}

// Distance is the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// PlayerMeters converts a normalized player position to meters.
func PlayerMeters(pos [2]float64, width, height float64) Point {
	return Point{X: pos[0] * width, Y: pos[1] * height}
}

// Locate converts a survey offset to an absolute position by adding it to the
// player's position, clamped to the zone bounds.
func Locate(player Point, s Survey, width, height float64) Point {
	return Point{
		X: clamp(player.X+float64(s.DX), 0, width),
		Y: clamp(player.Y+float64(s.DY), 0, height),
	}
}

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
