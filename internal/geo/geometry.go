package geo

import "math"

const earthRadiusMeters = 6371000

// Precision is the number of decimals coordinates are rounded to (about 1.1 m)
const Precision = 5

// SimplifyTolerance is the minimum spacing, in degrees, between kept points
const SimplifyTolerance = 0.0002

// SimplifyThreshold is the point count above which lines are simplified
const SimplifyThreshold = 100

// Haversine calculates the distance between two points in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// LineLength calculates the total length of a line in meters
// coords are [lng, lat] pairs
func LineLength(coords [][2]float64) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += Haversine(
			coords[i-1][1], coords[i-1][0],
			coords[i][1], coords[i][0],
		)
	}
	return total
}

// Round rounds a value to the given number of decimals
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// RoundCoords returns a copy of coords rounded to Precision decimals
func RoundCoords(coords [][2]float64) [][2]float64 {
	out := make([][2]float64, len(coords))
	for i, c := range coords {
		out[i] = [2]float64{Round(c[0], Precision), Round(c[1], Precision)}
	}
	return out
}

// Simplify drops intermediate points closer than tolerance (planar degrees)
// to the last kept point. The first and last points are always kept.
// This is a declutter pass, not Douglas-Peucker.
func Simplify(coords [][2]float64, tolerance float64) [][2]float64 {
	if len(coords) <= 2 {
		return coords
	}

	out := [][2]float64{coords[0]}
	for _, c := range coords[1 : len(coords)-1] {
		last := out[len(out)-1]
		if math.Hypot(c[0]-last[0], c[1]-last[1]) >= tolerance {
			out = append(out, c)
		}
	}
	return append(out, coords[len(coords)-1])
}

// ValidCoordinate reports whether lat/lon are inside the WGS84 ranges
func ValidCoordinate(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) &&
		lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// BBox is a latitude/longitude bounding box
type BBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box, edges included
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// IsZero reports whether the box is unset
func (b BBox) IsZero() bool {
	return b == BBox{}
}
