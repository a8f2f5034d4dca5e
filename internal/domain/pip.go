package domain

import "math"

// boundaryTolerance is how far (in degrees) a point may sit from an edge and
// still count as on it. Roughly 0.1 mm at these latitudes.
const boundaryTolerance = 1e-9

// RingContains reports whether pt lies inside ring or on its boundary.
// Interior testing is even-odd ray casting; edges are checked first so
// boundary points are always contained.
func RingContains(ring Ring, pt Position) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[j], ring[i]
		if onSegment(pt, a, b) {
			return true
		}
		if (b.Lat > pt.Lat) != (a.Lat > pt.Lat) {
			x := (a.Lon-b.Lon)*(pt.Lat-b.Lat)/(a.Lat-b.Lat) + b.Lon
			if pt.Lon < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(p, a, b Position) bool {
	if p.Lon < min(a.Lon, b.Lon)-boundaryTolerance || p.Lon > max(a.Lon, b.Lon)+boundaryTolerance ||
		p.Lat < min(a.Lat, b.Lat)-boundaryTolerance || p.Lat > max(a.Lat, b.Lat)+boundaryTolerance {
		return false
	}
	dx, dy := b.Lon-a.Lon, b.Lat-a.Lat
	cross := dx*(p.Lat-a.Lat) - dy*(p.Lon-a.Lon)
	return math.Abs(cross) <= boundaryTolerance*math.Hypot(dx, dy)
}
