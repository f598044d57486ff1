// Package geometry holds the planar and spherical routines used to place
// media points against hexagon boundaries.
package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// MinRingVertices is the smallest vertex count a usable ring can have.
const MinRingVertices = 3

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Ring is an ordered exterior ring. The closing vertex may or may not repeat
// the first one; containment does not depend on it.
type Ring []Point

// ParseWKTRing parses a POLYGON (or the first polygon of a MULTIPOLYGON) and
// returns its exterior ring as lat/lon vertices. Rings with fewer than
// MinRingVertices vertices are rejected.
func ParseWKTRing(s string) (Ring, error) {
	if s == "" {
		return nil, eris.New("geometry: empty wkt")
	}

	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: parse wkt")
	}

	var poly *geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		poly = t
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil, eris.New("geometry: empty multipolygon")
		}
		poly = t.Polygon(0)
	default:
		return nil, eris.Errorf("geometry: unsupported geometry %T", g)
	}

	if poly.NumLinearRings() == 0 {
		return nil, eris.New("geometry: polygon has no rings")
	}

	coords := poly.LinearRing(0).Coords()
	if len(coords) < MinRingVertices {
		return nil, eris.Errorf("geometry: ring has %d vertices, need %d", len(coords), MinRingVertices)
	}

	ring := make(Ring, 0, len(coords))
	for _, c := range coords {
		// WKT stores x=lon, y=lat.
		ring = append(ring, Point{Lat: c.Y(), Lon: c.X()})
	}
	return ring, nil
}

// Contains reports whether p lies inside the ring using the even-odd rule:
// a ray cast eastward from p toggles the result on every edge it crosses.
func (r Ring) Contains(p Point) bool {
	n := len(r)
	if n < MinRingVertices {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, yj := r[i].Lat, r[j].Lat
		if (yi > p.Lat) == (yj > p.Lat) {
			continue
		}
		xi, xj := r[i].Lon, r[j].Lon
		crossLon := (xj-xi)*(p.Lat-yi)/(yj-yi) + xi
		if p.Lon < crossLon {
			inside = !inside
		}
	}
	return inside
}
