// Package resolver decides which media points may be drawn over a hexagon
// set. A point is shown only when it sits inside a hexagon of its own group,
// or close to one, and never when it falls inside another group's hexagon.
package resolver

import (
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/geometry"
	"github.com/colmeia-ooh/colmeia/internal/model"
)

// MaxFallbackDistanceMeters is the proximity tolerance applied when a point
// is inside no hexagon at all.
const MaxFallbackDistanceMeters = 1000.0

// Reason explains a Decision.
type Reason string

const (
	ReasonInsideSameGroup  Reason = "inside_same_group"
	ReasonInsideOtherGroup Reason = "inside_other_group"
	ReasonNearSameGroup    Reason = "near_same_group"
	ReasonTooFar           Reason = "too_far"
	ReasonNoGroupHexagons  Reason = "no_group_hexagons"
)

// Decision is the outcome of classifying one point.
type Decision struct {
	Accepted bool    `json:"accepted"`
	Reason   Reason  `json:"reason"`
	HexPK    int64   `json:"hexagon_pk,omitempty"`
	Distance float64 `json:"distance_m,omitempty"`
}

type indexedHexagon struct {
	pk       int64
	grupo    string
	centroid geometry.Point
	ring     geometry.Ring
}

// Resolver holds a hexagon set with boundaries parsed once, so that many
// points can be classified against it.
type Resolver struct {
	hexagons []indexedHexagon
	byGroup  map[string][]int
	skipped  int
}

// New parses every hexagon boundary. Hexagons with malformed or short rings
// are treated as absent: they take no part in containment or in the
// distance fallback.
func New(hexagons []model.Hexagon) *Resolver {
	r := &Resolver{
		hexagons: make([]indexedHexagon, 0, len(hexagons)),
		byGroup:  make(map[string][]int),
	}
	for _, h := range hexagons {
		ring, err := geometry.ParseWKTRing(h.GeometryWKT)
		if err != nil {
			r.skipped++
			zap.L().Debug("resolver: hexagon boundary ignored",
				zap.Int64("hexagon_pk", h.PK),
				zap.Error(err),
			)
			continue
		}
		r.byGroup[h.Grupo] = append(r.byGroup[h.Grupo], len(r.hexagons))
		r.hexagons = append(r.hexagons, indexedHexagon{
			pk:       h.PK,
			grupo:    h.Grupo,
			centroid: geometry.Point{Lat: h.CentroidLat, Lon: h.CentroidLon},
			ring:     ring,
		})
	}
	return r
}

// Len returns the number of usable hexagons held.
func (r *Resolver) Len() int { return len(r.hexagons) }

// Skipped returns how many hexagons had an unusable boundary.
func (r *Resolver) Skipped() int { return r.skipped }

// IsRenderable reports whether p may be displayed.
func (r *Resolver) IsRenderable(p model.MediaPoint) bool {
	return r.Classify(p).Accepted
}

// Classify applies the containment rules to p. Containment in another
// group's hexagon always rejects, even when a same-group hexagon also
// contains the point.
func (r *Resolver) Classify(p model.MediaPoint) Decision {
	pt := geometry.Point{Lat: p.Latitude, Lon: p.Longitude}

	var sameHex int64
	insideSame := false
	for _, h := range r.hexagons {
		if !h.ring.Contains(pt) {
			continue
		}
		if h.grupo != p.Grupo {
			return Decision{Accepted: false, Reason: ReasonInsideOtherGroup, HexPK: h.pk}
		}
		if !insideSame {
			insideSame = true
			sameHex = h.pk
		}
	}
	if insideSame {
		return Decision{Accepted: true, Reason: ReasonInsideSameGroup, HexPK: sameHex}
	}

	idx := r.byGroup[p.Grupo]
	if len(idx) == 0 {
		return Decision{Accepted: false, Reason: ReasonNoGroupHexagons}
	}

	best := -1
	var bestDist float64
	for _, i := range idx {
		d := geometry.HaversineMeters(pt, r.hexagons[i].centroid)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if withinFallback(bestDist) {
		return Decision{Accepted: true, Reason: ReasonNearSameGroup, HexPK: r.hexagons[best].pk, Distance: bestDist}
	}
	return Decision{Accepted: false, Reason: ReasonTooFar, HexPK: r.hexagons[best].pk, Distance: bestDist}
}

func withinFallback(meters float64) bool {
	return meters < MaxFallbackDistanceMeters
}

// IsRenderable classifies a single point against a hexagon set. Callers
// testing many points should build a Resolver once instead.
func IsRenderable(p model.MediaPoint, hexagons []model.Hexagon) bool {
	return New(hexagons).IsRenderable(p)
}
