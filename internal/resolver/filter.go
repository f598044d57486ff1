package resolver

import (
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/model"
)

// Result pairs a normalized point with its classification.
type Result struct {
	Point    model.MediaPoint `json:"point"`
	Decision Decision         `json:"decision"`
}

// Summary counts decisions by reason.
type Summary struct {
	Total    int            `json:"total"`
	Accepted int            `json:"accepted"`
	Rejected int            `json:"rejected"`
	ByReason map[Reason]int `json:"by_reason"`
}

// ClassifyAll normalizes every point and classifies it. Normalization runs
// first because labels downstream read the corrected subgroup.
func (r *Resolver) ClassifyAll(points []model.MediaPoint) ([]Result, Summary) {
	results := make([]Result, 0, len(points))
	sum := Summary{Total: len(points), ByReason: make(map[Reason]int)}
	for _, p := range points {
		np := NormalizeSubGroup(p)
		d := r.Classify(np)
		results = append(results, Result{Point: np, Decision: d})
		sum.ByReason[d.Reason]++
		if d.Accepted {
			sum.Accepted++
		} else {
			sum.Rejected++
		}
	}

	zap.L().Debug("resolver: classified points",
		zap.Int("total", sum.Total),
		zap.Int("accepted", sum.Accepted),
		zap.Int("rejected", sum.Rejected),
		zap.Int("hexagons", r.Len()),
		zap.Int("hexagons_skipped", r.skipped),
	)
	return results, sum
}

// Filter returns the normalized points that may be displayed, preserving
// input order.
func (r *Resolver) Filter(points []model.MediaPoint) []model.MediaPoint {
	results, _ := r.ClassifyAll(points)
	out := make([]model.MediaPoint, 0, len(results))
	for _, res := range results {
		if res.Decision.Accepted {
			out = append(out, res.Point)
		}
	}
	return out
}
