// Package model defines the planning records shared by the optimizer, the
// resolver, the store and the HTTP API.
package model

// Hexagon is a fixed-size spatial bin aggregating flow and placement counts
// for a small area. Records are read-only once fetched.
type Hexagon struct {
	PK                      int64   `json:"hexagon_pk"`
	CentroidLat             float64 `json:"hex_centroid_lat"`
	CentroidLon             float64 `json:"hex_centroid_lon"`
	GeometryWKT             string  `json:"geometry_8"`
	CalculatedFluxoEstimado float64 `json:"calculatedFluxoEstimado_vl"`
	FluxoEstimado           float64 `json:"fluxoEstimado_vl"`
	Count                   int     `json:"count_vl"`
	Grupo                   string  `json:"grupo_st"`
}

// HexagonQuery selects the hexagon set of one roteiro, optionally narrowed
// to a single week.
type HexagonQuery struct {
	DescPK int64
	Semana *int
}
