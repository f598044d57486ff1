package model

// Medium types carried in estaticoDigital_st.
const (
	TipoDigital  = "D"
	TipoEstatico = "E"
)

// MediaPoint is a single placement of an out-of-home asset.
type MediaPoint struct {
	PK              int64    `json:"planoMidia_pk"`
	DescPK          int64    `json:"planoMidiaDesc_pk,omitempty"`
	Latitude        float64  `json:"latitude_vl"`
	Longitude       float64  `json:"longitude_vl"`
	Grupo           string   `json:"grupo_st"`
	GrupoSub        string   `json:"grupoSub_st"`
	EstaticoDigital string   `json:"estaticoDigital_st"`
	Fluxo           *float64 `json:"fluxo_vl"`
	FluxoPassantes  *float64 `json:"fluxoPassantes_vl"`
	FluxoEstimado   *float64 `json:"fluxoEstimado_vl"`
	CalculatedFluxo *float64 `json:"calculatedFluxoEstimado_vl"`
	Cidade          string   `json:"cidade_st,omitempty"`
	Exibidor        string   `json:"exibidor_st,omitempty"`
	Endereco        string   `json:"endereco_st,omitempty"`
}

// HasLocation reports whether the point carries usable coordinates.
func (p MediaPoint) HasLocation() bool {
	return p.Latitude != 0 || p.Longitude != 0
}

// Float returns a pointer to v. Handy for building points with nullable flows.
func Float(v float64) *float64 {
	return &v
}
