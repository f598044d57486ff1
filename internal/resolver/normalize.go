package resolver

import (
	"strings"

	"github.com/colmeia-ooh/colmeia/internal/model"
)

// NormalizeSubGroup rewrites a missing or inconsistent subgroup as the group
// followed by the medium type (digital when absent). A subgroup must start
// with its group.
func NormalizeSubGroup(p model.MediaPoint) model.MediaPoint {
	if p.GrupoSub != "" && strings.HasPrefix(p.GrupoSub, p.Grupo) {
		return p
	}
	tipo := p.EstaticoDigital
	if tipo == "" {
		tipo = model.TipoDigital
	}
	p.GrupoSub = p.Grupo + tipo
	return p
}

// EffectiveFlow picks the flow used to size a point's marker: the first
// strictly positive value among fluxo_vl, fluxoPassantes_vl,
// fluxoEstimado_vl and calculatedFluxoEstimado_vl, or 0.
func EffectiveFlow(p model.MediaPoint) float64 {
	for _, v := range []*float64{p.Fluxo, p.FluxoPassantes, p.FluxoEstimado, p.CalculatedFluxo} {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}
