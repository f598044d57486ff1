package model

// Sugestao is the recommendation attached to an analyzed hexagon.
type Sugestao string

const (
	SugestaoManter    Sugestao = "manter"
	SugestaoRemover   Sugestao = "remover"
	SugestaoAdicionar Sugestao = "adicionar"
	SugestaoPotencial Sugestao = "potencial"
)

// TipoSugestao distinguishes removal from addition suggestions.
type TipoSugestao string

const (
	TipoRemover   TipoSugestao = "remover"
	TipoAdicionar TipoSugestao = "adicionar"
)

// HexagonAnalysis is a Hexagon plus the efficiency figures derived from the
// set it was analyzed with.
type HexagonAnalysis struct {
	Hexagon
	EficienciaScore      float64  `json:"eficienciaScore"`
	EficienciaPercentual float64  `json:"eficienciaPercentual"`
	FluxoPorPonto        float64  `json:"fluxoPorPonto"`
	Ranking              int      `json:"ranking"`
	Sugestao             Sugestao `json:"sugestao"`
}

// RelocationSuggestion proposes moving points out of or into one hexagon.
type RelocationSuggestion struct {
	Tipo            TipoSugestao    `json:"tipo"`
	Hexagono        HexagonAnalysis `json:"hexagono"`
	PontosSugeridos int             `json:"pontosSugeridos"`
	Justificativa   string          `json:"justificativa"`
	ImpactoFluxo    float64         `json:"impactoFluxo"`
}

// PlanoAtual summarizes the plan as it stands.
type PlanoAtual struct {
	TotalPontos               int     `json:"totalPontos"`
	TotalHexagonos            int     `json:"totalHexagonos"`
	FluxoTotal                float64 `json:"fluxoTotal"`
	FluxoMedio                float64 `json:"fluxoMedio"`
	EficienciaMedia           float64 `json:"eficienciaMedia"`
	HexagonosBaixaPerformance int     `json:"hexagonosBaixaPerformance"`
	HexagonosAltaPerformance  int     `json:"hexagonosAltaPerformance"`
}

// PlanoOtimizado summarizes the proposed relocations.
type PlanoOtimizado struct {
	Sugestoes          []RelocationSuggestion `json:"sugestoes"`
	FluxoRemovido      float64                `json:"fluxoRemovido"`
	FluxoAdicionado    float64                `json:"fluxoAdicionado"`
	GanhoFluxoEstimado float64                `json:"ganhoFluxoEstimado"`
	GanhoPercentual    float64                `json:"ganhoPercentual"`
	PontosRealocados   int                    `json:"pontosRealocados"`
	EconomiaEstimada   float64                `json:"economiaEstimada"`
}

// CompleteAnalysis is the optimizer output for one hexagon set.
type CompleteAnalysis struct {
	PlanoAtual     PlanoAtual        `json:"planoAtual"`
	PlanoOtimizado PlanoOtimizado    `json:"planoOtimizado"`
	Hexagonos      []HexagonAnalysis `json:"hexagonos"`
}

// Removals returns the removal suggestions in emission order.
func (a *CompleteAnalysis) Removals() []RelocationSuggestion {
	return a.byTipo(TipoRemover)
}

// Additions returns the addition suggestions in emission order.
func (a *CompleteAnalysis) Additions() []RelocationSuggestion {
	return a.byTipo(TipoAdicionar)
}

func (a *CompleteAnalysis) byTipo(t TipoSugestao) []RelocationSuggestion {
	var out []RelocationSuggestion
	for _, s := range a.PlanoOtimizado.Sugestoes {
		if s.Tipo == t {
			out = append(out, s)
		}
	}
	return out
}
