// Package optimizer ranks hexagons by flow efficiency and proposes a small
// set of point relocations, moving points from low-yield hexagons into
// high-yield ones.
package optimizer

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/model"
)

const (
	maxRemovals          = 3
	maxAdditions         = 3
	additionMaxCount     = 3 // hexagons below this count may receive points
	maxPointsPerAddition = 2
	lowPercentile        = 0.25
	highPercentile       = 0.75
)

// Optimize analyzes a hexagon set. It returns nil when no analysis is
// available: an empty set, a set whose mean flow is zero, or any
// computation that would produce a non-finite figure. Results are never
// partial.
func Optimize(hexagons []model.Hexagon) *model.CompleteAnalysis {
	n := len(hexagons)
	if n == 0 {
		return nil
	}

	totalPontos := 0
	fluxoTotal := 0.0
	for _, h := range hexagons {
		totalPontos += h.Count
		fluxoTotal += h.CalculatedFluxoEstimado
	}
	fluxoMedio := fluxoTotal / float64(n)
	if fluxoMedio == 0 || !finite(fluxoMedio) {
		zap.L().Debug("optimizer: degenerate flow, no analysis",
			zap.Int("hexagons", n),
			zap.Float64("fluxo_total", fluxoTotal),
		)
		return nil
	}

	analyzed := make([]model.HexagonAnalysis, n)
	for i, h := range hexagons {
		score := h.CalculatedFluxoEstimado / fluxoMedio
		var porPonto float64
		if h.Count > 0 {
			porPonto = h.CalculatedFluxoEstimado / float64(h.Count)
		}
		analyzed[i] = model.HexagonAnalysis{
			Hexagon:              h,
			EficienciaScore:      score,
			EficienciaPercentual: score * 100,
			FluxoPorPonto:        porPonto,
			Sugestao:             model.SugestaoManter,
		}
	}

	assignRanking(analyzed)

	eficiencias := make([]float64, n)
	var somaEficiencia float64
	for i, a := range analyzed {
		eficiencias[i] = a.EficienciaPercentual
		somaEficiencia += a.EficienciaPercentual
	}
	p25 := NearestRank(eficiencias, lowPercentile)
	p75 := NearestRank(eficiencias, highPercentile)

	var baixa, alta int
	for _, a := range analyzed {
		if a.EficienciaPercentual <= p25 {
			baixa++
		}
		if a.EficienciaPercentual >= p75 {
			alta++
		}
	}

	removals, removalIdx := buildRemovals(analyzed)
	pontosDisponiveis := 0
	for _, s := range removals {
		pontosDisponiveis += s.PontosSugeridos
	}
	additions, additionIdx := buildAdditions(analyzed, pontosDisponiveis, len(removals))

	// Suggestions carry each hexagon's final marking, which an addition may
	// have changed after the removal was built.
	for i, idx := range removalIdx {
		removals[i].Hexagono = analyzed[idx]
	}
	for i, idx := range additionIdx {
		additions[i].Hexagono = analyzed[idx]
	}

	var fluxoRemovido, fluxoAdicionado float64
	pontosRealocados := 0
	for _, s := range removals {
		fluxoRemovido += math.Abs(s.ImpactoFluxo)
		pontosRealocados += s.PontosSugeridos
	}
	for _, s := range additions {
		fluxoAdicionado += s.ImpactoFluxo
	}
	ganho := fluxoAdicionado - fluxoRemovido

	result := &model.CompleteAnalysis{
		PlanoAtual: model.PlanoAtual{
			TotalPontos:               totalPontos,
			TotalHexagonos:            n,
			FluxoTotal:                fluxoTotal,
			FluxoMedio:                fluxoMedio,
			EficienciaMedia:           somaEficiencia / float64(n),
			HexagonosBaixaPerformance: baixa,
			HexagonosAltaPerformance:  alta,
		},
		PlanoOtimizado: model.PlanoOtimizado{
			Sugestoes:          append(removals, additions...),
			FluxoRemovido:      fluxoRemovido,
			FluxoAdicionado:    fluxoAdicionado,
			GanhoFluxoEstimado: ganho,
			GanhoPercentual:    ganho / fluxoTotal * 100,
			PontosRealocados:   pontosRealocados,
			EconomiaEstimada:   fluxoRemovido / fluxoTotal * 100,
		},
		Hexagonos: analyzed,
	}

	if !analysisFinite(result) {
		zap.L().Debug("optimizer: non-finite result discarded", zap.Int("hexagons", n))
		return nil
	}

	zap.L().Debug("optimizer: analysis complete",
		zap.Int("hexagons", n),
		zap.Int("removals", len(removals)),
		zap.Int("additions", len(additions)),
		zap.Float64("ganho_fluxo", ganho),
	)
	return result
}

// assignRanking numbers hexagons 1..n by flow, highest first. Ties keep
// input order.
func assignRanking(analyzed []model.HexagonAnalysis) {
	order := make([]int, len(analyzed))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return analyzed[order[a]].CalculatedFluxoEstimado > analyzed[order[b]].CalculatedFluxoEstimado
	})
	for rank, idx := range order {
		analyzed[idx].Ranking = rank + 1
	}
}

// buildRemovals picks the occupied hexagons with the lowest flow per point.
// It also returns the index into analyzed of each suggestion's hexagon.
func buildRemovals(analyzed []model.HexagonAnalysis) ([]model.RelocationSuggestion, []int) {
	var candidates []int
	for i, a := range analyzed {
		if a.Count > 0 {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return analyzed[candidates[a]].FluxoPorPonto < analyzed[candidates[b]].FluxoPorPonto
	})
	if len(candidates) > maxRemovals {
		candidates = candidates[:maxRemovals]
	}

	out := make([]model.RelocationSuggestion, 0, len(candidates))
	for _, idx := range candidates {
		analyzed[idx].Sugestao = model.SugestaoRemover
		a := analyzed[idx]
		out = append(out, model.RelocationSuggestion{
			Tipo:            model.TipoRemover,
			Hexagono:        a,
			PontosSugeridos: a.Count,
			Justificativa: fmt.Sprintf(
				"Baixo fluxo por ponto (%.0f) com %d ponto(s); posicao %d no ranking de fluxo",
				a.FluxoPorPonto, a.Count, a.Ranking),
			ImpactoFluxo: -a.CalculatedFluxoEstimado,
		})
	}
	return out, candidates
}

// buildAdditions pairs the best under-occupied hexagons index for index with
// the removals already emitted, drawing from the pool of freed points.
func buildAdditions(analyzed []model.HexagonAnalysis, pontosDisponiveis, removals int) ([]model.RelocationSuggestion, []int) {
	var candidates []int
	for i, a := range analyzed {
		if a.Count < additionMaxCount {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return analyzed[candidates[a]].FluxoPorPonto > analyzed[candidates[b]].FluxoPorPonto
	})
	if len(candidates) > maxAdditions {
		candidates = candidates[:maxAdditions]
	}

	var out []model.RelocationSuggestion
	var emitted []int
	for i, idx := range candidates {
		if pontosDisponiveis <= 0 || i >= removals {
			if analyzed[idx].Sugestao == model.SugestaoManter {
				analyzed[idx].Sugestao = model.SugestaoPotencial
			}
			continue
		}

		pontos := min(maxPointsPerAddition, pontosDisponiveis)
		pontosDisponiveis -= pontos

		analyzed[idx].Sugestao = model.SugestaoAdicionar
		emitted = append(emitted, idx)
		a := analyzed[idx]
		out = append(out, model.RelocationSuggestion{
			Tipo:            model.TipoAdicionar,
			Hexagono:        a,
			PontosSugeridos: pontos,
			Justificativa: fmt.Sprintf(
				"Alto fluxo por ponto (%.0f) com apenas %d ponto(s); posicao %d no ranking de fluxo",
				a.FluxoPorPonto, a.Count, a.Ranking),
			ImpactoFluxo: a.CalculatedFluxoEstimado * (float64(pontos) / float64(a.Count+1)),
		})
	}
	return out, emitted
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func analysisFinite(a *model.CompleteAnalysis) bool {
	p, o := a.PlanoAtual, a.PlanoOtimizado
	for _, v := range []float64{p.FluxoTotal, p.FluxoMedio, p.EficienciaMedia,
		o.FluxoRemovido, o.FluxoAdicionado, o.GanhoFluxoEstimado, o.GanhoPercentual, o.EconomiaEstimada} {
		if !finite(v) {
			return false
		}
	}
	for _, h := range a.Hexagonos {
		if !finite(h.EficienciaScore) || !finite(h.FluxoPorPonto) {
			return false
		}
	}
	return true
}
