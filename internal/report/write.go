// Package report renders analyses and media points as xlsx workbooks and
// imports hexagon and point spreadsheets.
package report

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/colmeia-ooh/colmeia/internal/model"
	"github.com/colmeia-ooh/colmeia/internal/resolver"
)

// Sheet names.
const (
	SheetResumo     = "Resumo"
	SheetHexagonos  = "Hexagonos"
	SheetSugestoes  = "Sugestoes"
	SheetPontos     = "Pontos"
	SheetExibidores = "Exibidores"
	SheetCidades    = "Cidades"
)

// WriteAnalysis renders an optimizer result. A nil analysis yields a
// workbook whose summary sheet says no analysis is available.
func WriteAnalysis(a *model.CompleteAnalysis) (*xlsx.File, error) {
	f := xlsx.NewFile()
	resumo, err := f.AddSheet(SheetResumo)
	if err != nil {
		return nil, eris.Wrap(err, "report: add summary sheet")
	}
	if a == nil {
		addRow(resumo, "Análise indisponível")
		return f, nil
	}

	atual, otim := a.PlanoAtual, a.PlanoOtimizado
	addRow(resumo, "Indicador", "Valor")
	addRow(resumo, "Total de pontos", atual.TotalPontos)
	addRow(resumo, "Total de hexágonos", atual.TotalHexagonos)
	addRow(resumo, "Fluxo total", atual.FluxoTotal)
	addRow(resumo, "Fluxo médio", atual.FluxoMedio)
	addRow(resumo, "Eficiência média", atual.EficienciaMedia)
	addRow(resumo, "Hexágonos de baixa performance", atual.HexagonosBaixaPerformance)
	addRow(resumo, "Hexágonos de alta performance", atual.HexagonosAltaPerformance)
	addRow(resumo, "Fluxo removido", otim.FluxoRemovido)
	addRow(resumo, "Fluxo adicionado", otim.FluxoAdicionado)
	addRow(resumo, "Ganho de fluxo estimado", otim.GanhoFluxoEstimado)
	addRow(resumo, "Ganho percentual", otim.GanhoPercentual)
	addRow(resumo, "Pontos realocados", otim.PontosRealocados)
	addRow(resumo, "Economia estimada", otim.EconomiaEstimada)

	hexSheet, err := f.AddSheet(SheetHexagonos)
	if err != nil {
		return nil, eris.Wrap(err, "report: add hexagon sheet")
	}
	addRow(hexSheet, "hexagon_pk", "grupo_st", "count_vl", "calculatedFluxoEstimado_vl",
		"fluxoPorPonto", "eficienciaScore", "eficienciaPercentual", "ranking", "sugestao")
	for _, h := range a.Hexagonos {
		addRow(hexSheet, h.PK, h.Grupo, h.Count, h.CalculatedFluxoEstimado,
			h.FluxoPorPonto, h.EficienciaScore, h.EficienciaPercentual, h.Ranking, string(h.Sugestao))
	}

	sug, err := f.AddSheet(SheetSugestoes)
	if err != nil {
		return nil, eris.Wrap(err, "report: add suggestion sheet")
	}
	addRow(sug, "tipo", "hexagon_pk", "grupo_st", "pontosSugeridos", "impactoFluxo", "justificativa")
	for _, s := range a.PlanoOtimizado.Sugestoes {
		addRow(sug, string(s.Tipo), s.Hexagono.PK, s.Hexagono.Grupo, s.PontosSugeridos, s.ImpactoFluxo, s.Justificativa)
	}
	return f, nil
}

// Aggregate is the point count and summed effective flow of one exhibitor
// or city.
type Aggregate struct {
	Nome   string
	Pontos int
	Fluxo  float64
}

// WritePoints renders media points with their normalized subgroup and
// effective flow, plus per-exhibitor and per-city totals.
func WritePoints(points []model.MediaPoint) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetPontos)
	if err != nil {
		return nil, eris.Wrap(err, "report: add points sheet")
	}
	addRow(sheet, "planoMidia_pk", "grupo_st", "grupoSub_st", "estaticoDigital_st",
		"latitude_vl", "longitude_vl", "cidade_st", "exibidor_st", "endereco_st", "fluxo_efetivo")
	for _, p := range points {
		p = resolver.NormalizeSubGroup(p)
		addRow(sheet, p.PK, p.Grupo, p.GrupoSub, p.EstaticoDigital,
			p.Latitude, p.Longitude, p.Cidade, p.Exibidor, p.Endereco, resolver.EffectiveFlow(p))
	}

	for _, g := range []struct {
		name string
		key  func(model.MediaPoint) string
	}{
		{SheetExibidores, func(p model.MediaPoint) string { return p.Exibidor }},
		{SheetCidades, func(p model.MediaPoint) string { return p.Cidade }},
	} {
		s, err := f.AddSheet(g.name)
		if err != nil {
			return nil, eris.Wrapf(err, "report: add %s sheet", g.name)
		}
		addRow(s, "nome", "pontos", "fluxo")
		for _, agg := range GroupBy(points, g.key) {
			addRow(s, agg.Nome, agg.Pontos, agg.Fluxo)
		}
	}
	return f, nil
}

// GroupBy totals points by the folded form of key. Each group keeps the
// first spelling seen. Groups are ordered by flow, then by name.
func GroupBy(points []model.MediaPoint, key func(model.MediaPoint) string) []Aggregate {
	idx := make(map[string]int)
	var out []Aggregate
	for _, p := range points {
		name := key(p)
		k := Fold(name)
		if k == "" {
			name, k = "(sem nome)", ""
		}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Aggregate{Nome: name})
		}
		out[i].Pontos++
		out[i].Fluxo += resolver.EffectiveFlow(p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Fluxo != out[j].Fluxo {
			return out[i].Fluxo > out[j].Fluxo
		}
		return Fold(out[i].Nome) < Fold(out[j].Nome)
	})
	return out
}

func addRow(sheet *xlsx.Sheet, values ...any) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		switch v := v.(type) {
		case string:
			cell.SetString(v)
		case int:
			cell.SetInt(v)
		case int64:
			cell.SetInt64(v)
		case float64:
			cell.SetFloat(v)
		default:
			cell.SetValue(v)
		}
	}
}
