package report

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/colmeia-ooh/colmeia/internal/model"
)

// Header aliases accepted on import, keyed by folded header text.
var (
	hexagonHeaders = map[string][]string{
		"pk":         {"hexagon_pk", "hexagono", "hexagon"},
		"lat":        {"hex_centroid_lat", "centroid_lat", "latitude"},
		"lon":        {"hex_centroid_lon", "centroid_lon", "longitude"},
		"geometry":   {"geometry_8", "geometry", "wkt"},
		"calculated": {"calculatedfluxoestimado_vl", "fluxo calculado"},
		"estimado":   {"fluxoestimado_vl", "fluxo estimado"},
		"count":      {"count_vl", "pontos", "count"},
		"grupo":      {"grupo_st", "grupo"},
	}
	pointHeaders = map[string][]string{
		"pk":         {"planomidia_pk", "ponto", "pk"},
		"lat":        {"latitude_vl", "latitude", "lat"},
		"lon":        {"longitude_vl", "longitude", "lon", "lng"},
		"grupo":      {"grupo_st", "grupo"},
		"grupoSub":   {"gruposub_st", "subgrupo"},
		"tipo":       {"estaticodigital_st", "tipo"},
		"fluxo":      {"fluxo_vl", "fluxo"},
		"passantes":  {"fluxopassantes_vl", "passantes"},
		"estimado":   {"fluxoestimado_vl", "fluxo estimado"},
		"calculated": {"calculatedfluxoestimado_vl", "fluxo calculado"},
		"cidade":     {"cidade_st", "cidade"},
		"exibidor":   {"exibidor_st", "exibidor"},
		"endereco":   {"endereco_st", "endereco"},
	}
)

// ReadHexagons imports hexagons from the first sheet of an xlsx file.
// Columns are located by header name; hexagon_pk, the centroid and grupo_st
// are required.
func ReadHexagons(path string) ([]model.Hexagon, error) {
	rows, cols, err := readTable(path, hexagonHeaders, "pk", "lat", "lon", "grupo")
	if err != nil {
		return nil, err
	}

	out := make([]model.Hexagon, 0, len(rows))
	for _, row := range rows {
		line := row.line
		pk, err := parseInt(cols.get(row.cells, "pk"))
		if err != nil {
			return nil, eris.Wrapf(err, "report: hexagon row %d: hexagon_pk", line)
		}
		h := model.Hexagon{PK: pk, GeometryWKT: cols.get(row.cells, "geometry"), Grupo: cols.get(row.cells, "grupo")}
		if h.CentroidLat, err = parseFloat(cols.get(row.cells, "lat")); err != nil {
			return nil, eris.Wrapf(err, "report: hexagon row %d: latitude", line)
		}
		if h.CentroidLon, err = parseFloat(cols.get(row.cells, "lon")); err != nil {
			return nil, eris.Wrapf(err, "report: hexagon row %d: longitude", line)
		}
		if h.CalculatedFluxoEstimado, err = parseFloatOr0(cols.get(row.cells, "calculated")); err != nil {
			return nil, eris.Wrapf(err, "report: hexagon row %d: calculatedFluxoEstimado_vl", line)
		}
		if h.FluxoEstimado, err = parseFloatOr0(cols.get(row.cells, "estimado")); err != nil {
			return nil, eris.Wrapf(err, "report: hexagon row %d: fluxoEstimado_vl", line)
		}
		count, err := parseIntOr0(cols.get(row.cells, "count"))
		if err != nil || count < 0 {
			return nil, eris.Errorf("report: hexagon row %d: invalid count_vl %q", line, cols.get(row.cells, "count"))
		}
		h.Count = int(count)
		out = append(out, h)
	}
	return out, nil
}

// ReadMediaPoints imports media points from the first sheet of an xlsx
// file. Empty flow cells stay nil; empty coordinates stay 0 so the point can
// be geocoded later.
func ReadMediaPoints(path string) ([]model.MediaPoint, error) {
	rows, cols, err := readTable(path, pointHeaders, "pk", "grupo")
	if err != nil {
		return nil, err
	}

	out := make([]model.MediaPoint, 0, len(rows))
	for _, row := range rows {
		line := row.line
		pk, err := parseInt(cols.get(row.cells, "pk"))
		if err != nil {
			return nil, eris.Wrapf(err, "report: point row %d: planoMidia_pk", line)
		}
		p := model.MediaPoint{
			PK:              pk,
			Grupo:           cols.get(row.cells, "grupo"),
			GrupoSub:        cols.get(row.cells, "grupoSub"),
			EstaticoDigital: strings.ToUpper(cols.get(row.cells, "tipo")),
			Cidade:          cols.get(row.cells, "cidade"),
			Exibidor:        cols.get(row.cells, "exibidor"),
			Endereco:        cols.get(row.cells, "endereco"),
		}
		if p.Latitude, err = parseFloatOr0(cols.get(row.cells, "lat")); err != nil {
			return nil, eris.Wrapf(err, "report: point row %d: latitude", line)
		}
		if p.Longitude, err = parseFloatOr0(cols.get(row.cells, "lon")); err != nil {
			return nil, eris.Wrapf(err, "report: point row %d: longitude", line)
		}
		for key, dst := range map[string]**float64{
			"fluxo":      &p.Fluxo,
			"passantes":  &p.FluxoPassantes,
			"estimado":   &p.FluxoEstimado,
			"calculated": &p.CalculatedFluxo,
		} {
			if *dst, err = parseNullable(cols.get(row.cells, key)); err != nil {
				return nil, eris.Wrapf(err, "report: point row %d: %s", line, key)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

type columns map[string]int

// tableRow is a non-blank data row with its 1-based spreadsheet line.
type tableRow struct {
	line  int
	cells []string
}

func (c columns) get(row []string, key string) string {
	idx, ok := c[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// readTable loads the first sheet, maps the header row onto aliases and
// returns the non-blank data rows.
func readTable(path string, aliases map[string][]string, required ...string) ([]tableRow, columns, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "report: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("report: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.Errorf("report: sheet %q is empty", sheet.Name)
	}

	byHeader := make(map[string]int)
	for i, cell := range sheet.Rows[0].Cells {
		byHeader[Fold(cell.String())] = i
	}
	cols := make(columns)
	for key, names := range aliases {
		for _, name := range names {
			if idx, ok := byHeader[name]; ok {
				cols[key] = idx
				break
			}
		}
	}
	for _, key := range required {
		if _, ok := cols[key]; !ok {
			return nil, nil, eris.Errorf("report: missing required column %q", aliases[key][0])
		}
	}

	var rows []tableRow
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if blank(cells) {
			continue
		}
		rows = append(rows, tableRow{line: i + 2, cells: cells})
	}
	return rows, cols, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseFloat accepts both "1234.5" and the pt-BR "1.234,5".
func parseFloat(s string) (float64, error) {
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse number %q", s)
	}
	return v, nil
}

func parseFloatOr0(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return parseFloat(s)
}

func parseNullable(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseInt(s string) (int64, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if v != float64(int64(v)) {
		return 0, eris.Errorf("parse integer %q", s)
	}
	return int64(v), nil
}

func parseIntOr0(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return parseInt(s)
}
