package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/cache"
	"github.com/colmeia-ooh/colmeia/internal/model"
	"github.com/colmeia-ooh/colmeia/internal/optimizer"
	"github.com/colmeia-ooh/colmeia/internal/pagination"
	"github.com/colmeia-ooh/colmeia/internal/report"
	"github.com/colmeia-ooh/colmeia/internal/resolver"
	"github.com/colmeia-ooh/colmeia/internal/store"
)

// handler serves /api. Hexagon sets, point sets and analyses are kept per
// roteiro for the life of the process; ?refresh=true drops a roteiro's
// entries before the request is served.
type handler struct {
	store    store.Store
	hexagons *cache.Cache[[]model.Hexagon]
	points   *cache.Cache[[]model.MediaPoint]
	analyses *cache.Cache[*model.CompleteAnalysis]
}

func newHandler(st store.Store) *handler {
	return &handler{
		store:    st,
		hexagons: cache.New[[]model.Hexagon](),
		points:   cache.New[[]model.MediaPoint](),
		analyses: cache.New[*model.CompleteAnalysis](),
	}
}

type roteiroList struct {
	Roteiros []model.Roteiro     `json:"roteiros"`
	Page     pagination.Page     `json:"pagination"`
	Buttons  []pagination.Button `json:"buttons"`
}

func (h *handler) listRoteiros(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid page")
		return
	}
	size, err := optionalInt(q.Get("size"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid size")
		return
	}
	page, size = pagination.Normalize(page, size)

	roteiros, total, err := h.store.ListRoteiros(r.Context(), store.RoteiroFilter{
		Cidade: q.Get("cidade"),
		Limit:  size,
		Offset: pagination.Offset(page, size),
	})
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	if roteiros == nil {
		roteiros = []model.Roteiro{}
	}

	p := pagination.NewPage(page, size, total)
	respondJSON(w, http.StatusOK, roteiroList{Roteiros: roteiros, Page: p, Buttons: pagination.Buttons(p)})
}

func (h *handler) getRoteiro(w http.ResponseWriter, r *http.Request) {
	pk, err := strconv.ParseInt(chi.URLParam(r, "pk"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid roteiro pk")
		return
	}
	roteiro, err := h.store.GetRoteiro(r.Context(), pk)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, roteiro)
}

func (h *handler) listHexagons(w http.ResponseWriter, r *http.Request) {
	q, ok := h.hexagonQuery(w, r)
	if !ok {
		return
	}
	hexagons, err := h.loadHexagons(r.Context(), q)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"hexagonos": hexagons})
}

type pointView struct {
	model.MediaPoint
	FluxoEfetivo float64 `json:"fluxo_efetivo"`
}

type pointList struct {
	Pontos []pointView      `json:"pontos"`
	Resumo resolver.Summary `json:"resumo"`
}

// listMediaPoints returns the roteiro's points that fall inside (or within
// 1 km of) a hexagon of their own group.
func (h *handler) listMediaPoints(w http.ResponseWriter, r *http.Request) {
	q, ok := h.hexagonQuery(w, r)
	if !ok {
		return
	}
	hexagons, err := h.loadHexagons(r.Context(), q)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	points, err := h.loadPoints(r.Context(), q.DescPK)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	results, summary := resolver.New(hexagons).ClassifyAll(points)
	out := pointList{Pontos: make([]pointView, 0, summary.Accepted), Resumo: summary}
	for _, res := range results {
		if res.Decision.Accepted {
			out.Pontos = append(out.Pontos, pointView{MediaPoint: res.Point, FluxoEfetivo: resolver.EffectiveFlow(res.Point)})
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *handler) getAnalysis(w http.ResponseWriter, r *http.Request) {
	q, ok := h.hexagonQuery(w, r)
	if !ok {
		return
	}
	analysis, err := h.analyze(r.Context(), q)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"analise": analysis})
}

// applySuggestions is not available: relocation is decided by the planning
// team outside this service.
func (h *handler) applySuggestions(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotImplemented, "applying suggestions is not implemented")
}

func (h *handler) exportAnalysis(w http.ResponseWriter, r *http.Request) {
	q, ok := h.hexagonQuery(w, r)
	if !ok {
		return
	}
	analysis, err := h.analyze(r.Context(), q)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	f, err := report.WriteAnalysis(analysis)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	writeWorkbook(w, r, fmt.Sprintf("hexagonos-%d", q.DescPK), f)
}

func (h *handler) exportPoints(w http.ResponseWriter, r *http.Request) {
	q, ok := h.hexagonQuery(w, r)
	if !ok {
		return
	}
	points, err := h.loadPoints(r.Context(), q.DescPK)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	f, err := report.WritePoints(points)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	writeWorkbook(w, r, fmt.Sprintf("pontos-%d", q.DescPK), f)
}

func writeWorkbook(w http.ResponseWriter, r *http.Request, name string, f *xlsx.File) {
	id := uuid.New().String()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.xlsx"`, name, id[:8]))
	w.Header().Set("X-Export-ID", id)
	if err := f.Write(w); err != nil {
		zap.L().Error("server: write workbook", zap.String("export_id", id), zap.Error(err))
		return
	}
	zap.L().Info("server: exported workbook", zap.String("export_id", id), zap.String("name", name), zap.String("path", r.URL.Path))
}

// hexagonQuery parses desc_pk and semana, and applies ?refresh=true.
func (h *handler) hexagonQuery(w http.ResponseWriter, r *http.Request) (model.HexagonQuery, bool) {
	v := r.URL.Query()
	descPK, err := strconv.ParseInt(v.Get("desc_pk"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "desc_pk is required")
		return model.HexagonQuery{}, false
	}
	q := model.HexagonQuery{DescPK: descPK}
	if s := v.Get("semana"); s != "" {
		semana, err := strconv.Atoi(s)
		if err != nil || semana < 0 {
			respondError(w, r, http.StatusBadRequest, "invalid semana")
			return model.HexagonQuery{}, false
		}
		q.Semana = &semana
	}
	if v.Get("refresh") == "true" {
		h.invalidate(descPK)
	}
	return q, true
}

func (h *handler) invalidate(descPK int64) {
	prefix := cache.Key(strconv.FormatInt(descPK, 10))
	n := h.hexagons.Invalidate(prefix) + h.points.Invalidate(prefix) + h.analyses.Invalidate(prefix)
	zap.L().Debug("server: invalidated roteiro cache", zap.Int64("desc_pk", descPK), zap.Int("entries", n))
}

func hexagonKey(q model.HexagonQuery) string {
	semana := "todas"
	if q.Semana != nil {
		semana = strconv.Itoa(*q.Semana)
	}
	return cache.Key(strconv.FormatInt(q.DescPK, 10), "hexagonos", semana)
}

func (h *handler) loadHexagons(ctx context.Context, q model.HexagonQuery) ([]model.Hexagon, error) {
	key := hexagonKey(q)
	if hexagons, ok := h.hexagons.Get(key); ok {
		return hexagons, nil
	}
	hexagons, err := h.store.ListHexagons(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "server: load hexagons")
	}
	if hexagons == nil {
		hexagons = []model.Hexagon{}
	}
	h.hexagons.Put(key, hexagons)
	return hexagons, nil
}

func (h *handler) loadPoints(ctx context.Context, descPK int64) ([]model.MediaPoint, error) {
	key := cache.Key(strconv.FormatInt(descPK, 10), "pontos")
	if points, ok := h.points.Get(key); ok {
		return points, nil
	}
	points, err := h.store.ListMediaPoints(ctx, descPK)
	if err != nil {
		return nil, eris.Wrap(err, "server: load media points")
	}
	if points == nil {
		points = []model.MediaPoint{}
	}
	h.points.Put(key, points)
	return points, nil
}

// analyze returns the cached analysis while the hexagon set it was computed
// from is unchanged.
func (h *handler) analyze(ctx context.Context, q model.HexagonQuery) (*model.CompleteAnalysis, error) {
	hexagons, err := h.loadHexagons(ctx, q)
	if err != nil {
		return nil, err
	}
	key := cache.Key(strconv.FormatInt(q.DescPK, 10), "analise", hexagonKey(q))
	fp := cache.HexagonFingerprint(hexagons)
	if a, ok := h.analyses.GetFresh(key, fp); ok {
		return a, nil
	}
	a := optimizer.Optimize(hexagons)
	h.analyses.PutFresh(key, fp, a)
	return a, nil
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
