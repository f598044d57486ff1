package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colmeia-ooh/colmeia/internal/model"
	"github.com/colmeia-ooh/colmeia/internal/optimizer"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

const square = "POLYGON((-46.64 -23.56, -46.63 -23.56, -46.63 -23.55, -46.64 -23.55, -46.64 -23.56))"

// --- Roteiros ---

func TestSQLite_Roteiro_UpsertGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertRoteiro(ctx, &model.Roteiro{PK: 7, Nome: "Campanha", Cidade: "São Paulo", Semanas: 4}))
	require.NoError(t, st.UpsertRoteiro(ctx, &model.Roteiro{PK: 7, Nome: "Campanha v2", Cidade: "São Paulo", Semanas: 6}))

	r, err := st.GetRoteiro(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Campanha v2", r.Nome)
	assert.Equal(t, 6, r.Semanas)
	assert.False(t, r.CriadoEm.IsZero())
}

func TestSQLite_Roteiro_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRoteiro(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListRoteiros_Paging(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		cidade := "Rio de Janeiro"
		if i%2 == 0 {
			cidade = "Curitiba"
		}
		require.NoError(t, st.UpsertRoteiro(ctx, &model.Roteiro{PK: i, Nome: "R", Cidade: cidade}))
	}

	page, total, err := st.ListRoteiros(ctx, RoteiroFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	page, total, err = st.ListRoteiros(ctx, RoteiroFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 1)

	page, total, err = st.ListRoteiros(ctx, RoteiroFilter{Cidade: "curitiba"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, page, 2)
}

// --- Hexagons ---

func TestSQLite_Hexagons_UpsertAndWeekFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	week1 := []model.Hexagon{
		{PK: 1, CentroidLat: -23.555, CentroidLon: -46.635, GeometryWKT: square, CalculatedFluxoEstimado: 1000, Count: 2, Grupo: "G1"},
		{PK: 2, CentroidLat: -23.5, CentroidLon: -46.6, CalculatedFluxoEstimado: 50, Count: 1, Grupo: "G1"},
	}
	n, err := st.UpsertHexagons(ctx, 10, 1, week1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = st.UpsertHexagons(ctx, 10, 2, week1[:1])
	require.NoError(t, err)

	// Re-import overwrites in place.
	week1[0].CalculatedFluxoEstimado = 1500
	_, err = st.UpsertHexagons(ctx, 10, 1, week1[:1])
	require.NoError(t, err)

	semana := 1
	got, err := st.ListHexagons(ctx, model.HexagonQuery{DescPK: 10, Semana: &semana})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].PK)
	assert.InDelta(t, 1500, got[0].CalculatedFluxoEstimado, 1e-9)
	assert.Equal(t, square, got[0].GeometryWKT)
	assert.Equal(t, "G1", got[1].Grupo)

	all, err := st.ListHexagons(ctx, model.HexagonQuery{DescPK: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.InDelta(t, 1500, all[0].CalculatedFluxoEstimado, 1e-9)

	none, err := st.ListHexagons(ctx, model.HexagonQuery{DescPK: 11})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_Hexagons_NoWeekIsOneRowPerHexagon(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	set := func(flow float64) []model.Hexagon {
		return []model.Hexagon{
			{PK: 1, CentroidLat: -23.5, CentroidLon: -46.6, CalculatedFluxoEstimado: flow, Count: 1, Grupo: "G1"},
			{PK: 2, CentroidLat: -23.6, CentroidLon: -46.7, CalculatedFluxoEstimado: 2 * flow, Count: 2, Grupo: "G1"},
		}
	}
	_, err := st.UpsertHexagons(ctx, 7, 2, set(2000))
	require.NoError(t, err)
	_, err = st.UpsertHexagons(ctx, 7, 1, set(1000))
	require.NoError(t, err)

	got, err := st.ListHexagons(ctx, model.HexagonQuery{DescPK: 7})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].PK)
	assert.Equal(t, int64(2), got[1].PK)
	assert.InDelta(t, 1000, got[0].CalculatedFluxoEstimado, 1e-9, "earliest week wins")

	analysis := optimizer.Optimize(got)
	require.NotNil(t, analysis)
	assert.Equal(t, 2, analysis.PlanoAtual.TotalHexagonos)
	assert.Equal(t, 3, analysis.PlanoAtual.TotalPontos)
	assert.InDelta(t, 3000, analysis.PlanoAtual.FluxoTotal, 1e-9)

	// A whole-plan set takes precedence over any week.
	_, err = st.UpsertHexagons(ctx, 7, 0, set(500))
	require.NoError(t, err)
	got, err = st.ListHexagons(ctx, model.HexagonQuery{DescPK: 7})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 500, got[0].CalculatedFluxoEstimado, 1e-9)
	assert.InDelta(t, 1000, got[1].CalculatedFluxoEstimado, 1e-9)
}

func TestSQLite_Hexagons_EmptyUpsert(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.UpsertHexagons(context.Background(), 1, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// --- Media points ---

func TestSQLite_MediaPoints_NullableFlows(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	points := []model.MediaPoint{
		{PK: 1, Latitude: -23.555, Longitude: -46.635, Grupo: "G1", EstaticoDigital: model.TipoDigital, Fluxo: model.Float(0), FluxoPassantes: model.Float(320), Cidade: "São Paulo", Exibidor: "Eletromidia"},
		{PK: 2, Grupo: "G2", Endereco: "Av. Paulista, 1000"},
	}
	n, err := st.UpsertMediaPoints(ctx, 10, points)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := st.ListMediaPoints(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(10), got[0].DescPK)
	require.NotNil(t, got[0].Fluxo)
	assert.Zero(t, *got[0].Fluxo)
	require.NotNil(t, got[0].FluxoPassantes)
	assert.InDelta(t, 320, *got[0].FluxoPassantes, 1e-9)
	assert.Nil(t, got[0].FluxoEstimado)
	assert.Nil(t, got[0].CalculatedFluxo)
	assert.Equal(t, "Eletromidia", got[0].Exibidor)

	assert.False(t, got[1].HasLocation())
	assert.Equal(t, "Av. Paulista, 1000", got[1].Endereco)
}

func TestSQLite_UpdatePointLocation(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertMediaPoints(ctx, 10, []model.MediaPoint{{PK: 5, Grupo: "G1"}})
	require.NoError(t, err)

	require.NoError(t, st.UpdatePointLocation(ctx, 10, 5, -22.9, -43.2))
	got, err := st.ListMediaPoints(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, -22.9, got[0].Latitude, 1e-9)
	assert.InDelta(t, -43.2, got[0].Longitude, 1e-9)

	err = st.UpdatePointLocation(ctx, 10, 6, 1, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	assert.NoError(t, st.Migrate(context.Background()))
}
