package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colmeia-ooh/colmeia/internal/model"
	"github.com/colmeia-ooh/colmeia/internal/pagination"
	"github.com/colmeia-ooh/colmeia/internal/resolver"
)

func TestWriteOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", map[string]any{"analise": nil}))
	assert.Equal(t, "{\n  \"analise\": null\n}\n", buf.String())
}

func TestWriteOutput_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"hexagono": model.Hexagon{PK: 7, Grupo: "G1"}}
	require.NoError(t, writeOutput(&buf, "yaml", v))

	out := buf.String()
	assert.Contains(t, out, "hexagon_pk: 7")
	assert.Contains(t, out, "grupo_st: G1")
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeOutput(&buf, "csv", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv")
}

func TestHexagonQuery(t *testing.T) {
	q := hexagonQuery(42, false, 3)
	assert.Equal(t, int64(42), q.DescPK)
	assert.Nil(t, q.Semana)

	q = hexagonQuery(42, true, 0)
	require.NotNil(t, q.Semana)
	assert.Equal(t, 0, *q.Semana)
}

func TestFormatRoteiros(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	roteiros := []model.Roteiro{
		{PK: 10, Nome: "Campanha Verão", Cidade: "São Paulo", Semanas: 4, CriadoEm: now},
		{PK: 11, Nome: "Plano com um nome realmente muito comprido demais", Cidade: "Recife", Semanas: 2, CriadoEm: now},
	}

	var buf bytes.Buffer
	formatRoteiros(&buf, roteiros, pagination.NewPage(2, 2, 9))

	out := buf.String()
	assert.Contains(t, out, "PK")
	assert.Contains(t, out, "Campanha Verão")
	assert.Contains(t, out, "São Paulo")
	assert.Contains(t, out, "2025-06-15 10:30")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "page 2 of 5 (9 total)")
	assert.Contains(t, out, "[2]")
}

func TestFormatWindow(t *testing.T) {
	assert.Equal(t, "1 … 4 [5] 6 … 9", formatWindow([]int{1, pagination.Gap, 4, 5, 6, pagination.Gap, 9}, 5))
	assert.Equal(t, "", formatWindow(nil, 1))
}

func TestFormatSummary(t *testing.T) {
	s := resolver.Summary{
		Total:    3,
		Accepted: 2,
		Rejected: 1,
		ByReason: map[resolver.Reason]int{
			resolver.ReasonInsideSameGroup: 2,
			resolver.ReasonTooFar:          1,
		},
	}

	var buf bytes.Buffer
	formatSummary(&buf, s)

	out := buf.String()
	assert.Contains(t, out, "ACCEPTED")
	assert.Contains(t, out, "inside_same_group")
	assert.Contains(t, out, "too_far")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("inside_same_group")), bytes.Index(buf.Bytes(), []byte("too_far")))
}

func TestPendingAddresses(t *testing.T) {
	points := []model.MediaPoint{
		{PK: 1, Latitude: -23.5, Longitude: -46.6, Endereco: "Av. Paulista, 1000"},
		{PK: 2, Endereco: "Rua Augusta, 500", Cidade: "São Paulo"},
		{PK: 3},
	}

	addrs := pendingAddresses(points)
	require.Len(t, addrs, 1)
	assert.Equal(t, "2", addrs[0].ID)
	assert.Equal(t, "Rua Augusta, 500", addrs[0].Endereco)
	assert.Equal(t, "São Paulo", addrs[0].Cidade)
}
