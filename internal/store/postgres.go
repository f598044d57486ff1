package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/colmeia-ooh/colmeia/internal/db"
	"github.com/colmeia-ooh/colmeia/internal/model"
)

// PostgresStore implements Store over a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS roteiros (
	pk        BIGINT PRIMARY KEY,
	nome      TEXT NOT NULL,
	cidade    TEXT NOT NULL DEFAULT '',
	semanas   INTEGER NOT NULL DEFAULT 0,
	criado_em TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS hexagonos (
	desc_pk                      BIGINT NOT NULL,
	semana                       INTEGER NOT NULL DEFAULT 0,
	hexagon_pk                   BIGINT NOT NULL,
	hex_centroid_lat             DOUBLE PRECISION NOT NULL,
	hex_centroid_lon             DOUBLE PRECISION NOT NULL,
	geometry_8                   TEXT NOT NULL DEFAULT '',
	calculated_fluxo_estimado_vl DOUBLE PRECISION NOT NULL DEFAULT 0,
	fluxo_estimado_vl            DOUBLE PRECISION NOT NULL DEFAULT 0,
	count_vl                     INTEGER NOT NULL DEFAULT 0 CHECK (count_vl >= 0),
	grupo_st                     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (desc_pk, semana, hexagon_pk)
);

CREATE TABLE IF NOT EXISTS pontos_midia (
	desc_pk                      BIGINT NOT NULL,
	planomidia_pk                BIGINT NOT NULL,
	latitude_vl                  DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude_vl                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	grupo_st                     TEXT NOT NULL DEFAULT '',
	grupo_sub_st                 TEXT NOT NULL DEFAULT '',
	estatico_digital_st          TEXT NOT NULL DEFAULT '',
	fluxo_vl                     DOUBLE PRECISION,
	fluxo_passantes_vl           DOUBLE PRECISION,
	fluxo_estimado_vl            DOUBLE PRECISION,
	calculated_fluxo_estimado_vl DOUBLE PRECISION,
	cidade_st                    TEXT NOT NULL DEFAULT '',
	exibidor_st                  TEXT NOT NULL DEFAULT '',
	endereco_st                  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (desc_pk, planomidia_pk)
);

CREATE INDEX IF NOT EXISTS idx_roteiros_cidade ON roteiros(cidade);
`

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ListRoteiros implements Store. It returns the page of roteiros and the
// total matching the filter.
func (s *PostgresStore) ListRoteiros(ctx context.Context, filter RoteiroFilter) ([]model.Roteiro, int, error) {
	where := ` WHERE true`
	args := []any{}
	argIdx := 1
	if filter.Cidade != "" {
		where += fmt.Sprintf(` AND lower(cidade) = lower($%d)`, argIdx)
		args = append(args, filter.Cidade)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM roteiros`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: count roteiros")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT pk, nome, cidade, semanas, criado_em FROM roteiros` + where +
		fmt.Sprintf(` ORDER BY criado_em DESC, pk DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: list roteiros")
	}
	defer rows.Close()

	var out []model.Roteiro
	for rows.Next() {
		var r model.Roteiro
		if err := rows.Scan(&r.PK, &r.Nome, &r.Cidade, &r.Semanas, &r.CriadoEm); err != nil {
			return nil, 0, eris.Wrap(err, "postgres: scan roteiro")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: iterate roteiros")
	}
	return out, total, nil
}

// GetRoteiro implements Store.
func (s *PostgresStore) GetRoteiro(ctx context.Context, pk int64) (*model.Roteiro, error) {
	var r model.Roteiro
	err := s.pool.QueryRow(ctx,
		`SELECT pk, nome, cidade, semanas, criado_em FROM roteiros WHERE pk = $1`, pk,
	).Scan(&r.PK, &r.Nome, &r.Cidade, &r.Semanas, &r.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: roteiro %d", pk)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get roteiro")
	}
	return &r, nil
}

// UpsertRoteiro implements Store.
func (s *PostgresStore) UpsertRoteiro(ctx context.Context, r *model.Roteiro) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roteiros (pk, nome, cidade, semanas)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pk) DO UPDATE SET
			nome = EXCLUDED.nome,
			cidade = EXCLUDED.cidade,
			semanas = EXCLUDED.semanas`,
		r.PK, r.Nome, r.Cidade, r.Semanas,
	)
	return eris.Wrap(err, "postgres: upsert roteiro")
}

var hexagonColumns = []string{
	"desc_pk", "semana", "hexagon_pk", "hex_centroid_lat", "hex_centroid_lon", "geometry_8",
	"calculated_fluxo_estimado_vl", "fluxo_estimado_vl", "count_vl", "grupo_st",
}

// ListHexagons implements Store.
func (s *PostgresStore) ListHexagons(ctx context.Context, q model.HexagonQuery) ([]model.Hexagon, error) {
	cols := `hexagon_pk, hex_centroid_lat, hex_centroid_lon, geometry_8,
		calculated_fluxo_estimado_vl, fluxo_estimado_vl, count_vl, grupo_st`
	args := []any{q.DescPK}
	var query string
	if q.Semana != nil {
		query = `SELECT ` + cols + ` FROM hexagonos WHERE desc_pk = $1 AND semana = $2 ORDER BY hexagon_pk`
		args = append(args, *q.Semana)
	} else {
		// One row per hexagon: the whole-plan row (semana 0) or else the earliest week.
		query = `SELECT DISTINCT ON (hexagon_pk) ` + cols +
			` FROM hexagonos WHERE desc_pk = $1 ORDER BY hexagon_pk, semana`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list hexagons")
	}
	defer rows.Close()

	var out []model.Hexagon
	for rows.Next() {
		var h model.Hexagon
		if err := rows.Scan(&h.PK, &h.CentroidLat, &h.CentroidLon, &h.GeometryWKT,
			&h.CalculatedFluxoEstimado, &h.FluxoEstimado, &h.Count, &h.Grupo); err != nil {
			return nil, eris.Wrap(err, "postgres: scan hexagon")
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate hexagons")
	}
	return out, nil
}

// UpsertHexagons implements Store.
func (s *PostgresStore) UpsertHexagons(ctx context.Context, descPK int64, semana int, hexagons []model.Hexagon) (int64, error) {
	rows := make([][]any, len(hexagons))
	for i, h := range hexagons {
		rows[i] = []any{
			descPK, semana, h.PK, h.CentroidLat, h.CentroidLon, h.GeometryWKT,
			h.CalculatedFluxoEstimado, h.FluxoEstimado, h.Count, h.Grupo,
		}
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "hexagonos",
		Columns:      hexagonColumns,
		ConflictKeys: []string{"desc_pk", "semana", "hexagon_pk"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert hexagons")
}

var pointColumns = []string{
	"desc_pk", "planomidia_pk", "latitude_vl", "longitude_vl", "grupo_st", "grupo_sub_st",
	"estatico_digital_st", "fluxo_vl", "fluxo_passantes_vl", "fluxo_estimado_vl",
	"calculated_fluxo_estimado_vl", "cidade_st", "exibidor_st", "endereco_st",
}

// ListMediaPoints implements Store.
func (s *PostgresStore) ListMediaPoints(ctx context.Context, descPK int64) ([]model.MediaPoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT planomidia_pk, latitude_vl, longitude_vl, grupo_st, grupo_sub_st, estatico_digital_st,
			fluxo_vl, fluxo_passantes_vl, fluxo_estimado_vl, calculated_fluxo_estimado_vl,
			cidade_st, exibidor_st, endereco_st
		FROM pontos_midia WHERE desc_pk = $1 ORDER BY planomidia_pk`, descPK)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list media points")
	}
	defer rows.Close()

	var out []model.MediaPoint
	for rows.Next() {
		p := model.MediaPoint{DescPK: descPK}
		if err := rows.Scan(&p.PK, &p.Latitude, &p.Longitude, &p.Grupo, &p.GrupoSub, &p.EstaticoDigital,
			&p.Fluxo, &p.FluxoPassantes, &p.FluxoEstimado, &p.CalculatedFluxo,
			&p.Cidade, &p.Exibidor, &p.Endereco); err != nil {
			return nil, eris.Wrap(err, "postgres: scan media point")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate media points")
	}
	return out, nil
}

// UpsertMediaPoints implements Store.
func (s *PostgresStore) UpsertMediaPoints(ctx context.Context, descPK int64, points []model.MediaPoint) (int64, error) {
	rows := make([][]any, len(points))
	for i, p := range points {
		rows[i] = []any{
			descPK, p.PK, p.Latitude, p.Longitude, p.Grupo, p.GrupoSub, p.EstaticoDigital,
			p.Fluxo, p.FluxoPassantes, p.FluxoEstimado, p.CalculatedFluxo,
			p.Cidade, p.Exibidor, p.Endereco,
		}
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "pontos_midia",
		Columns:      pointColumns,
		ConflictKeys: []string{"desc_pk", "planomidia_pk"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert media points")
}

// UpdatePointLocation implements Store.
func (s *PostgresStore) UpdatePointLocation(ctx context.Context, descPK, pointPK int64, lat, lon float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pontos_midia SET latitude_vl = $1, longitude_vl = $2 WHERE desc_pk = $3 AND planomidia_pk = $4`,
		lat, lon, descPK, pointPK,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update point location")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: media point %d/%d", descPK, pointPK)
	}
	return nil
}
