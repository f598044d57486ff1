package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/colmeia-ooh/colmeia/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS roteiros (
	pk        INTEGER PRIMARY KEY,
	nome      TEXT NOT NULL,
	cidade    TEXT NOT NULL DEFAULT '',
	semanas   INTEGER NOT NULL DEFAULT 0,
	criado_em DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS hexagonos (
	desc_pk                      INTEGER NOT NULL,
	semana                       INTEGER NOT NULL DEFAULT 0,
	hexagon_pk                   INTEGER NOT NULL,
	hex_centroid_lat             REAL NOT NULL,
	hex_centroid_lon             REAL NOT NULL,
	geometry_8                   TEXT NOT NULL DEFAULT '',
	calculated_fluxo_estimado_vl REAL NOT NULL DEFAULT 0,
	fluxo_estimado_vl            REAL NOT NULL DEFAULT 0,
	count_vl                     INTEGER NOT NULL DEFAULT 0 CHECK (count_vl >= 0),
	grupo_st                     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (desc_pk, semana, hexagon_pk)
);

CREATE TABLE IF NOT EXISTS pontos_midia (
	desc_pk                      INTEGER NOT NULL,
	planomidia_pk                INTEGER NOT NULL,
	latitude_vl                  REAL NOT NULL DEFAULT 0,
	longitude_vl                 REAL NOT NULL DEFAULT 0,
	grupo_st                     TEXT NOT NULL DEFAULT '',
	grupo_sub_st                 TEXT NOT NULL DEFAULT '',
	estatico_digital_st          TEXT NOT NULL DEFAULT '',
	fluxo_vl                     REAL,
	fluxo_passantes_vl           REAL,
	fluxo_estimado_vl            REAL,
	calculated_fluxo_estimado_vl REAL,
	cidade_st                    TEXT NOT NULL DEFAULT '',
	exibidor_st                  TEXT NOT NULL DEFAULT '',
	endereco_st                  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (desc_pk, planomidia_pk)
);

CREATE INDEX IF NOT EXISTS idx_roteiros_cidade ON roteiros(cidade);
`

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListRoteiros implements Store.
func (s *SQLiteStore) ListRoteiros(ctx context.Context, filter RoteiroFilter) ([]model.Roteiro, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if filter.Cidade != "" {
		where += ` AND lower(cidade) = lower(?)`
		args = append(args, filter.Cidade)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM roteiros`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: count roteiros")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit, max(filter.Offset, 0))
	rows, err := s.db.QueryContext(ctx,
		`SELECT pk, nome, cidade, semanas, criado_em FROM roteiros`+where+
			` ORDER BY criado_em DESC, pk DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: list roteiros")
	}
	defer rows.Close()

	var out []model.Roteiro
	for rows.Next() {
		var r model.Roteiro
		if err := rows.Scan(&r.PK, &r.Nome, &r.Cidade, &r.Semanas, &r.CriadoEm); err != nil {
			return nil, 0, eris.Wrap(err, "sqlite: scan roteiro")
		}
		out = append(out, r)
	}
	return out, total, eris.Wrap(rows.Err(), "sqlite: iterate roteiros")
}

// GetRoteiro implements Store.
func (s *SQLiteStore) GetRoteiro(ctx context.Context, pk int64) (*model.Roteiro, error) {
	var r model.Roteiro
	err := s.db.QueryRowContext(ctx,
		`SELECT pk, nome, cidade, semanas, criado_em FROM roteiros WHERE pk = ?`, pk,
	).Scan(&r.PK, &r.Nome, &r.Cidade, &r.Semanas, &r.CriadoEm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: roteiro %d", pk)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get roteiro")
	}
	return &r, nil
}

// UpsertRoteiro implements Store.
func (s *SQLiteStore) UpsertRoteiro(ctx context.Context, r *model.Roteiro) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roteiros (pk, nome, cidade, semanas)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (pk) DO UPDATE SET
			nome = excluded.nome,
			cidade = excluded.cidade,
			semanas = excluded.semanas`,
		r.PK, r.Nome, r.Cidade, r.Semanas,
	)
	return eris.Wrap(err, "sqlite: upsert roteiro")
}

// ListHexagons implements Store.
func (s *SQLiteStore) ListHexagons(ctx context.Context, q model.HexagonQuery) ([]model.Hexagon, error) {
	query := `SELECT hexagon_pk, hex_centroid_lat, hex_centroid_lon, geometry_8,
		calculated_fluxo_estimado_vl, fluxo_estimado_vl, count_vl, grupo_st
		FROM hexagonos h WHERE desc_pk = ?`
	args := []any{q.DescPK}
	if q.Semana != nil {
		query += ` AND semana = ?`
		args = append(args, *q.Semana)
	} else {
		// One row per hexagon: the whole-plan row (semana 0) or else the earliest week.
		query += ` AND semana = (SELECT MIN(semana) FROM hexagonos w
			WHERE w.desc_pk = h.desc_pk AND w.hexagon_pk = h.hexagon_pk)`
	}
	query += ` ORDER BY hexagon_pk`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list hexagons")
	}
	defer rows.Close()

	var out []model.Hexagon
	for rows.Next() {
		var h model.Hexagon
		if err := rows.Scan(&h.PK, &h.CentroidLat, &h.CentroidLon, &h.GeometryWKT,
			&h.CalculatedFluxoEstimado, &h.FluxoEstimado, &h.Count, &h.Grupo); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan hexagon")
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate hexagons")
}

// UpsertHexagons implements Store.
func (s *SQLiteStore) UpsertHexagons(ctx context.Context, descPK int64, semana int, hexagons []model.Hexagon) (int64, error) {
	rows := make([][]any, len(hexagons))
	for i, h := range hexagons {
		rows[i] = []any{
			descPK, semana, h.PK, h.CentroidLat, h.CentroidLon, h.GeometryWKT,
			h.CalculatedFluxoEstimado, h.FluxoEstimado, h.Count, h.Grupo,
		}
	}
	n, err := s.upsertRows(ctx, "hexagonos", hexagonColumns, []string{"desc_pk", "semana", "hexagon_pk"}, rows)
	return n, eris.Wrap(err, "sqlite: upsert hexagons")
}

// ListMediaPoints implements Store.
func (s *SQLiteStore) ListMediaPoints(ctx context.Context, descPK int64) ([]model.MediaPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT planomidia_pk, latitude_vl, longitude_vl, grupo_st, grupo_sub_st, estatico_digital_st,
			fluxo_vl, fluxo_passantes_vl, fluxo_estimado_vl, calculated_fluxo_estimado_vl,
			cidade_st, exibidor_st, endereco_st
		FROM pontos_midia WHERE desc_pk = ? ORDER BY planomidia_pk`, descPK)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list media points")
	}
	defer rows.Close()

	var out []model.MediaPoint
	for rows.Next() {
		p := model.MediaPoint{DescPK: descPK}
		var fluxo, passantes, estimado, calculated sql.NullFloat64
		if err := rows.Scan(&p.PK, &p.Latitude, &p.Longitude, &p.Grupo, &p.GrupoSub, &p.EstaticoDigital,
			&fluxo, &passantes, &estimado, &calculated,
			&p.Cidade, &p.Exibidor, &p.Endereco); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan media point")
		}
		p.Fluxo = nullFloat(fluxo)
		p.FluxoPassantes = nullFloat(passantes)
		p.FluxoEstimado = nullFloat(estimado)
		p.CalculatedFluxo = nullFloat(calculated)
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate media points")
}

// UpsertMediaPoints implements Store.
func (s *SQLiteStore) UpsertMediaPoints(ctx context.Context, descPK int64, points []model.MediaPoint) (int64, error) {
	rows := make([][]any, len(points))
	for i, p := range points {
		rows[i] = []any{
			descPK, p.PK, p.Latitude, p.Longitude, p.Grupo, p.GrupoSub, p.EstaticoDigital,
			sqlFloat(p.Fluxo), sqlFloat(p.FluxoPassantes), sqlFloat(p.FluxoEstimado), sqlFloat(p.CalculatedFluxo),
			p.Cidade, p.Exibidor, p.Endereco,
		}
	}
	n, err := s.upsertRows(ctx, "pontos_midia", pointColumns, []string{"desc_pk", "planomidia_pk"}, rows)
	return n, eris.Wrap(err, "sqlite: upsert media points")
}

// UpdatePointLocation implements Store.
func (s *SQLiteStore) UpdatePointLocation(ctx context.Context, descPK, pointPK int64, lat, lon float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pontos_midia SET latitude_vl = ?, longitude_vl = ? WHERE desc_pk = ? AND planomidia_pk = ?`,
		lat, lon, descPK, pointPK,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update point location")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: media point %d/%d", descPK, pointPK)
	}
	return nil
}

// upsertRows writes rows in one transaction through a single prepared
// INSERT ... ON CONFLICT statement.
func (s *SQLiteStore) upsertRows(ctx context.Context, table string, cols, conflictKeys []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	conflict := make(map[string]bool, len(conflictKeys))
	for _, k := range conflictKeys {
		conflict[k] = true
	}
	var sets []string
	for _, c := range cols {
		if !conflict[c] {
			sets = append(sets, c+" = excluded."+c)
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders + ")" +
		" ON CONFLICT (" + strings.Join(conflictKeys, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", ")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, eris.Wrap(err, "prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, eris.Wrapf(err, "upsert into %s", table)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "commit")
	}
	return n, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func sqlFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
