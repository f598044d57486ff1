// Package store persists roteiros, their hexagon sets and their media points.
package store

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/colmeia-ooh/colmeia/internal/db"
	"github.com/colmeia-ooh/colmeia/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// RoteiroFilter specifies criteria for listing roteiros.
type RoteiroFilter struct {
	Cidade string `json:"cidade,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for planning data.
type Store interface {
	// Roteiros
	ListRoteiros(ctx context.Context, filter RoteiroFilter) ([]model.Roteiro, int, error)
	GetRoteiro(ctx context.Context, pk int64) (*model.Roteiro, error)
	UpsertRoteiro(ctx context.Context, r *model.Roteiro) error

	// Hexagons. A nil Semana returns one row per hexagon_pk, taken from the
	// whole-plan set (semana 0) when stored, else from the earliest week.
	ListHexagons(ctx context.Context, q model.HexagonQuery) ([]model.Hexagon, error)
	UpsertHexagons(ctx context.Context, descPK int64, semana int, hexagons []model.Hexagon) (int64, error)

	// Media points
	ListMediaPoints(ctx context.Context, descPK int64) ([]model.MediaPoint, error)
	UpsertMediaPoints(ctx context.Context, descPK int64, points []model.MediaPoint) (int64, error)
	UpdatePointLocation(ctx context.Context, descPK, pointPK int64, lat, lon float64) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		pool, err := db.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pool), nil
	case "sqlite":
		if dsn == "" {
			dsn = "colmeia.db"
		}
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

const defaultListLimit = 100
