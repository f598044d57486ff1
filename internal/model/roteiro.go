package model

import "time"

// Roteiro is a previously generated media plan. Its PK is the desc_pk that
// scopes hexagon and point queries.
type Roteiro struct {
	PK       int64     `json:"pk"`
	Nome     string    `json:"nome"`
	Cidade   string    `json:"cidade"`
	Semanas  int       `json:"semanas"`
	CriadoEm time.Time `json:"criado_em"`
}
