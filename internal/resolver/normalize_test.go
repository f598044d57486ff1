package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colmeia-ooh/colmeia/internal/model"
)

func TestNormalizeSubGroup(t *testing.T) {
	tests := []struct {
		name string
		in   model.MediaPoint
		want string
	}{
		{"missing defaults to digital", model.MediaPoint{Grupo: "G1"}, "G1D"},
		{"missing uses static type", model.MediaPoint{Grupo: "G1", EstaticoDigital: "E"}, "G1E"},
		{"wrong prefix rewritten", model.MediaPoint{Grupo: "G1", GrupoSub: "G2D", EstaticoDigital: "D"}, "G1D"},
		{"valid kept", model.MediaPoint{Grupo: "G1", GrupoSub: "G1-centro"}, "G1-centro"},
		{"equal to group kept", model.MediaPoint{Grupo: "G1", GrupoSub: "G1"}, "G1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSubGroup(tt.in)
			assert.Equal(t, tt.want, got.GrupoSub)
			assert.Equal(t, tt.in.Grupo, got.Grupo)
		})
	}
}

func TestNormalizeSubGroup_DoesNotMutateInput(t *testing.T) {
	in := model.MediaPoint{Grupo: "G1"}
	_ = NormalizeSubGroup(in)
	assert.Empty(t, in.GrupoSub)
}

func TestEffectiveFlow(t *testing.T) {
	f := model.Float

	tests := []struct {
		name string
		in   model.MediaPoint
		want float64
	}{
		{"fluxo wins even when passantes larger", model.MediaPoint{Fluxo: f(10), FluxoPassantes: f(500)}, 10},
		{"zero fluxo skipped", model.MediaPoint{Fluxo: f(0), FluxoPassantes: f(20)}, 20},
		{"negative skipped", model.MediaPoint{Fluxo: f(-5), FluxoPassantes: f(-1), FluxoEstimado: f(30)}, 30},
		{"calculated last", model.MediaPoint{CalculatedFluxo: f(40)}, 40},
		{"nil and non-positive give zero", model.MediaPoint{Fluxo: f(0), FluxoEstimado: f(-3)}, 0},
		{"all nil", model.MediaPoint{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EffectiveFlow(tt.in), 1e-9)
		})
	}
}
