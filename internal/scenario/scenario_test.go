package scenario

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

func f(v float64) *float64 { return &v }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func twoTanks() Spec {
	return Spec{
		Name: "two-tanks",
		Components: []ComponentSpec{
			{ID: "hot", Material: "water", Volume: 0.1, InitialTemperature: 350},
			{ID: "cold", Material: "water", Volume: 0.1, InitialTemperature: 300},
		},
		Boundaries: []BoundarySpec{{ID: "air", Material: "air", Temperature: 293.15}},
		Edges: []EdgeSpec{
			{From: "hot", To: "cold", Strategy: "advection", MassFlowRate: f(0.01)},
			{From: "cold", To: "air", Strategy: "convection", Area: f(1), Coefficient: f(10)},
		},
	}
}

func TestLoadSolarLoop(t *testing.T) {
	s, err := Load("../../configs/solar_loop.yaml")
	require.NoError(t, err)
	assert.Equal(t, "solar-loop", s.Name)

	topo, err := Build(s)
	require.NoError(t, err)
	assert.Len(t, topo.Graph.Nodes(), 10)
	assert.Len(t, topo.Graph.Edges(), 15)
	assert.Len(t, topo.Boundaries, 2)

	sun, ok := topo.Boundary("sun")
	require.True(t, ok)
	assert.Nil(t, sun.Material())
	assert.Equal(t, 5800.0, sun.Temperature())

	panel, ok := topo.Graph.Component("solar panel")
	require.True(t, ok)
	assert.Equal(t, thermal.UnitsCelsius, panel.Units())

	for i := 1; i <= 10; i++ {
		require.NoError(t, topo.Graph.Step(60, float64(i)*60))
	}
	assert.Greater(t, panel.Temperature(), 293.15)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "s.json", `{
		"name": "json",
		"components": [{"id": "a", "material": "steel304", "volume": 0.01, "initial_temperature": 350}],
		"boundaries": [{"id": "amb", "temperature": 290}],
		"edges": [{"from": "a", "to": "amb", "strategy": "convection", "area": 0.2, "coefficient": 15}]
	}`)
	s, err := Load(path)
	require.NoError(t, err)
	require.Len(t, s.Edges, 1)
	require.NotNil(t, s.Edges[0].Coefficient)
	assert.Equal(t, 15.0, *s.Edges[0].Coefficient)
	assert.Nil(t, s.Edges[0].Length)

	_, err = Build(s)
	require.NoError(t, err)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load("scenario.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConvectionRejectsLengthParameter(t *testing.T) {
	// A conduction style length on a convection edge is a wiring mistake,
	// not something to reinterpret as a coefficient.
	path := writeFile(t, "bad.yaml", `
components:
  - {id: pipe, material: steel304, volume: 1, initial_temperature: 300}
boundaries:
  - {id: air, material: air, temperature: 293.15}
edges:
  - {from: pipe, to: air, strategy: convection, length: 10, area: 0.1}
`)
	s, err := Load(path)
	require.NoError(t, err)

	_, err = Build(s)
	assert.ErrorIs(t, err, ErrMissingParameter)

	s.Edges[0].Coefficient = f(10)
	_, err = Build(s)
	assert.ErrorIs(t, err, ErrUnexpectedParameter)

	s.Edges[0].Length = nil
	_, err = Build(s)
	assert.NoError(t, err)
}

func TestEdgeSpecBuild(t *testing.T) {
	tests := []struct {
		name string
		in   EdgeSpec
		want thermal.Strategy
		err  error
	}{
		{"conduction", EdgeSpec{Strategy: "conduction", Length: f(2), Area: f(0.5)}, thermal.Conduction{Length: 2, Area: 0.5}, nil},
		{"convection", EdgeSpec{Strategy: "convection", Area: f(1), Coefficient: f(340)}, thermal.Convection{Area: 1, Coefficient: 340}, nil},
		{"radiation", EdgeSpec{Strategy: "radiation", Area: f(3)}, thermal.Radiation{Area: 3}, nil},
		{"solar", EdgeSpec{Strategy: "solar_absorption", Irradiance: f(1000), Area: f(4)}, thermal.SolarAbsorption{Irradiance: 1000, Area: 4}, nil},
		{"advection", EdgeSpec{Strategy: "advection", MassFlowRate: f(0.2)}, thermal.Advection{MassFlowRate: 0.2}, nil},
		{"unknown kind", EdgeSpec{Strategy: "telepathy"}, nil, ErrUnknownStrategy},
		{"missing area", EdgeSpec{Strategy: "radiation"}, nil, ErrMissingParameter},
		{"extra coefficient", EdgeSpec{Strategy: "radiation", Area: f(1), Coefficient: f(1)}, nil, ErrUnexpectedParameter},
		{"invalid value", EdgeSpec{Strategy: "conduction", Length: f(0), Area: f(1)}, nil, thermal.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Build()
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSharesMaterialInstances(t *testing.T) {
	topo, err := Build(twoTanks())
	require.NoError(t, err)

	hot, _ := topo.Graph.Component("hot")
	cold, _ := topo.Graph.Component("cold")
	assert.Same(t, hot.Material(), cold.Material())
	assert.Same(t, topo.Materials["water"], hot.Material())

	require.NoError(t, topo.Graph.Step(1, 1))
}

func TestBuildIsolatesMaterialsBetweenBuilds(t *testing.T) {
	a, err := Build(twoTanks())
	require.NoError(t, err)
	b, err := Build(twoTanks())
	require.NoError(t, err)
	assert.NotSame(t, a.Materials["water"], b.Materials["water"])
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
		want   error
	}{
		{"unknown material", func(s *Spec) { s.Components[0].Material = "unobtainium" }, ErrUnknownMaterial},
		{"unknown boundary material", func(s *Spec) { s.Boundaries[0].Material = "vacuum" }, ErrUnknownMaterial},
		{"unknown edge node", func(s *Spec) { s.Edges[0].To = "nowhere" }, ErrUnknownNode},
		{"duplicate component", func(s *Spec) { s.Components[1].ID = "hot" }, ErrDuplicateID},
		{"boundary shadows component", func(s *Spec) { s.Boundaries[0].ID = "cold" }, ErrDuplicateID},
		{"zero volume stepped", func(s *Spec) { s.Components[0].Volume = 0 }, thermal.ErrZeroHeatCapacity},
		{"bad units", func(s *Spec) { s.LogUnits = "rankine" }, nil},
		{"no stepped nodes", func(s *Spec) {
			no := false
			s.Components[0].Stepped = &no
			s.Components[1].Stepped = &no
		}, ErrEmptyScenario},
		{"invalid material", func(s *Spec) {
			s.Materials = map[string]MaterialSpec{"water": {Name: "broken"}}
		}, thermal.ErrInvalidMaterial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := twoTanks()
			tt.mutate(&s)
			_, err := Build(s)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestUnsteppedComponent(t *testing.T) {
	s := twoTanks()
	no := false
	s.Components = append(s.Components, ComponentSpec{ID: "reservoir", Material: "water", Volume: 1e9, InitialTemperature: 280, Stepped: &no})
	s.Edges = append(s.Edges, EdgeSpec{From: "reservoir", To: "cold", Strategy: "convection", Area: f(1), Coefficient: f(100)})

	topo, err := Build(s)
	require.NoError(t, err)
	assert.Len(t, topo.Graph.Nodes(), 2)
	assert.Contains(t, topo.Components, "reservoir")

	require.NoError(t, topo.Graph.Step(1, 1))
	assert.Equal(t, 280.0, topo.Components["reservoir"].Temperature())
	assert.Zero(t, topo.Components["reservoir"].Len())
}

func TestCustomMaterialOverridesLibrary(t *testing.T) {
	s := twoTanks()
	s.Materials = map[string]MaterialSpec{
		"glycol": {ThermalConductivity: 0.25, SpecificHeat: 3500, Density: 1040},
	}
	s.Components[0].Material = "glycol"
	s.Components[1].Material = "glycol"

	topo, err := Build(s)
	require.NoError(t, err)
	assert.Equal(t, "glycol", topo.Materials["glycol"].Name)
	assert.Contains(t, topo.Materials, "copper")
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, twoTanks()))

	out := buf.String()
	assert.Contains(t, out, "name: two-tanks")
	assert.Contains(t, out, "strategy: advection")
	assert.Contains(t, out, "mass_flow_rate: 0.01")
	assert.NotContains(t, out, "length:")

	path := writeFile(t, "roundtrip.yaml", out)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, twoTanks().Edges[1], s.Edges[1])
}
