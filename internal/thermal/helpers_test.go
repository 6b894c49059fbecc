package thermal

import (
	"errors"
	"math"
	"testing"
)

func assertError(t *testing.T, err error, expected error) {
	t.Helper()
	if !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func newSteel() *Material {
	return &Material{
		Name:                "Steel 304",
		ThermalConductivity: 14.644,
		SpecificHeat:        502,
		Density:             7920,
		Emissivity:          Ratio(0.85),
		Absorptivity:        Ratio(0.85),
	}
}

func newWater() *Material {
	return &Material{
		Name:                "Water",
		ThermalConductivity: 0.60652,
		SpecificHeat:        4181,
		Density:             997.05,
		Emissivity:          Ratio(0.95),
	}
}

func newAir() *Material {
	return &Material{
		Name:                "Air",
		ThermalConductivity: 0.025,
		SpecificHeat:        1004,
		Density:             1.29,
	}
}

func newTestComponent(t *testing.T, id string, m *Material, volume, temp float64) *Component {
	t.Helper()
	c, err := NewComponent(id, m, volume, temp)
	if err != nil {
		t.Fatalf("NewComponent(%q) failed: %v", id, err)
	}
	return c
}

func newTestBoundary(t *testing.T, id string, m *Material, temp float64) *Boundary {
	t.Helper()
	b, err := NewBoundary(id, m, temp)
	if err != nil {
		t.Fatalf("NewBoundary(%q) failed: %v", id, err)
	}
	return b
}

func newTestEdge(t *testing.T, from, to Node, s Strategy) *Edge {
	t.Helper()
	e, err := NewEdge(from, to, s)
	if err != nil {
		t.Fatalf("NewEdge failed: %v", err)
	}
	return e
}
