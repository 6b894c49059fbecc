package thermal

import (
	"errors"
	"math"
	"testing"
)

func TestConductionSteelPipe(t *testing.T) {
	a := newTestComponent(t, "a", newSteel(), 1, 350)
	b := newTestComponent(t, "b", newSteel(), 1, 293.15)

	q, err := Conduction{Length: 10, Area: 0.5}.HeatFlow(a, b)
	assertError(t, err, nil)

	want := 14.644 * 0.5 * (350 - 293.15) / 10
	if !almostEqual(q, want, 1e-9) {
		t.Fatalf("conduction = %v, want %v", q, want)
	}
	if !almostEqual(q, 41.63, 0.01) {
		t.Fatalf("conduction = %v, want ~41.63 W", q)
	}
}

func TestConductionUsesSourceConductivity(t *testing.T) {
	steel := newSteel()
	water := newWater()
	a := newTestComponent(t, "a", water, 1, 310)
	b := newTestComponent(t, "b", steel, 1, 300)

	q, err := Conduction{Length: 1, Area: 1}.HeatFlow(a, b)
	assertError(t, err, nil)
	if !almostEqual(q, water.ThermalConductivity*10, 1e-12) {
		t.Fatalf("expected source conductivity to be used, got %v", q)
	}
}

func TestConductionBoundaryWithoutMaterial(t *testing.T) {
	src := newTestBoundary(t, "src", nil, 400)
	b := newTestComponent(t, "b", newSteel(), 1, 300)

	_, err := Conduction{Length: 1, Area: 1}.HeatFlow(src, b)
	assertError(t, err, ErrMissingMaterial)
}

func TestConvection(t *testing.T) {
	tests := []struct {
		name  string
		ta    float64
		tb    float64
		check func(float64) bool
	}{
		{"Hot fluid heats surface", 320, 300, func(q float64) bool { return almostEqual(q, 10*0.5*20, 1e-9) }},
		{"Cold fluid cools surface", 280, 300, func(q float64) bool { return q < 0 }},
		{"Equal temperatures", 300, 300, func(q float64) bool { return q == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestComponent(t, "a", newWater(), 1, tt.ta)
			b := newTestComponent(t, "b", newSteel(), 1, tt.tb)
			q, err := Convection{Area: 0.5, Coefficient: 10}.HeatFlow(a, b)
			assertError(t, err, nil)
			if !tt.check(q) {
				t.Errorf("unexpected convection flow %v", q)
			}
		})
	}
}

func TestRadiationSignAndMagnitude(t *testing.T) {
	surface := &Material{Name: "paint", ThermalConductivity: 1, SpecificHeat: 1, Density: 1, Emissivity: Ratio(0.9)}
	a := newTestComponent(t, "surface", surface, 1, 400)
	b := newTestBoundary(t, "surroundings", nil, 300)

	q, err := Radiation{Area: 1}.HeatFlow(a, b)
	assertError(t, err, nil)

	want := 0.9 * StefanBoltzmann * (math.Pow(400, 4) - math.Pow(300, 4))
	if !almostEqual(q, want, 1e-9) {
		t.Fatalf("radiation = %v, want %v", q, want)
	}
	if !almostEqual(q, 893.08, 0.01) {
		t.Fatalf("radiation = %v, want ~893.08 W", q)
	}
}

func TestRadiationMissingEmissivityFailsEveryTime(t *testing.T) {
	a := newTestComponent(t, "air", newAir(), 1, 400)
	b := newTestBoundary(t, "sky", nil, 300)
	s := Radiation{Area: 1}

	for i := 0; i < 3; i++ {
		_, err := s.HeatFlow(a, b)
		assertError(t, err, ErrMissingEmissivity)

		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatalf("expected *DomainError, got %T", err)
		}
		if de.Strategy != KindRadiation || de.Source != "air" || de.Target != "sky" {
			t.Fatalf("unexpected domain error fields: %+v", de)
		}
	}
	if a.Temperature() != 400 || a.Len() != 0 {
		t.Fatalf("radiation failure must not mutate the node")
	}
}

func TestSolarAbsorption(t *testing.T) {
	sun := newTestBoundary(t, "sun", nil, 5800)
	panel := newTestComponent(t, "panel", newSteel(), 1, 293.15)

	q, err := SolarAbsorption{Irradiance: 1000, Area: 10}.HeatFlow(sun, panel)
	assertError(t, err, nil)
	if !almostEqual(q, 1000*10*0.85, 1e-9) {
		t.Fatalf("solar = %v, want %v", q, 8500.0)
	}

	// The source temperature is not part of the formula.
	sun.SetTemperature(1)
	q2, _ := SolarAbsorption{Irradiance: 1000, Area: 10}.HeatFlow(sun, panel)
	if q2 != q {
		t.Fatalf("solar flow depends on source temperature: %v != %v", q2, q)
	}
}

func TestSolarAbsorptionMissingAbsorptivity(t *testing.T) {
	sun := newTestBoundary(t, "sun", nil, 5800)
	water := newTestComponent(t, "water", newWater(), 1, 293.15)

	_, err := SolarAbsorption{Irradiance: 1000, Area: 1}.HeatFlow(sun, water)
	assertError(t, err, ErrMissingAbsorptivity)
}

func TestAdvection(t *testing.T) {
	water := newWater()
	a := newTestComponent(t, "hot", water, 1, 330)
	b := newTestComponent(t, "cold", water, 1, 300)

	q, err := Advection{MassFlowRate: 0.2}.HeatFlow(a, b)
	assertError(t, err, nil)
	if !almostEqual(q, 0.2*4181*30, 1e-9) {
		t.Fatalf("advection = %v", q)
	}
}

func TestAdvectionRequiresSameMaterialInstance(t *testing.T) {
	// Equal values, different instances.
	a := newTestComponent(t, "a", newWater(), 1, 330)
	b := newTestComponent(t, "b", newWater(), 1, 300)

	_, err := Advection{MassFlowRate: 0.2}.HeatFlow(a, b)
	assertError(t, err, ErrMaterialMismatch)
}

func TestStrategyValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Strategy
		want error
	}{
		{"Conduction ok", Conduction{Length: 1, Area: 1}, nil},
		{"Conduction zero length", Conduction{Length: 0, Area: 1}, ErrInvalidParameter},
		{"Conduction negative area", Conduction{Length: 1, Area: -1}, ErrInvalidParameter},
		{"Convection ok", Convection{Area: 1, Coefficient: 10}, nil},
		{"Convection zero coefficient", Convection{Area: 1}, ErrInvalidParameter},
		{"Radiation zero area", Radiation{}, ErrInvalidParameter},
		{"Solar ok with zero irradiance", SolarAbsorption{Area: 1}, nil},
		{"Solar negative irradiance", SolarAbsorption{Irradiance: -1, Area: 1}, ErrInvalidParameter},
		{"Advection ok", Advection{MassFlowRate: 0.1}, nil},
		{"Advection negative flow", Advection{MassFlowRate: -0.1}, ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.Validate()
			if !errors.Is(got, tt.want) {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrategiesAreReferentiallyTransparent(t *testing.T) {
	water := newWater()
	a := newTestComponent(t, "a", water, 1, 340)
	b := newTestComponent(t, "b", water, 1, 290)

	for _, s := range []Strategy{
		Conduction{Length: 2, Area: 0.3},
		Convection{Area: 0.3, Coefficient: 340},
		Radiation{Area: 0.3},
		Advection{MassFlowRate: 0.05},
	} {
		q1, err1 := s.HeatFlow(a, b)
		q2, err2 := s.HeatFlow(a, b)
		if q1 != q2 || err1 != nil || err2 != nil {
			t.Fatalf("%s: %v/%v, %v/%v", s.Kind(), q1, err1, q2, err2)
		}
	}
}
