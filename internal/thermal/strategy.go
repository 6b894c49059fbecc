package thermal

import (
	"fmt"
	"math"
)

// StefanBoltzmann constant in W/(m²·K⁴).
const StefanBoltzmann = 5.670374419e-8

// Strategy computes the heat flow in watts between two nodes.
// A positive result means heat leaves a and enters b.
// Implementations are pure: they read the nodes and never mutate them.
type Strategy interface {
	Kind() Kind
	Validate() error
	HeatFlow(a, b Node) (float64, error)
}

// Conduction through a solid of the given length and cross section,
// using the conductivity of a's material.
type Conduction struct {
	Length float64 // m
	Area   float64 // m²
}

func (Conduction) Kind() Kind { return KindConduction }

func (s Conduction) Validate() error {
	if s.Length <= 0 {
		return fmt.Errorf("%w: conduction length must be > 0", ErrInvalidParameter)
	}
	if s.Area <= 0 {
		return fmt.Errorf("%w: conduction area must be > 0", ErrInvalidParameter)
	}
	return nil
}

func (s Conduction) HeatFlow(a, b Node) (float64, error) {
	m := a.Material()
	if m == nil {
		return 0, domainError(KindConduction, a, b, ErrMissingMaterial)
	}
	return m.ThermalConductivity * s.Area * (a.Temperature() - b.Temperature()) / s.Length, nil
}

// Convection between a fluid and a surface.
type Convection struct {
	Area        float64 // m²
	Coefficient float64 // W/(m²·K)
}

func (Convection) Kind() Kind { return KindConvection }

func (s Convection) Validate() error {
	if s.Area <= 0 {
		return fmt.Errorf("%w: convection area must be > 0", ErrInvalidParameter)
	}
	if s.Coefficient <= 0 {
		return fmt.Errorf("%w: convection coefficient must be > 0", ErrInvalidParameter)
	}
	return nil
}

func (s Convection) HeatFlow(a, b Node) (float64, error) {
	return s.Coefficient * s.Area * (a.Temperature() - b.Temperature()), nil
}

// Radiation from surface a toward surroundings b, using a's emissivity.
type Radiation struct {
	Area float64 // m²
}

func (Radiation) Kind() Kind { return KindRadiation }

func (s Radiation) Validate() error {
	if s.Area <= 0 {
		return fmt.Errorf("%w: radiation area must be > 0", ErrInvalidParameter)
	}
	return nil
}

func (s Radiation) HeatFlow(a, b Node) (float64, error) {
	m := a.Material()
	if m == nil || m.Emissivity == nil {
		return 0, domainError(KindRadiation, a, b, ErrMissingEmissivity)
	}
	return *m.Emissivity * StefanBoltzmann * s.Area * (math.Pow(a.Temperature(), 4) - math.Pow(b.Temperature(), 4)), nil
}

// SolarAbsorption deposits irradiance on b, scaled by b's absorptivity.
// The temperature of the source a is not read.
type SolarAbsorption struct {
	Irradiance float64 // W/m²
	Area       float64 // m²
}

func (SolarAbsorption) Kind() Kind { return KindSolarAbsorption }

func (s SolarAbsorption) Validate() error {
	if s.Irradiance < 0 {
		return fmt.Errorf("%w: irradiance must be >= 0", ErrInvalidParameter)
	}
	if s.Area <= 0 {
		return fmt.Errorf("%w: solar absorption area must be > 0", ErrInvalidParameter)
	}
	return nil
}

func (s SolarAbsorption) HeatFlow(a, b Node) (float64, error) {
	m := b.Material()
	if m == nil || m.Absorptivity == nil {
		return 0, domainError(KindSolarAbsorption, a, b, ErrMissingAbsorptivity)
	}
	return s.Irradiance * s.Area * *m.Absorptivity, nil
}

// Advection carries enthalpy with a mass flow of one fluid from a to b.
type Advection struct {
	MassFlowRate float64 // kg/s
}

func (Advection) Kind() Kind { return KindAdvection }

func (s Advection) Validate() error {
	if s.MassFlowRate < 0 {
		return fmt.Errorf("%w: mass flow rate must be >= 0", ErrInvalidParameter)
	}
	return nil
}

func (s Advection) HeatFlow(a, b Node) (float64, error) {
	m := a.Material()
	if m == nil || m != b.Material() {
		return 0, domainError(KindAdvection, a, b, ErrMaterialMismatch)
	}
	return s.MassFlowRate * m.SpecificHeat * (a.Temperature() - b.Temperature()), nil
}
