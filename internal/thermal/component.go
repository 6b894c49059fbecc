package thermal

import "fmt"

// Node is anything a strategy can read a temperature from.
type Node interface {
	ID() string
	Temperature() float64 // Kelvin
	Material() *Material
}

// Sample is one history entry. Temperature is in the owner's log units.
type Sample struct {
	Time        float64 // elapsed seconds
	Temperature float64
}

// Component is a lumped thermal mass that the graph steps.
type Component struct {
	id          string
	material    *Material
	volume      float64 // m³
	temperature float64 // K
	units       Units
	history     []Sample
}

func NewComponent(id string, material *Material, volume, initial float64) (*Component, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if material == nil {
		return nil, fmt.Errorf("%w: component %q", ErrMissingMaterial, id)
	}
	if err := material.Validate(); err != nil {
		return nil, err
	}
	if volume < 0 {
		return nil, ErrInvalidVolume
	}
	return &Component{
		id:          id,
		material:    material,
		volume:      volume,
		temperature: initial,
		units:       UnitsKelvin,
	}, nil
}

func (c *Component) ID() string           { return c.id }
func (c *Component) Temperature() float64 { return c.temperature }
func (c *Component) Material() *Material  { return c.material }
func (c *Component) Volume() float64      { return c.volume }
func (c *Component) Units() Units         { return c.units }

// SetUnits selects the units future history samples are recorded in.
func (c *Component) SetUnits(u Units) error {
	if !u.Valid() {
		return ErrInvalidUnits
	}
	c.units = u
	return nil
}

// HeatCapacity is density × volume × specific heat, in J/K.
func (c *Component) HeatCapacity() float64 {
	return c.material.Density * c.volume * c.material.SpecificHeat
}

// SetTemperature sets the state and records it at atTime.
// Time monotonicity is the caller's responsibility.
func (c *Component) SetTemperature(kelvin, atTime float64) {
	c.temperature = kelvin
	c.history = append(c.history, Sample{Time: atTime, Temperature: c.units.Convert(kelvin)})
}

// History returns a copy of the recorded samples.
func (c *Component) History() []Sample {
	out := make([]Sample, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Component) Len() int {
	return len(c.history)
}

// Boundary is a fixed temperature node: an ambient, a source, a sink.
// It takes part in edges but is never stepped and keeps no history.
type Boundary struct {
	id          string
	material    *Material
	temperature float64
}

// NewBoundary builds a boundary node. material may be nil when no strategy
// reads it (solar sources for instance).
func NewBoundary(id string, material *Material, kelvin float64) (*Boundary, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if material != nil {
		if err := material.Validate(); err != nil {
			return nil, err
		}
	}
	return &Boundary{id: id, material: material, temperature: kelvin}, nil
}

func (b *Boundary) ID() string           { return b.id }
func (b *Boundary) Temperature() float64 { return b.temperature }
func (b *Boundary) Material() *Material  { return b.material }

// SetTemperature changes the imposed condition. Call it between steps only.
func (b *Boundary) SetTemperature(kelvin float64) {
	b.temperature = kelvin
}
