package thermal

import "fmt"

// Material holds the physical properties strategies and components read.
// A Material is never mutated once built; share it by pointer.
type Material struct {
	Name                string
	ThermalConductivity float64  // W/(m·K)
	SpecificHeat        float64  // J/(kg·K)
	Density             float64  // kg/m³
	Emissivity          *float64 // [0,1], nil when undefined
	Absorptivity        *float64 // [0,1], nil when undefined
}

func (m *Material) Validate() error {
	if m.ThermalConductivity <= 0 {
		return fmt.Errorf("%w: %s: thermal conductivity must be > 0", ErrInvalidMaterial, m.Name)
	}
	if m.SpecificHeat <= 0 {
		return fmt.Errorf("%w: %s: specific heat must be > 0", ErrInvalidMaterial, m.Name)
	}
	if m.Density <= 0 {
		return fmt.Errorf("%w: %s: density must be > 0", ErrInvalidMaterial, m.Name)
	}
	if m.Emissivity != nil && (*m.Emissivity < 0 || *m.Emissivity > 1) {
		return fmt.Errorf("%w: %s: emissivity must be within [0,1]", ErrInvalidMaterial, m.Name)
	}
	if m.Absorptivity != nil && (*m.Absorptivity < 0 || *m.Absorptivity > 1) {
		return fmt.Errorf("%w: %s: absorptivity must be within [0,1]", ErrInvalidMaterial, m.Name)
	}
	return nil
}

// Ratio returns a pointer to v, handy for optional material properties.
func Ratio(v float64) *float64 {
	return &v
}
