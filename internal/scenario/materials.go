package scenario

import "github.com/Agrid-Dev/thermograph/internal/thermal"

// Library returns the built-in material table, keyed by reference name.
// Conductivity and density from the thermtest materials database,
// emissivity and absorptivity from the engineering toolbox tables.
func Library() map[string]thermal.Material {
	return map[string]thermal.Material{
		"copper": {
			Name:                "Copper",
			ThermalConductivity: 397.48,
			SpecificHeat:        385,
			Density:             8940,
			Emissivity:          thermal.Ratio(0.03),
			Absorptivity:        thermal.Ratio(0.64),
		},
		"water": {
			Name:                "Water",
			ThermalConductivity: 0.60652,
			SpecificHeat:        4181,
			Density:             997.05,
			Emissivity:          thermal.Ratio(0.95),
		},
		"air": {
			Name:                "Air",
			ThermalConductivity: 0.025,
			SpecificHeat:        1004,
			Density:             1.29,
		},
		"steel304": {
			Name:                "Steel 304",
			ThermalConductivity: 14.644,
			SpecificHeat:        502,
			Density:             7920,
			Emissivity:          thermal.Ratio(0.85), // weathered
			Absorptivity:        thermal.Ratio(0.85),
		},
	}
}
