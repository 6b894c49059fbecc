package thermal

import "fmt"

// Units selects how a component records its history.
type Units int

const (
	UnitsUnknown Units = iota
	UnitsKelvin
	UnitsCelsius
)

// CelsiusOffset is 0 °C expressed in Kelvin.
const CelsiusOffset = 273.15

func (u Units) Valid() bool {
	return u == UnitsKelvin || u == UnitsCelsius
}

func (u Units) String() string {
	switch u {
	case UnitsKelvin:
		return "kelvin"
	case UnitsCelsius:
		return "celsius"
	default:
		return "unknown"
	}
}

// Symbol is the short unit label used in table headers.
func (u Units) Symbol() string {
	switch u {
	case UnitsKelvin:
		return "K"
	case UnitsCelsius:
		return "°C"
	default:
		return "?"
	}
}

// Convert maps a temperature in Kelvin to u.
func (u Units) Convert(kelvin float64) float64 {
	if u == UnitsCelsius {
		return kelvin - CelsiusOffset
	}
	return kelvin
}

func ParseUnits(s string) (Units, error) {
	switch s {
	case "kelvin", "K":
		return UnitsKelvin, nil
	case "celsius", "C":
		return UnitsCelsius, nil
	default:
		return UnitsUnknown, fmt.Errorf("invalid units: %q", s)
	}
}

// Kind enumerates the heat transfer strategies.
type Kind int

const (
	KindUnknown Kind = iota
	KindConduction
	KindConvection
	KindRadiation
	KindSolarAbsorption
	KindAdvection
)

func (k Kind) Valid() bool {
	return k >= KindConduction && k <= KindAdvection
}

func (k Kind) String() string {
	switch k {
	case KindConduction:
		return "conduction"
	case KindConvection:
		return "convection"
	case KindRadiation:
		return "radiation"
	case KindSolarAbsorption:
		return "solar_absorption"
	case KindAdvection:
		return "advection"
	default:
		return "unknown"
	}
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "conduction":
		return KindConduction, nil
	case "convection":
		return KindConvection, nil
	case "radiation":
		return KindRadiation, nil
	case "solar_absorption":
		return KindSolarAbsorption, nil
	case "advection":
		return KindAdvection, nil
	default:
		return KindUnknown, fmt.Errorf("invalid strategy kind: %q", s)
	}
}

// State of a graph: idle until the first step.
type State int

const (
	StateIdle State = iota
	StateStepped
)

func (s State) String() string {
	if s == StateStepped {
		return "stepped"
	}
	return "idle"
}
