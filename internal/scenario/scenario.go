package scenario

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// Spec is the declarative description of a thermal network.
// Temperatures are in Kelvin.
type Spec struct {
	Name       string                  `koanf:"name" yaml:"name"`
	LogUnits   string                  `koanf:"log_units" yaml:"log_units,omitempty"`
	Materials  map[string]MaterialSpec `koanf:"materials" yaml:"materials,omitempty"`
	Components []ComponentSpec         `koanf:"components" yaml:"components"`
	Boundaries []BoundarySpec          `koanf:"boundaries" yaml:"boundaries,omitempty"`
	Edges      []EdgeSpec              `koanf:"edges" yaml:"edges"`
}

type MaterialSpec struct {
	Name                string   `koanf:"name" yaml:"name"`
	ThermalConductivity float64  `koanf:"thermal_conductivity" yaml:"thermal_conductivity"`
	SpecificHeat        float64  `koanf:"specific_heat" yaml:"specific_heat"`
	Density             float64  `koanf:"density" yaml:"density"`
	Emissivity          *float64 `koanf:"emissivity" yaml:"emissivity,omitempty"`
	Absorptivity        *float64 `koanf:"absorptivity" yaml:"absorptivity,omitempty"`
}

type ComponentSpec struct {
	ID                 string  `koanf:"id" yaml:"id"`
	Material           string  `koanf:"material" yaml:"material"`
	Volume             float64 `koanf:"volume" yaml:"volume"`
	InitialTemperature float64 `koanf:"initial_temperature" yaml:"initial_temperature"`
	LogUnits           string  `koanf:"log_units" yaml:"log_units,omitempty"`
	// Stepped defaults to true. Unstepped components feed their edges
	// but are never updated nor logged.
	Stepped *bool `koanf:"stepped" yaml:"stepped,omitempty"`
}

func (c ComponentSpec) IsStepped() bool {
	return c.Stepped == nil || *c.Stepped
}

type BoundarySpec struct {
	ID          string  `koanf:"id" yaml:"id"`
	Material    string  `koanf:"material" yaml:"material,omitempty"`
	Temperature float64 `koanf:"temperature" yaml:"temperature"`
}

// EdgeSpec carries every strategy parameter by name. Only the ones the
// strategy declares may be set.
type EdgeSpec struct {
	From         string   `koanf:"from" yaml:"from"`
	To           string   `koanf:"to" yaml:"to"`
	Strategy     string   `koanf:"strategy" yaml:"strategy"`
	Length       *float64 `koanf:"length" yaml:"length,omitempty"`
	Area         *float64 `koanf:"area" yaml:"area,omitempty"`
	Coefficient  *float64 `koanf:"coefficient" yaml:"coefficient,omitempty"`
	Irradiance   *float64 `koanf:"irradiance" yaml:"irradiance,omitempty"`
	MassFlowRate *float64 `koanf:"mass_flow_rate" yaml:"mass_flow_rate,omitempty"`
}

func (e EdgeSpec) String() string {
	return fmt.Sprintf("%s(%s -> %s)", e.Strategy, e.From, e.To)
}

// Load reads a scenario from a .yaml, .yml or .json file.
func Load(path string) (Spec, error) {
	var s Spec

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = koanfyaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return s, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return s, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return s, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	return s, nil
}

// Encode writes s as YAML.
func Encode(w io.Writer, s Spec) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	return enc.Close()
}
