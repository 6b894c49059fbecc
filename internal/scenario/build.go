package scenario

import (
	"fmt"

	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

// Topology is a built scenario: the graph plus every node by id.
type Topology struct {
	Name       string
	Graph      *thermal.Graph
	Materials  map[string]*thermal.Material
	Components map[string]*thermal.Component
	Boundaries []*thermal.Boundary
}

// Boundary looks a boundary node up by id.
func (t *Topology) Boundary(id string) (*thermal.Boundary, bool) {
	for _, b := range t.Boundaries {
		if b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

// strategyParams lists, per strategy, the parameters it requires.
// Any other parameter set on the edge is rejected.
var strategyParams = map[thermal.Kind][]string{
	thermal.KindConduction:      {"length", "area"},
	thermal.KindConvection:      {"area", "coefficient"},
	thermal.KindRadiation:       {"area"},
	thermal.KindSolarAbsorption: {"irradiance", "area"},
	thermal.KindAdvection:       {"mass_flow_rate"},
}

func (e EdgeSpec) params() map[string]*float64 {
	return map[string]*float64{
		"length":         e.Length,
		"area":           e.Area,
		"coefficient":    e.Coefficient,
		"irradiance":     e.Irradiance,
		"mass_flow_rate": e.MassFlowRate,
	}
}

// Build turns the named parameters into a thermal.Strategy.
func (e EdgeSpec) Build() (thermal.Strategy, error) {
	kind, err := thermal.ParseKind(e.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, err)
	}

	required := strategyParams[kind]
	params := e.params()
	for _, name := range required {
		if params[name] == nil {
			return nil, fmt.Errorf("%w: %s needs %q", ErrMissingParameter, kind, name)
		}
		delete(params, name)
	}
	for name, v := range params {
		if v != nil {
			return nil, fmt.Errorf("%w: %s does not take %q", ErrUnexpectedParameter, kind, name)
		}
	}

	var s thermal.Strategy
	switch kind {
	case thermal.KindConduction:
		s = thermal.Conduction{Length: *e.Length, Area: *e.Area}
	case thermal.KindConvection:
		s = thermal.Convection{Area: *e.Area, Coefficient: *e.Coefficient}
	case thermal.KindRadiation:
		s = thermal.Radiation{Area: *e.Area}
	case thermal.KindSolarAbsorption:
		s = thermal.SolarAbsorption{Irradiance: *e.Irradiance, Area: *e.Area}
	case thermal.KindAdvection:
		s = thermal.Advection{MassFlowRate: *e.MassFlowRate}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Build resolves the materials, creates the nodes and wires the graph.
// Every material key maps to a single shared instance.
func Build(s Spec) (*Topology, error) {
	t := &Topology{
		Name:       s.Name,
		Graph:      thermal.NewGraph(),
		Materials:  make(map[string]*thermal.Material),
		Components: make(map[string]*thermal.Component),
	}

	for key, m := range Library() {
		t.Materials[key] = &m
	}
	for key, ms := range s.Materials {
		m := &thermal.Material{
			Name:                ms.Name,
			ThermalConductivity: ms.ThermalConductivity,
			SpecificHeat:        ms.SpecificHeat,
			Density:             ms.Density,
			Emissivity:          ms.Emissivity,
			Absorptivity:        ms.Absorptivity,
		}
		if m.Name == "" {
			m.Name = key
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		t.Materials[key] = m
	}

	units := thermal.UnitsKelvin
	if s.LogUnits != "" {
		u, err := thermal.ParseUnits(s.LogUnits)
		if err != nil {
			return nil, err
		}
		units = u
	}

	nodes := make(map[string]thermal.Node)
	for _, cs := range s.Components {
		if _, ok := nodes[cs.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, cs.ID)
		}
		m, ok := t.Materials[cs.Material]
		if !ok {
			return nil, fmt.Errorf("%w: %q on component %q", ErrUnknownMaterial, cs.Material, cs.ID)
		}
		c, err := thermal.NewComponent(cs.ID, m, cs.Volume, cs.InitialTemperature)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", cs.ID, err)
		}
		u := units
		if cs.LogUnits != "" {
			if u, err = thermal.ParseUnits(cs.LogUnits); err != nil {
				return nil, fmt.Errorf("component %q: %w", cs.ID, err)
			}
		}
		if err := c.SetUnits(u); err != nil {
			return nil, err
		}
		if cs.IsStepped() {
			if err := t.Graph.AddComponent(c); err != nil {
				return nil, err
			}
		}
		nodes[cs.ID] = c
		t.Components[cs.ID] = c
	}
	if len(t.Graph.Nodes()) == 0 {
		return nil, ErrEmptyScenario
	}

	for _, bs := range s.Boundaries {
		if _, ok := nodes[bs.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, bs.ID)
		}
		var m *thermal.Material
		if bs.Material != "" {
			var ok bool
			if m, ok = t.Materials[bs.Material]; !ok {
				return nil, fmt.Errorf("%w: %q on boundary %q", ErrUnknownMaterial, bs.Material, bs.ID)
			}
		}
		b, err := thermal.NewBoundary(bs.ID, m, bs.Temperature)
		if err != nil {
			return nil, fmt.Errorf("boundary %q: %w", bs.ID, err)
		}
		nodes[bs.ID] = b
		t.Boundaries = append(t.Boundaries, b)
	}

	for _, es := range s.Edges {
		from, ok := nodes[es.From]
		if !ok {
			return nil, fmt.Errorf("%w: %q in edge %s", ErrUnknownNode, es.From, es)
		}
		to, ok := nodes[es.To]
		if !ok {
			return nil, fmt.Errorf("%w: %q in edge %s", ErrUnknownNode, es.To, es)
		}
		st, err := es.Build()
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", es, err)
		}
		e, err := thermal.NewEdge(from, to, st)
		if err != nil {
			return nil, err
		}
		if err := t.Graph.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return t, nil
}
