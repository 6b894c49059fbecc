package thermal

import "fmt"

// Series is the export projection of one stepped component.
type Series struct {
	ID      string
	Units   Units
	Samples []Sample
}

// Graph owns the stepped components and the ordered edge list.
// It is not safe for concurrent use; callers serialize access.
type Graph struct {
	nodes []*Component
	index map[*Component]int
	ids   map[string]*Component
	edges []*Edge
	steps int
}

func NewGraph() *Graph {
	return &Graph{
		index: make(map[*Component]int),
		ids:   make(map[string]*Component),
	}
}

// AddComponent appends c to the stepped set.
func (g *Graph) AddComponent(c *Component) error {
	if c == nil {
		return fmt.Errorf("%w: nil component", ErrUnknownNode)
	}
	if _, ok := g.ids[c.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, c.ID())
	}
	if c.HeatCapacity() <= 0 {
		return fmt.Errorf("%w: %q", ErrZeroHeatCapacity, c.ID())
	}
	g.index[c] = len(g.nodes)
	g.ids[c.ID()] = c
	g.nodes = append(g.nodes, c)
	return nil
}

// AddEdge appends e. Edge order is evaluation order.
func (g *Graph) AddEdge(e *Edge) error {
	if e == nil {
		return fmt.Errorf("%w: nil edge", ErrInvalidEdge)
	}
	g.edges = append(g.edges, e)
	return nil
}

func (g *Graph) Nodes() []*Component {
	return append([]*Component(nil), g.nodes...)
}

func (g *Graph) Edges() []*Edge {
	return append([]*Edge(nil), g.edges...)
}

func (g *Graph) Component(id string) (*Component, bool) {
	c, ok := g.ids[id]
	return c, ok
}

func (g *Graph) Steps() int {
	return g.steps
}

func (g *Graph) State() State {
	if g.steps > 0 {
		return StateStepped
	}
	return StateIdle
}

// Flows returns the heat flow of every edge at the current state, in edge order.
func (g *Graph) Flows() ([]float64, error) {
	flows := make([]float64, len(g.edges))
	for i, e := range g.edges {
		q, err := e.HeatFlow()
		if err != nil {
			return nil, err
		}
		flows[i] = q
	}
	return flows, nil
}

// NetHeat returns the net inflow in watts of every stepped component.
func (g *Graph) NetHeat() (map[string]float64, error) {
	acc, err := g.accumulate()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(g.nodes))
	for i, c := range g.nodes {
		out[c.ID()] = acc[i]
	}
	return out, nil
}

func (g *Graph) accumulate() ([]float64, error) {
	acc := make([]float64, len(g.nodes))
	for _, e := range g.edges {
		q, err := e.HeatFlow()
		if err != nil {
			return nil, err
		}
		// Endpoints outside the stepped set only feed their peer.
		if i, ok := g.steppedIndex(e.From); ok {
			acc[i] -= q
		}
		if i, ok := g.steppedIndex(e.To); ok {
			acc[i] += q
		}
	}
	return acc, nil
}

func (g *Graph) steppedIndex(n Node) (int, bool) {
	c, ok := n.(*Component)
	if !ok {
		return 0, false
	}
	i, ok := g.index[c]
	return i, ok
}

// Step advances every stepped component by dt seconds with forward Euler
// and records the new temperatures at elapsed. All edges are evaluated on
// the start-of-step state before anything is written. A strategy error
// aborts the step and leaves every component untouched.
func (g *Graph) Step(dt, elapsed float64) error {
	if !(dt > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
	}
	acc, err := g.accumulate()
	if err != nil {
		return err
	}
	for i, c := range g.nodes {
		c.SetTemperature(c.Temperature()+acc[i]*dt/c.HeatCapacity(), elapsed)
	}
	g.steps++
	return nil
}

// Series projects the histories of the stepped components, in node order.
func (g *Graph) Series() []Series {
	out := make([]Series, 0, len(g.nodes))
	for _, c := range g.nodes {
		out = append(out, Series{ID: c.ID(), Units: c.Units(), Samples: c.History()})
	}
	return out
}
