package thermal

import "fmt"

// Edge binds two nodes with one strategy. It does not own the nodes.
type Edge struct {
	From     Node
	To       Node
	Strategy Strategy
}

func NewEdge(from, to Node, s Strategy) (*Edge, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("%w: nil endpoint", ErrInvalidEdge)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: nil strategy", ErrInvalidEdge)
	}
	if from.ID() == to.ID() {
		return nil, fmt.Errorf("%w: %q is connected to itself", ErrInvalidEdge, from.ID())
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("edge %q -> %q: %w", from.ID(), to.ID(), err)
	}
	return &Edge{From: from, To: to, Strategy: s}, nil
}

// HeatFlow evaluates the strategy on the current endpoint temperatures.
func (e *Edge) HeatFlow() (float64, error) {
	return e.Strategy.HeatFlow(e.From, e.To)
}

func (e *Edge) String() string {
	return fmt.Sprintf("%s(%s -> %s)", e.Strategy.Kind(), e.From.ID(), e.To.ID())
}
