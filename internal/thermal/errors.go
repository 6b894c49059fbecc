package thermal

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMaterial     = errors.New("invalid material")
	ErrInvalidVolume       = errors.New("volume must be greater or equal to zero")
	ErrInvalidParameter    = errors.New("invalid strategy parameter")
	ErrInvalidUnits        = errors.New("invalid log units")
	ErrInvalidKind         = errors.New("invalid strategy kind")
	ErrInvalidEdge         = errors.New("invalid edge")
	ErrEmptyID             = errors.New("node id must not be empty")
	ErrInvalidTimeStep     = errors.New("time step must be strictly positive")
	ErrDuplicateNode       = errors.New("node already present in graph")
	ErrUnknownNode         = errors.New("unknown node")
	ErrZeroHeatCapacity    = errors.New("stepped component must have a non-zero heat capacity")
	ErrMissingMaterial     = errors.New("node has no material")
	ErrMissingEmissivity   = errors.New("surface emissivity must be defined for radiation")
	ErrMissingAbsorptivity = errors.New("target absorptivity must be defined for solar absorption")
	ErrMaterialMismatch    = errors.New("advection requires both nodes to share the same material")
)

// DomainError reports a strategy evaluated against nodes whose materials
// cannot support it. It is a configuration problem and is never retried.
type DomainError struct {
	Strategy Kind
	Source   string
	Target   string
	Err      error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s %q -> %q: %v", e.Strategy, e.Source, e.Target, e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func domainError(k Kind, a, b Node, err error) *DomainError {
	return &DomainError{Strategy: k, Source: a.ID(), Target: b.ID(), Err: err}
}
