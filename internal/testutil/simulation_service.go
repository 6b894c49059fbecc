package testutil

import (
	"fmt"
	"sync"

	"github.com/Agrid-Dev/thermograph/internal/simulation"
	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

// FakeSimulationService is a reusable fake implementing ports.SimulationService.
// Put ONLY what multiple test packages need here.
type FakeSimulationService struct {
	mu sync.Mutex
	S  simulation.Snapshot

	SetRunningCalled bool
	SetRunningArg    bool

	SetBoundaryCalled bool
	SetBoundaryID     string
	SetBoundaryArg    float64
	SetBoundaryErr    error

	Histories map[string]thermal.Series

	subs []chan simulation.Snapshot
}

func NewFakeSimulationService() *FakeSimulationService {
	return &FakeSimulationService{
		S: simulation.Snapshot{
			RunID:      "default",
			Name:       "two-node",
			Running:    true,
			State:      thermal.StateStepped,
			Steps:      2,
			TotalSteps: 10,
			Elapsed:    120,
			Nodes: []simulation.Reading{
				{ID: "panel", Kelvin: 310, Units: thermal.UnitsKelvin},
				{ID: "fluid", Kelvin: 300, Units: thermal.UnitsCelsius},
			},
			Boundaries: []simulation.Reading{
				{ID: "sun", Kelvin: 5800, Units: thermal.UnitsKelvin},
				{ID: "air", Kelvin: 293.15, Units: thermal.UnitsKelvin},
			},
		},
		Histories: map[string]thermal.Series{
			"panel": {ID: "panel", Units: thermal.UnitsKelvin, Samples: []thermal.Sample{{Time: 60, Temperature: 305}, {Time: 120, Temperature: 310}}},
		},
	}
}

func (f *FakeSimulationService) Get() simulation.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.S
}

func (f *FakeSimulationService) SetRunning(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetRunningCalled = true
	f.SetRunningArg = b
	f.S.Running = b
}

func (f *FakeSimulationService) SetBoundaryTemperature(id string, k float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetBoundaryCalled = true
	f.SetBoundaryID = id
	f.SetBoundaryArg = k
	if f.SetBoundaryErr != nil {
		return f.SetBoundaryErr
	}
	for i, b := range f.S.Boundaries {
		if b.ID == id {
			f.S.Boundaries[i].Kelvin = k
			return nil
		}
	}
	return fmt.Errorf("%w: %q", simulation.ErrUnknownBoundary, id)
}

func (f *FakeSimulationService) History(id string) (thermal.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Histories[id]
	if !ok {
		return thermal.Series{}, fmt.Errorf("%w: %q", simulation.ErrUnknownComponent, id)
	}
	return s, nil
}

func (f *FakeSimulationService) Subscribe() (<-chan simulation.Snapshot, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan simulation.Snapshot, 4)
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

// Publish pushes s to every subscriber.
func (f *FakeSimulationService) Publish(s simulation.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.S = s
	for _, ch := range f.subs {
		ch <- s
	}
}
