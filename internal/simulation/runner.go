package simulation

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/thermograph/internal/scenario"
	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

type Params struct {
	Step     time.Duration // simulated time per step
	Duration time.Duration // simulated time of a batch run
	Interval time.Duration // wall clock time between live steps, 0 for as fast as possible
}

func (p *Params) Validate() error {
	if p.Step <= 0 {
		return ErrInvalidStep
	}
	if p.Duration < p.Step {
		return ErrInvalidDuration
	}
	if p.Interval < 0 {
		return ErrInvalidInterval
	}
	return nil
}

// TotalSteps is the number of steps needed to cover Duration.
func (p *Params) TotalSteps() int {
	return int(math.Ceil(p.Duration.Seconds() / p.Step.Seconds()))
}

type Reading struct {
	ID     string
	Kelvin float64
	Units  thermal.Units
}

// Display returns the temperature in the reading's units.
func (r Reading) Display() float64 {
	return r.Units.Convert(r.Kelvin)
}

type Snapshot struct {
	RunID      string
	Name       string
	Running    bool
	State      thermal.State
	Steps      int
	TotalSteps int
	Elapsed    float64 // seconds
	Nodes      []Reading
	Boundaries []Reading
}

// Runner drives a topology. It is the only writer of the graph; every
// access goes through its lock so controllers can read while it steps.
type Runner struct {
	mu      sync.RWMutex
	id      string
	topo    *scenario.Topology
	params  Params
	running bool
	elapsed float64
	log     *log.Entry

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

func New(id string, topo *scenario.Topology, params Params, logger *log.Logger) (*Runner, error) {
	if topo == nil {
		return nil, ErrNilTopology
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Runner{
		id:      id,
		topo:    topo,
		params:  params,
		running: true,
		log:     logger.WithFields(log.Fields{"run_id": id, "scenario": topo.Name}),
		subs:    make(map[int]chan Snapshot),
	}, nil
}

func (r *Runner) ID() string {
	return r.id
}

// Done reports whether the configured duration has been simulated.
func (r *Runner) Done() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topo.Graph.Steps() >= r.params.TotalSteps()
}

// StepOnce advances the graph by one step. The elapsed time recorded is
// the end of the step: (n+1)·Step for the n-th step.
func (r *Runner) StepOnce() error {
	r.mu.Lock()
	g := r.topo.Graph
	n := g.Steps()
	dt := r.params.Step.Seconds()
	elapsed := float64(n+1) * dt
	if err := g.Step(dt, elapsed); err != nil {
		r.mu.Unlock()
		return &StepError{Step: n + 1, Elapsed: elapsed, Err: err}
	}
	r.elapsed = elapsed
	r.broadcast(r.snapshotLocked())
	r.mu.Unlock()
	return nil
}

// RunBatch steps until the configured duration is covered. It returns
// early on a step failure or when ctx is done.
func (r *Runner) RunBatch(ctx context.Context) error {
	total := r.params.TotalSteps()
	r.log.WithFields(log.Fields{
		"steps": total,
		"dt":    r.params.Step,
		"nodes": len(r.topo.Graph.Nodes()),
		"edges": len(r.topo.Graph.Edges()),
	}).Info("batch run started")

	progress := max(total/10, 1)
	for !r.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.StepOnce(); err != nil {
			r.log.WithError(err).Error("step failed")
			return err
		}
		if steps := r.Steps(); steps%progress == 0 {
			r.log.WithField("step", steps).Debug("progress")
		}
	}

	r.log.WithField("elapsed_s", r.Elapsed()).Info("batch run finished")
	return nil
}

// Run steps once per Interval while running, until the duration is covered
// or ctx is done. A failed step stops the loop.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.params.Interval
	if interval == 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.WithField("interval", interval).Info("live run started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !r.Running() || r.Done() {
				continue
			}
			if err := r.StepOnce(); err != nil {
				r.log.WithError(err).Error("step failed")
				return err
			}
			if r.Done() {
				r.log.WithField("elapsed_s", r.Elapsed()).Info("live run reached its duration")
			}
		}
	}
}

func (r *Runner) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// SetRunning pauses or resumes live stepping.
func (r *Runner) SetRunning(on bool) {
	r.mu.Lock()
	r.running = on
	r.broadcast(r.snapshotLocked())
	r.mu.Unlock()

	r.log.WithField("running", on).Info("run state changed")
}

func (r *Runner) Steps() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topo.Graph.Steps()
}

func (r *Runner) Elapsed() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.elapsed
}

// SetBoundaryTemperature changes a fixed condition. It takes effect on the
// next step.
func (r *Runner) SetBoundaryTemperature(id string, kelvin float64) error {
	if math.IsNaN(kelvin) || math.IsInf(kelvin, 0) || kelvin < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTemperature, kelvin)
	}
	r.mu.Lock()
	b, ok := r.topo.Boundary(id)
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownBoundary, id)
	}
	b.SetTemperature(kelvin)
	r.broadcast(r.snapshotLocked())
	r.mu.Unlock()

	r.log.WithFields(log.Fields{"boundary": id, "kelvin": kelvin}).Info("boundary temperature set")
	return nil
}

// History returns the samples of one stepped component.
func (r *Runner) History(id string) (thermal.Series, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.topo.Graph.Component(id)
	if !ok {
		return thermal.Series{}, fmt.Errorf("%w: %q", ErrUnknownComponent, id)
	}
	return thermal.Series{ID: c.ID(), Units: c.Units(), Samples: c.History()}, nil
}

// Series returns every stepped component history, in node order.
func (r *Runner) Series() []thermal.Series {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topo.Graph.Series()
}

func (r *Runner) Get() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Runner) snapshotLocked() Snapshot {
	g := r.topo.Graph
	s := Snapshot{
		RunID:      r.id,
		Name:       r.topo.Name,
		Running:    r.running,
		State:      g.State(),
		Steps:      g.Steps(),
		TotalSteps: r.params.TotalSteps(),
		Elapsed:    r.elapsed,
	}
	for _, c := range g.Nodes() {
		s.Nodes = append(s.Nodes, Reading{ID: c.ID(), Kelvin: c.Temperature(), Units: c.Units()})
	}
	for _, b := range r.topo.Boundaries {
		s.Boundaries = append(s.Boundaries, Reading{ID: b.ID(), Kelvin: b.Temperature(), Units: thermal.UnitsKelvin})
	}
	return s
}

// Subscribe returns a channel receiving a snapshot after every change.
// Slow subscribers miss snapshots rather than block the run.
func (r *Runner) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			r.subMu.Unlock()
			close(ch)
		})
	}
}

// broadcast must be called with mu held so snapshots leave in the order
// they were taken. A slow subscriber loses its stale snapshot, never the
// newest one.
func (r *Runner) broadcast(s Snapshot) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
