package experiment

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/modeling"
	"github.com/sarchlab/devs/monitoring"
	"github.com/sarchlab/devs/simulation"
	"github.com/sarchlab/devs/tracing"
)

// Kind selects the coordinator that drives a simulation.
type Kind int

// Kinds of coordinator.
const (
	Sequential Kind = iota
	Parallel
	RealTime
)

func (k Kind) String() string {
	switch k {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	case RealTime:
		return "realtime"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrUnknownKind is returned when a coordinator name is not recognized.
var ErrUnknownKind = errors.New("unknown coordinator kind")

// ParseKind converts a coordinator name into a Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range []Kind{Sequential, Parallel, RealTime} {
		if k.String() == name {
			return k, nil
		}
	}

	return Sequential, fmt.Errorf("%q: %w", name, ErrUnknownKind)
}

// Builder can be used to build a simulation.
type Builder struct {
	kind        Kind
	numWorkers  int
	timeScale   float64
	flatten     *bool
	runID       string
	counting    bool
	phaseTime   bool
	logTrace    bool
	logLevel    logrus.Level
	recording   bool
	recordPath  string
	monitorOn   bool
	monitorPort int
	openBrowser bool
}

// MakeBuilder creates a builder of sequential simulations without any
// service attached.
func MakeBuilder() Builder {
	return Builder{
		kind:      Sequential,
		timeScale: 1,
	}
}

// WithKind selects the coordinator.
func (b Builder) WithKind(kind Kind) Builder {
	b.kind = kind
	return b
}

// WithNumWorkers sets the size of the worker pool. Zero keeps the default of
// the coordinator builder.
func (b Builder) WithNumWorkers(n int) Builder {
	b.numWorkers = n
	return b
}

// WithTimeScale sets the wall-clock seconds per time unit of real-time runs.
func (b Builder) WithTimeScale(s float64) Builder {
	b.timeScale = s
	return b
}

// WithFlatten chooses whether the model is flattened before the coordinator
// is built. By default, only parallel and real-time coordinators flatten.
func (b Builder) WithFlatten(flatten bool) Builder {
	b.flatten = &flatten
	return b
}

// WithRunID sets the id of the run. A unique id is generated otherwise.
func (b Builder) WithRunID(id string) Builder {
	b.runID = id
	return b
}

// WithTransitionCount counts the transitions of every model.
func (b Builder) WithTransitionCount() Builder {
	b.counting = true
	return b
}

// WithPhaseTime measures how long every atomic model stays in each phase.
// Measuring starts when the simulation is initialized.
func (b Builder) WithPhaseTime() Builder {
	b.phaseTime = true
	return b
}

// WithTransitionLog writes every output and transition to the standard logger
// at the given level.
func (b Builder) WithTransitionLog(level logrus.Level) Builder {
	b.logTrace = true
	b.logLevel = level

	return b
}

// WithRecording records transitions and outputs into path.sqlite3. An empty
// path lets the recorder pick a unique name.
func (b Builder) WithRecording(path string) Builder {
	b.recording = true
	b.recordPath = path

	return b
}

// WithMonitor serves the monitor on a port. Zero picks a random port.
func (b Builder) WithMonitor(port int) Builder {
	b.monitorOn = true
	b.monitorPort = port

	return b
}

// WithOpenBrowser opens the monitor page once the server starts.
func (b Builder) WithOpenBrowser() Builder {
	b.openBrowser = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.numWorkers < 0 {
		panic("number of workers cannot be negative")
	}

	if b.openBrowser && !b.monitorOn {
		panic("browser cannot be opened when monitoring is disabled")
	}
}

// Build builds the coordinator of the model and attaches the services.
func (b Builder) Build(model modeling.Coupled) (*Simulation, error) {
	b.parametersMustBeValid()

	s := &Simulation{id: b.runID, phaseTiming: b.phaseTime}
	if s.id == "" {
		s.id = xid.New().String()
	}

	coordinator, err := b.buildCoordinator(model)
	if err != nil {
		return nil, err
	}

	s.coordinator = coordinator

	if b.counting {
		s.counter = tracing.NewTransitionCountTracer()
		tracing.CollectTrace(coordinator, s.counter)
	}

	if b.logTrace {
		tracing.CollectTrace(coordinator,
			tracing.NewLogTracer(logrus.StandardLogger(), b.logLevel))
	}

	if b.recording {
		if err := b.attachRecorder(s); err != nil {
			return nil, err
		}
	}

	if b.monitorOn {
		if err := b.attachMonitor(s); err != nil {
			return nil, errors.Join(err, s.closeRecorder())
		}
	}

	logrus.WithFields(logrus.Fields{
		"id":          s.id,
		"coordinator": b.kind,
		"model":       model.QualifiedName(),
	}).Info("simulation built")

	return s, nil
}

func (b Builder) buildCoordinator(model modeling.Coupled) (Coordinator, error) {
	cb := simulation.MakeBuilder().WithTimeScale(b.timeScale)
	if b.numWorkers > 0 {
		cb = cb.WithNumWorkers(b.numWorkers)
	}

	if b.flatten != nil {
		cb = cb.WithFlatten(*b.flatten)
	}

	switch b.kind {
	case Sequential:
		return cb.Build(model)
	case Parallel:
		return cb.BuildParallel(model)
	case RealTime:
		return cb.BuildRealTime(model)
	}

	return nil, fmt.Errorf("%s: %w", b.kind, ErrUnknownKind)
}

func (b Builder) attachRecorder(s *Simulation) error {
	recorder, err := datarecording.New(b.recordPath)
	if err != nil {
		return err
	}

	s.dataRecorder = recorder

	s.transitionTracer, err = tracing.NewTransitionTracer(recorder, s.id)
	if err != nil {
		return errors.Join(err, s.closeRecorder())
	}

	s.outputTracer, err = tracing.NewOutputTracer(recorder, s.id)
	if err != nil {
		return errors.Join(err, s.closeRecorder())
	}

	tracing.CollectTrace(s.coordinator, s.transitionTracer)
	tracing.CollectTrace(s.coordinator, s.outputTracer)

	return nil
}

func (s *Simulation) closeRecorder() error {
	if s.dataRecorder == nil {
		return nil
	}

	return s.dataRecorder.Close()
}

func (b Builder) attachMonitor(s *Simulation) error {
	m := monitoring.NewMonitor().
		WithPortNumber(b.monitorPort).
		WithOpenBrowser(b.openBrowser)
	m.RegisterCoordinator(s.coordinator)

	s.progressBar = m.CreateProgressBar(s.id, 0)
	s.coordinator.AcceptHook(monitoring.NewProgressHook(s.progressBar))

	if err := m.StartServer(); err != nil {
		return err
	}

	s.monitor = m

	return nil
}
