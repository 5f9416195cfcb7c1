// Package experiment bundles a coordinator with the services a simulation run
// usually needs: trace recording, transition counting, and a live monitor.
package experiment

import (
	"errors"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/modeling"
	"github.com/sarchlab/devs/monitoring"
	"github.com/sarchlab/devs/simulation"
	"github.com/sarchlab/devs/tracing"
)

// A Coordinator is a root coordinator of any kind.
type Coordinator interface {
	hooking.Hookable
	monitoring.Coordinator

	Initialize() error
	Exit() error
	SimulateIterations(n int) error
	SimulateTime(timeInterval float64) error
	Inject(e float64, port modeling.Port, values ...any) error
	Stop()
}

var (
	_ Coordinator = (*simulation.Coordinator)(nil)
	_ Coordinator = (*simulation.ParallelCoordinator)(nil)
	_ Coordinator = (*simulation.RealTimeCoordinator)(nil)
)

// A Simulation is a model, the coordinator that runs it, and the services
// attached to the run.
type Simulation struct {
	id          string
	coordinator Coordinator

	dataRecorder     datarecording.DataRecorder
	transitionTracer *tracing.TransitionTracer
	outputTracer     *tracing.OutputTracer
	counter          *tracing.TransitionCountTracer
	phaseTiming      bool
	phaseTime        *tracing.PhaseTimeTracer
	monitor          *monitoring.Monitor
	progressBar      *monitoring.ProgressBar
}

// ID returns the id of the run. It is also the run id of the recorded traces.
func (s *Simulation) ID() string {
	return s.id
}

// Coordinator returns the root coordinator.
func (s *Simulation) Coordinator() Coordinator {
	return s.coordinator
}

// Model returns the root model.
func (s *Simulation) Model() modeling.Coupled {
	return s.coordinator.Coupled()
}

// DataRecorder returns the recorder of the traces, or nil if the run is not
// recorded.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Counter returns the transition counter, or nil if counting is off.
func (s *Simulation) Counter() *tracing.TransitionCountTracer {
	return s.counter
}

// PhaseTime returns the phase time tracer, or nil if the phases are not
// measured or the simulation is not initialized.
func (s *Simulation) PhaseTime() *tracing.PhaseTimeTracer {
	return s.phaseTime
}

// Monitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Initialize initializes the models.
func (s *Simulation) Initialize() error {
	if err := s.coordinator.Initialize(); err != nil {
		return err
	}

	if s.phaseTiming && s.phaseTime == nil {
		s.phaseTime = tracing.NewPhaseTimeTracer(
			s.coordinator.Coupled(), s.coordinator.Clock().Time())
		tracing.CollectTrace(s.coordinator, s.phaseTime)
	}

	return nil
}

// SimulateIterations runs up to n cycles.
func (s *Simulation) SimulateIterations(n int) error {
	if s.progressBar != nil {
		s.progressBar.SetTotal(uint64(s.coordinator.Iterations()) + uint64(n))
	}

	return s.coordinator.SimulateIterations(n)
}

// SimulateTime runs the model for a simulation time interval.
func (s *Simulation) SimulateTime(timeInterval float64) error {
	return s.coordinator.SimulateTime(timeInterval)
}

// Inject adds values to an input port of the root model e time units after
// the last transition.
func (s *Simulation) Inject(e float64, port modeling.Port, values ...any) error {
	return s.coordinator.Inject(e, port, values...)
}

// Stop asks the running simulation to stop at the next cycle boundary.
func (s *Simulation) Stop() {
	s.coordinator.Stop()
}

// Terminate lets the models release their resources, writes the buffered
// traces, and shuts the services down. The simulation cannot run afterwards.
func (s *Simulation) Terminate() error {
	var errs []error

	if s.phaseTime != nil {
		s.phaseTime.Terminate(s.coordinator.Clock().Time())
	}

	errs = append(errs, s.coordinator.Exit())

	if c, ok := s.coordinator.(interface{ Close() }); ok {
		c.Close()
	}

	if s.dataRecorder != nil {
		errs = append(errs, s.dataRecorder.Close())
	}

	if s.monitor != nil {
		s.monitor.CompleteProgressBar(s.progressBar)
		errs = append(errs, s.monitor.StopServer())
	}

	return errors.Join(errs...)
}
