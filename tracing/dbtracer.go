package tracing

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/modeling"
	"github.com/sarchlab/devs/simulation"
)

// Tables written by the database tracers.
const (
	TransitionTable = "devs_transition"
	OutputTable     = "devs_output"
)

// TransitionRecord is one row of the transition table.
type TransitionRecord struct {
	RunID string
	Time  float64
	Model string
	Kind  string
	Phase string
	Sigma float64
}

// OutputRecord is one row of the output table. There is one row per value.
type OutputRecord struct {
	RunID string
	Time  float64
	Model string
	Port  string
	Value string
}

type dbTracer struct {
	runID   string
	backend datarecording.DataRecorder
	table   string
}

func newDBTracer(
	backend datarecording.DataRecorder,
	table string,
	sample any,
	runID string,
) (dbTracer, error) {
	if runID == "" {
		runID = xid.New().String()
	}

	if err := backend.CreateTable(table, sample); err != nil {
		return dbTracer{}, err
	}

	return dbTracer{runID: runID, backend: backend, table: table}, nil
}

// RunID returns the id stored in every row written by the tracer.
func (t *dbTracer) RunID() string {
	return t.runID
}

func (t *dbTracer) insert(entry any) {
	if err := t.backend.InsertData(t.table, entry); err != nil {
		logrus.WithError(err).
			WithField("table", t.table).
			Error("failed to record trace")
	}
}

// TransitionTracer records every transition of every atomic model.
type TransitionTracer struct {
	dbTracer
}

// NewTransitionTracer creates the transition table in the backend. An empty
// runID is replaced by a generated one.
func NewTransitionTracer(
	backend datarecording.DataRecorder,
	runID string,
) (*TransitionTracer, error) {
	t, err := newDBTracer(backend, TransitionTable, TransitionRecord{}, runID)
	if err != nil {
		return nil, err
	}

	return &TransitionTracer{dbTracer: t}, nil
}

// Output does nothing.
func (t *TransitionTracer) Output(float64, modeling.Atomic) {}

// Transition records the new state of the model.
func (t *TransitionTracer) Transition(
	now float64,
	model modeling.Atomic,
	kind simulation.TransitionKind,
) {
	t.insert(TransitionRecord{
		RunID: t.runID,
		Time:  now,
		Model: model.QualifiedName(),
		Kind:  kind.String(),
		Phase: model.Phase(),
		Sigma: model.Sigma(),
	})
}

// OutputTracer records every value that atomic models write to their output
// ports.
type OutputTracer struct {
	dbTracer
}

// NewOutputTracer creates the output table in the backend. An empty runID is
// replaced by a generated one.
func NewOutputTracer(
	backend datarecording.DataRecorder,
	runID string,
) (*OutputTracer, error) {
	t, err := newDBTracer(backend, OutputTable, OutputRecord{}, runID)
	if err != nil {
		return nil, err
	}

	return &OutputTracer{dbTracer: t}, nil
}

// Output records the values of the output ports of the model.
func (t *OutputTracer) Output(now float64, model modeling.Atomic) {
	for port, value := range modeling.PortValues(model.OutPorts()) {
		t.insert(OutputRecord{
			RunID: t.runID,
			Time:  now,
			Model: model.QualifiedName(),
			Port:  port.Name(),
			Value: fmt.Sprint(value),
		})
	}
}

// Transition does nothing.
func (t *OutputTracer) Transition(float64, modeling.Atomic, simulation.TransitionKind) {
}
