package tracing

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/modeling"
	"github.com/sarchlab/devs/simulation"
)

// LogTracer writes every output and transition to a logger.
type LogTracer struct {
	logger *logrus.Logger
	level  logrus.Level
}

// NewLogTracer creates a tracer that logs at the given level.
func NewLogTracer(logger *logrus.Logger, level logrus.Level) *LogTracer {
	return &LogTracer{logger: logger, level: level}
}

// Output logs the values in the output ports of the model.
func (t *LogTracer) Output(now float64, model modeling.Atomic) {
	if !t.logger.IsLevelEnabled(t.level) {
		return
	}

	var values []string
	for port, value := range modeling.PortValues(model.OutPorts()) {
		values = append(values, fmt.Sprintf("%s=%v", port.Name(), value))
	}

	if len(values) == 0 {
		return
	}

	t.logger.WithFields(logrus.Fields{
		"sim_time": now,
		"model":    model.QualifiedName(),
		"values":   values,
	}).Log(t.level, "output")
}

// Transition logs the new state of the model.
func (t *LogTracer) Transition(
	now float64,
	model modeling.Atomic,
	kind simulation.TransitionKind,
) {
	if !t.logger.IsLevelEnabled(t.level) {
		return
	}

	t.logger.WithFields(logrus.Fields{
		"sim_time": now,
		"model":    model.QualifiedName(),
		"kind":     kind.String(),
		"phase":    model.Phase(),
		"sigma":    model.Sigma(),
	}).Log(t.level, "transition")
}
