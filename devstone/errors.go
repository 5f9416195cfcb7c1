package devstone

import "fmt"

// TopologyError reports an unknown topology.
type TopologyError string

func (t TopologyError) Error() string {
	return fmt.Sprintf("unknown devstone topology %q", string(t))
}

// DimensionError reports a depth or width out of range.
type DimensionError struct {
	Topology Topology
	Field    string
	Value    int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("devstone %s: invalid %s %d", e.Topology, e.Field, e.Value)
}

// TimingConfigError reports a negative delay or preparation time.
type TimingConfigError struct {
	Field string
	Value float64
}

func (e *TimingConfigError) Error() string {
	return fmt.Sprintf("devstone: invalid %s %g", e.Field, e.Value)
}
