package simulation

import (
	"fmt"

	"github.com/sarchlab/devs/hooking"
)

// Hook positions triggered by the kernel.
var (
	// HookPosCycleStart is triggered by the root coordinator before the
	// output phase of a cycle. Item is a CycleInfo.
	HookPosCycleStart = &hooking.HookPos{Name: "CycleStart"}

	// HookPosCycleEnd is triggered by the root coordinator after the ports
	// are cleared. Item is a CycleInfo.
	HookPosCycleEnd = &hooking.HookPos{Name: "CycleEnd"}

	// HookPosOutput is triggered after an atomic model computes its output,
	// before the ports are propagated. Item is the modeling.Atomic.
	HookPosOutput = &hooking.HookPos{Name: "Output"}

	// HookPosTransition is triggered after an atomic model transitions.
	// Item is the modeling.Atomic and Detail is the TransitionKind.
	HookPosTransition = &hooking.HookPos{Name: "Transition"}
)

// CycleInfo describes one simulation cycle.
type CycleInfo struct {
	Iteration int64
	Time      float64
}

// TransitionKind tells which transition function an atomic model ran.
type TransitionKind int

// The transition kinds.
const (
	TransitionInternal TransitionKind = iota
	TransitionExternal
	TransitionConfluent
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionInternal:
		return "internal"
	case TransitionExternal:
		return "external"
	case TransitionConfluent:
		return "confluent"
	default:
		return fmt.Sprintf("TransitionKind(%d)", int(k))
	}
}
