// Package tracing observes simulation runs through hooks and turns what the
// models do into traces and statistics.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/modeling"
	"github.com/sarchlab/devs/simulation"
)

// A Tracer is notified of what the atomic models do. Tracers may be called
// from several worker goroutines at the same time.
type Tracer interface {
	// Output is called after a model computed its output, while its output
	// ports still hold the values.
	Output(now float64, model modeling.Atomic)

	// Transition is called after a model transitioned.
	Transition(now float64, model modeling.Atomic, kind simulation.TransitionKind)
}

// CollectTrace lets the tracer collect traces from a coordinator, or from a
// single simulator.
func CollectTrace(domain hooking.Hookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf("domain already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&traceHook{t: tracer})
}

// A traceHook forwards the kernel hooks to a tracer.
type traceHook struct {
	t Tracer
}

// Func calls the tracer interfaces when the hook is triggered
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosOutput:
		h.t.Output(ctx.Now, ctx.Item.(modeling.Atomic))
	case simulation.HookPosTransition:
		h.t.Transition(ctx.Now, ctx.Item.(modeling.Atomic),
			ctx.Detail.(simulation.TransitionKind))
	}
}
