package simulation

import (
	"fmt"
	"math"

	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/modeling"
)

// A Simulator runs the DEVS protocol of one atomic model.
type Simulator struct {
	*hooking.HookableBase

	clock *Clock
	model modeling.Atomic
	tL    float64
	tN    float64
}

// NewSimulator creates a Simulator for the given model.
func NewSimulator(clock *Clock, model modeling.Atomic) *Simulator {
	return &Simulator{
		HookableBase: hooking.NewHookableBase(),
		clock:        clock,
		model:        model,
		tN:           math.Inf(1),
	}
}

// Model returns the atomic model.
func (s *Simulator) Model() modeling.Component {
	return s.model
}

// Atomic returns the atomic model.
func (s *Simulator) Atomic() modeling.Atomic {
	return s.model
}

// Clock returns the shared clock.
func (s *Simulator) Clock() *Clock {
	return s.clock
}

// TL returns the time of the last transition.
func (s *Simulator) TL() float64 {
	return s.tL
}

// TN returns the time of the next internal transition.
func (s *Simulator) TN() float64 {
	return s.tN
}

// TA returns the time advance of the model.
func (s *Simulator) TA() float64 {
	return s.model.TA()
}

// Initialize initializes the model and schedules its first transition.
func (s *Simulator) Initialize() error {
	if err := s.model.Initialize(); err != nil {
		return fmt.Errorf("%s: initialize: %w", s.model.QualifiedName(), err)
	}

	s.tL = s.clock.Time()

	return s.scheduleNext()
}

// Exit lets the model release its resources.
func (s *Simulator) Exit() error {
	if err := s.model.Exit(); err != nil {
		return fmt.Errorf("%s: exit: %w", s.model.QualifiedName(), err)
	}

	return nil
}

// Lambda runs the output function if the model is imminent.
func (s *Simulator) Lambda() error {
	now := s.clock.Time()
	if now != s.tN {
		return nil
	}

	if err := s.model.Lambda(); err != nil {
		return fmt.Errorf("%s: lambda: %w", s.model.QualifiedName(), err)
	}

	s.invokeHook(HookPosOutput, now, nil)

	return nil
}

// DeltFcn runs the internal, external, or confluent transition, depending
// on whether the model is imminent and whether it has input.
func (s *Simulator) DeltFcn() error {
	t := s.clock.Time()
	imminent := t == s.tN
	hasInput := !s.model.IsInputEmpty()

	var (
		kind TransitionKind
		err  error
	)

	switch {
	case imminent && hasInput:
		kind = TransitionConfluent
		err = s.deltCon(t - s.tL)
	case imminent:
		kind = TransitionInternal
		err = s.model.DeltInt()
	case hasInput:
		kind = TransitionExternal
		err = s.model.DeltExt(t - s.tL)
	default:
		return nil
	}

	if err != nil {
		return fmt.Errorf("%s: %s transition: %w",
			s.model.QualifiedName(), kind, err)
	}

	s.tL = t
	if err := s.scheduleNext(); err != nil {
		return err
	}

	s.invokeHook(HookPosTransition, t, kind)

	return nil
}

func (s *Simulator) deltCon(e float64) error {
	if m, ok := s.model.(modeling.Confluent); ok {
		return m.DeltCon(e)
	}

	if err := s.model.DeltInt(); err != nil {
		return err
	}

	return s.model.DeltExt(0)
}

func (s *Simulator) scheduleNext() error {
	ta := s.model.TA()
	if ta < 0 || math.IsNaN(ta) {
		return fmt.Errorf("%s: ta = %g: %w",
			s.model.QualifiedName(), ta, ErrNegativeTimeAdvance)
	}

	s.tN = s.tL + ta

	return nil
}

// Clear empties the ports of the model.
func (s *Simulator) Clear() {
	for _, p := range s.model.InPorts() {
		p.Clear()
	}

	for _, p := range s.model.OutPorts() {
		p.Clear()
	}
}

func (s *Simulator) invokeHook(pos *hooking.HookPos, now float64, detail any) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Now:    now,
		Pos:    pos,
		Item:   s.model,
		Detail: detail,
	})
}
