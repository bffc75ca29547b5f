package initseq

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/hooking"
	"github.com/sarchlab/sdraminit/timing"
)

// Hook positions of a Runner. The hook item is a StepEvent.
var (
	HookPosStepStart = &hooking.HookPos{Name: "Step Start"}
	HookPosStepEnd   = &hooking.HookPos{Name: "Step End"}
)

// StepEvent identifies the step a hook fires for.
type StepEvent struct {
	Index int
	Step  Step
}

// Runner drives a sequence through a binding.
type Runner struct {
	*hooking.HookableBase

	binding *dfi.Binding
	waiter  timing.Waiter
	log     logr.Logger
}

// NewRunner creates a runner that writes through the binding and waits with
// the waiter.
func NewRunner(binding *dfi.Binding, waiter timing.Waiter) *Runner {
	return &Runner{
		HookableBase: hooking.NewHookableBase(),
		binding:      binding,
		waiter:       waiter,
		log:          logr.Discard(),
	}
}

// WithLogger sets the logger the runner reports steps to.
func (r *Runner) WithLogger(log logr.Logger) *Runner {
	r.log = log
	return r
}

// Binding returns the binding the runner writes through.
func (r *Runner) Binding() *dfi.Binding {
	return r.binding
}

// Run executes every step of the sequence in order. For each step it writes
// the address and the bank address of the step phase, then the control
// register or the command, then waits for the step delay.
//
// All phases are checked before the first write, so a sequence that does
// not fit the binding leaves the hardware untouched.
func (r *Runner) Run(seq Sequence) error {
	err := r.check(seq)
	if err != nil {
		return err
	}

	r.log.Info("running bring-up sequence",
		"technology", seq.Technology(),
		"phases", r.binding.NPhases(),
		"steps", len(seq.Steps))

	for i, step := range seq.Steps {
		r.runStep(i, step)
	}

	return nil
}

func (r *Runner) check(seq Sequence) error {
	n := r.binding.NPhases()
	if seq.Profile.PhaseCount != 0 && seq.Profile.PhaseCount != n {
		return fmt.Errorf("sequence for %d phases, binding has %d: %w",
			seq.Profile.PhaseCount, n, dfi.ErrPhaseCountMismatch)
	}

	for i, step := range seq.Steps {
		if step.Phase < 0 || step.Phase >= n {
			return fmt.Errorf("step %d (%s): %w",
				i, step.Label, &dfi.PhaseError{Phase: step.Phase, NPhases: n})
		}
	}

	return nil
}

func (r *Runner) runStep(i int, step Step) {
	event := StepEvent{Index: i, Step: step}
	r.invoke(HookPosStepStart, event)

	r.log.V(1).Info("step",
		"index", i,
		"label", step.Label,
		"address", fmt.Sprintf("%#x", step.Address),
		"bank", step.BankAddress,
		"kind", step.Kind.String(),
		"mask", step.MaskString(),
		"delay", step.PostDelay)

	mustNotFail(r.binding.AddressWrite(step.Phase, step.Address))
	mustNotFail(r.binding.BankAddressWrite(step.Phase, step.BankAddress))

	if step.Kind == StepControl {
		r.binding.ControlWrite(step.Control)
	} else {
		mustNotFail(r.binding.Command(step.Phase, step.Command))
	}

	if step.PostDelay > 0 {
		r.waiter.Wait(step.PostDelay)
	}

	r.invoke(HookPosStepEnd, event)
}

func (r *Runner) invoke(pos *hooking.HookPos, event StepEvent) {
	if r.NumHooks() == 0 {
		return
	}

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    pos,
		Item:   event,
	})
}

// mustNotFail panics on errors that the preflight check rules out.
func mustNotFail(err error) {
	if err != nil {
		panic(err)
	}
}
