// Package compat exposes a DFI binding through the flat accessors that
// older firmware expects: the number of phases, read and write phase
// aliases, per-phase command helpers and the data register lookups.
package compat

import (
	"errors"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
)

// Legacy is a stateless projection of a binding.
type Legacy struct {
	binding *dfi.Binding
}

// New creates the legacy facade of a binding.
func New(b *dfi.Binding) *Legacy {
	return &Legacy{binding: b}
}

// NPhases returns the number of phases.
func (l *Legacy) NPhases() int {
	return l.binding.NPhases()
}

// ReadPhase returns the index of the read phase.
func (l *Legacy) ReadPhase() int {
	return l.binding.ReadPhase()
}

// WritePhase returns the index of the write phase.
func (l *Legacy) WritePhase() int {
	return l.binding.WritePhase()
}

// ReadPort returns the port of the read phase.
func (l *Legacy) ReadPort() dfi.PhasePort {
	return l.binding.ReadPort()
}

// WritePort returns the port of the write phase.
func (l *Legacy) WritePort() dfi.PhasePort {
	return l.binding.WritePort()
}

// CommandP returns the command helper of phase n. The helper panics if the
// phase does not exist.
func (l *Legacy) CommandP(n int) func(cmd dfi.Command) {
	_, err := l.binding.Port(n)
	if err != nil {
		panic(err)
	}

	return func(cmd dfi.Command) {
		mustNotFail(l.binding.Command(n, cmd))
	}
}

// CommandPRd issues a command on the read phase.
func (l *Legacy) CommandPRd(cmd dfi.Command) {
	mustNotFail(l.binding.Command(l.ReadPhase(), cmd))
}

// CommandPWr issues a command on the write phase.
func (l *Legacy) CommandPWr(cmd dfi.Command) {
	mustNotFail(l.binding.Command(l.WritePhase(), cmd))
}

// PiRdAddressWrite writes the address register of the read phase.
func (l *Legacy) PiRdAddressWrite(v uint16) {
	mustNotFail(l.binding.AddressWrite(l.ReadPhase(), v))
}

// PiWrAddressWrite writes the address register of the write phase.
func (l *Legacy) PiWrAddressWrite(v uint16) {
	mustNotFail(l.binding.AddressWrite(l.WritePhase(), v))
}

// PiRdBAddressWrite writes the bank address register of the read phase.
func (l *Legacy) PiRdBAddressWrite(v uint8) {
	mustNotFail(l.binding.BankAddressWrite(l.ReadPhase(), v))
}

// PiWrBAddressWrite writes the bank address register of the write phase.
func (l *Legacy) PiWrBAddressWrite(v uint8) {
	mustNotFail(l.binding.BankAddressWrite(l.WritePhase(), v))
}

// PixWrDataAddr returns the address of the write data register of a phase,
// or 0 if the phase does not exist.
func (l *Legacy) PixWrDataAddr(phase int) uint64 {
	d, ok := l.binding.Data(phase)
	if !ok {
		return 0
	}

	return d.WrDataAddr
}

// PixRdDataAddr returns the address of the read data register of a phase,
// or 0 if the phase does not exist.
func (l *Legacy) PixRdDataAddr(phase int) uint64 {
	d, ok := l.binding.Data(phase)
	if !ok {
		return 0
	}

	return d.RdDataAddr
}

// ErrForeignRunner is returned when a runner drives another binding.
var ErrForeignRunner = errors.New("runner is bound to another binding")

// InitSequence runs the bring-up sequence through the runner. The runner
// must write through the facade's binding.
func (l *Legacy) InitSequence(r *initseq.Runner, seq initseq.Sequence) error {
	if r.Binding() != l.binding {
		return ErrForeignRunner
	}

	return r.Run(seq)
}

// mustNotFail panics on errors that the read and write phases, which are
// checked when the binding is built, cannot produce.
func mustNotFail(err error) {
	if err != nil {
		panic(err)
	}
}
