package dfi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/sdraminit/hooking"
	"github.com/sarchlab/sdraminit/profile"
)

// A ControlWriter writes the DFII control register shared by all phases.
type ControlWriter interface {
	ControlWrite(v Control)
}

// A PhasePort is the set of registers of one DFI phase.
type PhasePort interface {
	CommandWrite(v Command)
	CommandIssueWrite(v uint8)
	AddressWrite(v uint16)
	BankAddressWrite(v uint8)
}

// PhaseData locates the write and read data registers of one phase.
type PhaseData struct {
	WrDataAddr uint64
	RdDataAddr uint64
}

// Hardware describes the register sinks of a PHY. Phases and Data are
// indexed by phase number.
type Hardware struct {
	Control ControlWriter
	Phases  []PhasePort
	Data    []PhaseData
}

// Errors reported while binding.
var (
	ErrNoControl          = errors.New("no control register")
	ErrNoPhases           = errors.New("no phase ports")
	ErrPhaseCountMismatch = errors.New("phase data does not match phase ports")
	ErrPhaseOutOfRange    = errors.New("phase out of range")
)

// PhaseError reports an access to a phase the binding does not have.
type PhaseError struct {
	Phase   int
	NPhases int
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("dfi: phase %d out of range [0, %d)", e.Phase, e.NPhases)
}

func (e *PhaseError) Unwrap() error {
	return ErrPhaseOutOfRange
}

// HookPosRegisterWrite marks every register write that goes through a
// binding. The hook item is a RegisterWrite.
//
// Hooks run while the binding holds its write lock, so the two writes of a
// command are always reported back to back. A hook may read the binding
// (NPhases, Port, Data, ReadPort, WritePort) but must not write through it:
// the write would wait for the lock the hook runs under and never return.
var HookPosRegisterWrite = &hooking.HookPos{Name: "DFI Register Write"}

// Signal names the register a write targets.
type Signal int

// The registers of a DFI interface.
const (
	SignalControl Signal = iota
	SignalCommand
	SignalCommandIssue
	SignalAddress
	SignalBankAddress
)

var signalNames = [...]string{
	SignalControl:      "control",
	SignalCommand:      "command",
	SignalCommandIssue: "command_issue",
	SignalAddress:      "address",
	SignalBankAddress:  "baddress",
}

func (s Signal) String() string {
	if s < 0 || int(s) >= len(signalNames) {
		return fmt.Sprintf("Signal(%d)", int(s))
	}

	return signalNames[s]
}

// RegisterWrite describes one register write. Phase is -1 for the control
// register.
type RegisterWrite struct {
	Phase  int
	Signal Signal
	Value  uint64
}

// Binding maps phase indices to phase ports. It is built once and never
// changes.
type Binding struct {
	*hooking.HookableBase

	lock       sync.Mutex
	hw         Hardware
	readPhase  int
	writePhase int
}

// NewBinding binds the hardware with the given read and write phases.
func NewBinding(hw Hardware, readPhase, writePhase int) (*Binding, error) {
	if hw.Control == nil {
		return nil, ErrNoControl
	}

	n := len(hw.Phases)
	if n == 0 {
		return nil, ErrNoPhases
	}

	if hw.Data != nil && len(hw.Data) != n {
		return nil, fmt.Errorf("%d data entries for %d phases: %w",
			len(hw.Data), n, ErrPhaseCountMismatch)
	}

	for i, p := range hw.Phases {
		if p == nil {
			return nil, fmt.Errorf("phase %d: %w", i, ErrNoPhases)
		}
	}

	if readPhase < 0 || readPhase >= n {
		return nil, fmt.Errorf("read phase: %w",
			&PhaseError{Phase: readPhase, NPhases: n})
	}

	if writePhase < 0 || writePhase >= n {
		return nil, fmt.Errorf("write phase: %w",
			&PhaseError{Phase: writePhase, NPhases: n})
	}

	phases := make([]PhasePort, n)
	copy(phases, hw.Phases)
	hw.Phases = phases

	if hw.Data != nil {
		data := make([]PhaseData, n)
		copy(data, hw.Data)
		hw.Data = data
	}

	return &Binding{
		HookableBase: hooking.NewHookableBase(),
		hw:           hw,
		readPhase:    readPhase,
		writePhase:   writePhase,
	}, nil
}

// NewBindingForProfile binds the hardware with the profile's read and write
// phases. The hardware must have exactly the profile's phase count.
func NewBindingForProfile(hw Hardware, p profile.Profile) (*Binding, error) {
	if len(hw.Phases) != p.PhaseCount {
		return nil, fmt.Errorf("profile has %d phases, hardware has %d: %w",
			p.PhaseCount, len(hw.Phases), ErrPhaseCountMismatch)
	}

	return NewBinding(hw, p.ReadPhase, p.WritePhase)
}

// NPhases returns the number of phases.
func (b *Binding) NPhases() int {
	return len(b.hw.Phases)
}

// ReadPhase returns the index of the read phase.
func (b *Binding) ReadPhase() int {
	return b.readPhase
}

// WritePhase returns the index of the write phase.
func (b *Binding) WritePhase() int {
	return b.writePhase
}

func (b *Binding) checkPhase(p int) error {
	if p < 0 || p >= len(b.hw.Phases) {
		return &PhaseError{Phase: p, NPhases: len(b.hw.Phases)}
	}

	return nil
}

// Port returns the port of phase p.
func (b *Binding) Port(p int) (PhasePort, error) {
	err := b.checkPhase(p)
	if err != nil {
		return nil, err
	}

	return b.hw.Phases[p], nil
}

// ReadPort returns the port of the read phase.
func (b *Binding) ReadPort() PhasePort {
	return b.hw.Phases[b.readPhase]
}

// WritePort returns the port of the write phase.
func (b *Binding) WritePort() PhasePort {
	return b.hw.Phases[b.writePhase]
}

// Data returns the data register locations of phase p. It returns false if
// the phase does not exist or the hardware does not describe data
// registers.
func (b *Binding) Data(p int) (PhaseData, bool) {
	if b.checkPhase(p) != nil || b.hw.Data == nil {
		return PhaseData{}, false
	}

	return b.hw.Data[p], true
}

// ControlWrite writes the shared control register.
func (b *Binding) ControlWrite(v Control) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.hw.Control.ControlWrite(v)
	b.report(-1, SignalControl, uint64(v))
}

// AddressWrite writes the address register of phase p.
func (b *Binding) AddressWrite(p int, v uint16) error {
	err := b.checkPhase(p)
	if err != nil {
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.hw.Phases[p].AddressWrite(v)
	b.report(p, SignalAddress, uint64(v))

	return nil
}

// BankAddressWrite writes the bank address register of phase p.
func (b *Binding) BankAddressWrite(p int, v uint8) error {
	err := b.checkPhase(p)
	if err != nil {
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.hw.Phases[p].BankAddressWrite(v)
	b.report(p, SignalBankAddress, uint64(v))

	return nil
}

// Command writes the command register of phase p and then issues it. No
// other write through the binding can land between the two.
func (b *Binding) Command(p int, cmd Command) error {
	err := b.checkPhase(p)
	if err != nil {
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	port := b.hw.Phases[p]

	port.CommandWrite(cmd)
	b.report(p, SignalCommand, uint64(cmd))

	port.CommandIssueWrite(1)
	b.report(p, SignalCommandIssue, 1)

	return nil
}

func (b *Binding) report(phase int, s Signal, v uint64) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    HookPosRegisterWrite,
		Item:   RegisterWrite{Phase: phase, Signal: s, Value: v},
	})
}
