// Package initseq synthesizes the ordered command trace that brings an SDRAM
// device from power-up to its operational state, and runs it against a DFI
// binding.
package initseq

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/modereg"
	"github.com/sarchlab/sdraminit/profile"
)

// StepKind tells whether a step writes the control register or issues a
// command.
type StepKind int

// The kinds of steps.
const (
	StepControl StepKind = iota
	StepCommand
)

func (k StepKind) String() string {
	if k == StepControl {
		return "control"
	}

	return "command"
}

// Step is one entry of the bring-up trace.
type Step struct {
	Label       string
	Kind        StepKind
	Address     uint16
	BankAddress uint8
	Control     dfi.Control
	Command     dfi.Command
	Phase       int
	PostDelay   int
}

// Mask returns the control or command bits the step writes.
func (s Step) Mask() uint8 {
	if s.Kind == StepControl {
		return uint8(s.Control)
	}

	return uint8(s.Command)
}

// MaskNames returns the names of the bits the step writes.
func (s Step) MaskNames() []string {
	if s.Kind == StepControl {
		return s.Control.Names()
	}

	return s.Command.Names()
}

// MaskString joins the names of the bits the step writes with "|".
func (s Step) MaskString() string {
	if s.Kind == StepControl {
		return s.Control.String()
	}

	return s.Command.String()
}

// Sequence is the complete bring-up trace of a profile.
type Sequence struct {
	Profile       profile.Profile
	ModeRegisters modereg.Set
	Steps         []Step
}

// Technology returns the technology the sequence brings up.
func (s Sequence) Technology() profile.Technology {
	return s.Profile.Technology
}

// Errors returned by the synthesizer.
var (
	ErrNoTemplate          = errors.New("no bring-up template")
	ErrMissingModeRegister = errors.New("mode register not encoded")
	ErrNotRDIMM            = errors.New("RCD op on a profile without RDIMM")
)

const (
	prechargeAllAddress = 0x400
	zqCalibrationLong   = 0x400
)

// Synthesize expands the template of the profile's technology into the
// bring-up trace. The same profile and mode registers always produce the
// same sequence.
func Synthesize(p profile.Profile, mrs modereg.Set) (Sequence, error) {
	err := p.Validate()
	if err != nil {
		return Sequence{}, err
	}

	template, ok := TemplateFor(p)
	if !ok {
		return Sequence{}, fmt.Errorf("%s: %w", p.Technology, ErrNoTemplate)
	}

	labels := strings.NewReplacer(
		"{CL}", strconv.Itoa(p.CASLatency),
		"{CWL}", strconv.Itoa(p.CASWriteLatency),
		"{BL}", strconv.Itoa(p.BurstLength),
	)

	steps := make([]Step, 0, template.StepCount())

	for _, op := range template.Ops {
		step, err := resolve(op, p, mrs)
		if err != nil {
			return Sequence{}, err
		}

		step.Label = labels.Replace(op.Label)

		for i := 0; i < max(op.Repeat, 1); i++ {
			steps = append(steps, step)
		}
	}

	if p.IsRDIMM() {
		steps = mirrorBSide(steps)
	}

	set := make(modereg.Set, len(mrs))
	for i, v := range mrs {
		set[i] = v
	}

	return Sequence{
		Profile:       p,
		ModeRegisters: set,
		Steps:         steps,
	}, nil
}

func resolve(op Op, p profile.Profile, mrs modereg.Set) (Step, error) {
	step := Step{
		Kind:      StepCommand,
		Phase:     p.CommandPhase,
		PostDelay: op.Delay,
	}

	switch op.Kind {
	case ReleaseReset:
		step.Kind = StepControl
		step.Control = dfi.CtrlUnreset
	case AssertCKE:
		step.Kind = StepControl
		step.Control = dfi.CtrlCKE
	case PrechargeAll:
		step.Command = dfi.CmdPrechargeAll
		step.Address = prechargeAllAddress
	case AutoRefresh:
		step.Command = dfi.CmdAutoRefresh
	case ZQCalibration:
		step.Command = dfi.CmdZQCalibration
		step.Address = zqCalibrationLong
	case LoadModeRegister:
		if !mrs.Has(op.Register) {
			return Step{}, fmt.Errorf("%s MR%d: %w",
				p.Technology, op.Register, ErrMissingModeRegister)
		}

		step.Command = dfi.CmdModeRegister
		step.Address = mrs.Value(op.Register) | op.Extra
		step.BankAddress = uint8(op.Register)
	case LoadRCD:
		v, err := rcdWord(op.Word, p)
		if err != nil {
			return Step{}, err
		}

		step.Command = dfi.CmdModeRegister
		step.Address = v
		step.BankAddress = RCDBank
	default:
		panic(fmt.Sprintf("unknown op kind %s", op.Kind))
	}

	return step, nil
}

// Generate encodes the mode registers of the profile and synthesizes its
// bring-up trace.
func Generate(p profile.Profile) (Sequence, error) {
	err := p.Validate()
	if err != nil {
		return Sequence{}, err
	}

	mrs, err := modereg.Encode(p)
	if err != nil {
		return Sequence{}, err
	}

	return Synthesize(p, mrs)
}
