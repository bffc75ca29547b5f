package initseq

import (
	"fmt"

	"github.com/sarchlab/sdraminit/profile"
)

// RCDWord selects the RCD control word a LoadRCD op writes.
type RCDWord int

// The RCD control words written during bring-up.
const (
	RCDReset        RCDWord = iota // F0RC06, reset command
	RCDLatencyAdder                // F0RC0F
	RCDCACSDrive                   // F0RC03
	RCDODTCKEDrive                 // F0RC04
	RCDClockDrive                  // F0RC05
	RCDDIMMConfig                  // F0RC0D
	RCDCoarseSpeed                 // F0RC0A
	RCDFineSpeed                   // F0RC3x
)

// RCDBank is the bank address that routes a mode register write to the RCD
// instead of the DRAM devices.
const RCDBank = 7

const (
	rcdNoLatencyAdder = 0x4
	rcdDirectDualCS   = 0x4

	bSideAddressInversion = 0b10101111111000
	bSideBankInversion    = 0b1111
)

// RDIMMOps configure the RCD of a registered DIMM. They run right after CKE
// is brought high.
var RDIMMOps = []Op{
	{Kind: LoadRCD, Label: "Reset RCD", Word: RCDReset, Delay: 50000},
	{Kind: LoadRCD, Label: "Load RCD F0RC0F", Word: RCDLatencyAdder, Delay: 100},
	{Kind: LoadRCD, Label: "Load RCD F0RC03", Word: RCDCACSDrive, Delay: 100},
	{Kind: LoadRCD, Label: "Load RCD F0RC04", Word: RCDODTCKEDrive, Delay: 100},
	{Kind: LoadRCD, Label: "Load RCD F0RC05", Word: RCDClockDrive, Delay: 100},
	{Kind: LoadRCD, Label: "Load RCD F0RC0D", Word: RCDDIMMConfig, Delay: 100},
	{Kind: LoadRCD, Label: "Load RCD F0RC0A", Word: RCDCoarseSpeed, Delay: 100},
	{Kind: LoadRCD, Label: "Load RCD F0RC3X", Word: RCDFineSpeed, Delay: 100},
}

// TemplateFor returns the template of the profile's technology. Registered
// DIMMs get RDIMMOps inserted after CKE.
func TemplateFor(p profile.Profile) (Template, bool) {
	t, ok := Templates[p.Technology]
	if !ok || !p.IsRDIMM() {
		return t, ok
	}

	ops := make([]Op, 0, len(t.Ops)+len(RDIMMOps))
	for _, op := range t.Ops {
		ops = append(ops, op)
		if op.Kind == AssertCKE {
			ops = append(ops, RDIMMOps...)
		}
	}

	t.Ops = ops

	return t, true
}

func rcdWord(w RCDWord, p profile.Profile) (uint16, error) {
	if !p.IsRDIMM() {
		return 0, fmt.Errorf("%s: %w", p.Technology, ErrNotRDIMM)
	}

	r := p.RDIMM

	switch w {
	case RCDReset:
		return 0x060, nil
	case RCDLatencyAdder:
		return 0x0f0 | rcdNoLatencyAdder, nil
	case RCDCACSDrive:
		return 0x030 | uint16(r.CACSDrive), nil
	case RCDODTCKEDrive:
		return 0x040 | uint16(r.ODTCKEDrive), nil
	case RCDClockDrive:
		return 0x050 | uint16(r.ClockDrive), nil
	case RCDDIMMConfig:
		return 0x0d0 | rcdDirectDualCS, nil
	case RCDCoarseSpeed:
		speed, err := r.CoarseSpeed()
		if err != nil {
			return 0, err
		}

		return 0x0a0 | uint16(speed), nil
	case RCDFineSpeed:
		return 0x300 | uint16(r.FineSpeed()), nil
	default:
		panic(fmt.Sprintf("unknown RCD word %d", w))
	}
}

// mirrorBSide follows every step that is not addressed to the RCD with its
// B-side copy. The RCD inverts some address and bank bits on the way to the
// B-side devices, so the copy carries them pre-inverted.
func mirrorBSide(steps []Step) []Step {
	mirrored := make([]Step, 0, 2*len(steps))

	for _, s := range steps {
		mirrored = append(mirrored, s)

		if s.BankAddress == RCDBank {
			continue
		}

		b := s
		b.Address ^= bSideAddressInversion
		b.BankAddress ^= bSideBankInversion
		mirrored = append(mirrored, b)
	}

	return mirrored
}
