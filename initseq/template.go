package initseq

import (
	"fmt"

	"github.com/sarchlab/sdraminit/profile"
)

// OpKind is an abstract bring-up operation.
type OpKind int

// The bring-up operations.
const (
	ReleaseReset OpKind = iota
	AssertCKE
	PrechargeAll
	LoadModeRegister
	AutoRefresh
	ZQCalibration
	LoadRCD
)

var opKindNames = [...]string{
	ReleaseReset:     "ReleaseReset",
	AssertCKE:        "AssertCKE",
	PrechargeAll:     "PrechargeAll",
	LoadModeRegister: "LoadModeRegister",
	AutoRefresh:      "AutoRefresh",
	ZQCalibration:    "ZQCalibration",
	LoadRCD:          "LoadRCD",
}

func (k OpKind) String() string {
	if k < 0 || int(k) >= len(opKindNames) {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}

	return opKindNames[k]
}

// Op is one entry of a template.
//
// Label may contain the placeholders {CL}, {CWL} and {BL}. Register is the
// mode register loaded by LoadModeRegister, Extra is ORed into its value.
// Word is the control word written by LoadRCD. Repeat issues the op several
// times, zero means once.
type Op struct {
	Kind     OpKind
	Label    string
	Register int
	Extra    uint16
	Word     RCDWord
	Repeat   int
	Delay    int
}

// Template is the ordered list of operations that brings up a technology.
type Template struct {
	Technology profile.Technology
	Ops        []Op
}

const (
	dllReset = 1 << 8
	ocd      = 7 << 7
)

func sdrFamilyOps(extended ...Op) []Op {
	ops := []Op{
		{Kind: AssertCKE, Label: "Bring CKE high", Delay: 20000},
		{Kind: PrechargeAll, Label: "Precharge All"},
	}

	ops = append(ops, extended...)

	return append(ops,
		Op{
			Kind:  LoadModeRegister,
			Label: "Load Mode Register / Reset DLL, CL={CL}, BL={BL}",
			Extra: dllReset,
			Delay: 200,
		},
		Op{Kind: PrechargeAll, Label: "Precharge All"},
		Op{Kind: AutoRefresh, Label: "Auto Refresh", Repeat: 2, Delay: 4},
		Op{
			Kind:  LoadModeRegister,
			Label: "Load Mode Register / CL={CL}, BL={BL}",
			Delay: 200,
		},
	)
}

func loadEMR(label string, register int) Op {
	return Op{Kind: LoadModeRegister, Label: label, Register: register}
}

func loadMR(register int) Op {
	return Op{
		Kind:     LoadModeRegister,
		Label:    fmt.Sprintf("Load Mode Register %d", register),
		Register: register,
	}
}

var (
	resetOp = Op{Kind: ReleaseReset, Label: "Release reset", Delay: 50000}
	ckeOp   = Op{Kind: AssertCKE, Label: "Bring CKE high", Delay: 10000}
	mr2Op   = Op{
		Kind:     LoadModeRegister,
		Label:    "Load Mode Register 2, CWL={CWL}",
		Register: 2,
	}
	mr0Op = Op{
		Kind:  LoadModeRegister,
		Label: "Load Mode Register 0, CL={CL}, BL={BL}",
		Delay: 200,
	}
	zqOp = Op{Kind: ZQCalibration, Label: "ZQ Calibration", Delay: 200}
)

// Templates holds the bring-up template of every supported technology.
var Templates = map[profile.Technology]Template{
	profile.SDR: {
		Technology: profile.SDR,
		Ops:        sdrFamilyOps(),
	},
	profile.DDR: {
		Technology: profile.DDR,
		Ops:        sdrFamilyOps(loadEMR("Load Extended Mode Register", 1)),
	},
	profile.LPDDR: {
		Technology: profile.LPDDR,
		Ops:        sdrFamilyOps(loadEMR("Load Extended Mode Register", 2)),
	},
	profile.DDR2: {
		Technology: profile.DDR2,
		Ops: append(
			sdrFamilyOps(
				loadEMR("Load Extended Mode Register 3", 3),
				loadEMR("Load Extended Mode Register 2", 2),
				loadEMR("Load Extended Mode Register", 1),
			),
			Op{
				Kind:     LoadModeRegister,
				Label:    "Load Extended Mode Register / OCD Default",
				Register: 1,
				Extra:    ocd,
			},
			loadEMR("Load Extended Mode Register / OCD Exit", 1),
		),
	},
	profile.DDR3: {
		Technology: profile.DDR3,
		Ops: []Op{
			resetOp, ckeOp,
			mr2Op, loadMR(3), loadMR(1), mr0Op,
			zqOp,
		},
	},
	profile.DDR4: {
		Technology: profile.DDR4,
		Ops: []Op{
			resetOp, ckeOp,
			loadMR(3), loadMR(6), loadMR(5), loadMR(4), mr2Op, loadMR(1), mr0Op,
			zqOp,
		},
	},
}

// StepCount returns the number of steps the template expands to.
func (t Template) StepCount() int {
	n := 0

	for _, op := range t.Ops {
		n += max(op.Repeat, 1)
	}

	return n
}
