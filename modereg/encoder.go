// Package modereg encodes the JEDEC mode registers of an SDRAM device from
// the abstract parameters of a timing profile.
//
// The encoding of each technology is data: a Table lists the registers and,
// for each register, the terms that map one profile parameter into a bit
// field. Adding a technology means adding a table, the encoder itself does
// not change.
package modereg

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/sdraminit/profile"
)

// Param identifies the profile parameter a term encodes.
type Param int

// The encodable parameters.
const (
	CASLatency Param = iota
	CASWriteLatency
	BurstLength
	WriteRecovery
	Ron
	RttNom
	RttWr
	TDQS
	DataMask
	FineRefreshMode
	TCCD
)

var paramNames = [...]string{
	CASLatency:      "CL",
	CASWriteLatency: "CWL",
	BurstLength:     "BL",
	WriteRecovery:   "WR",
	Ron:             "ron",
	RttNom:          "rtt_nom",
	RttWr:           "rtt_wr",
	TDQS:            "tdqs",
	DataMask:        "dm",
	FineRefreshMode: "fine_refresh_mode",
	TCCD:            "tCCD",
}

func (p Param) String() string {
	if p < 0 || int(p) >= len(paramNames) {
		return fmt.Sprintf("Param(%d)", int(p))
	}

	return paramNames[p]
}

// value extracts the parameter from a profile. Exactly one of the results
// is meaningful, depending on whether the parameter is named or numeric.
func (p Param) value(prof profile.Profile) (num int, name string, named bool) {
	switch p {
	case CASLatency:
		return prof.CASLatency, "", false
	case CASWriteLatency:
		return prof.CASWriteLatency, "", false
	case BurstLength:
		return prof.BurstLength, "", false
	case WriteRecovery:
		return prof.WriteRecovery(), "", false
	case Ron:
		return 0, prof.Electrical.Ron, true
	case RttNom:
		return 0, prof.Electrical.RttNom, true
	case RttWr:
		return 0, prof.Electrical.RttWr, true
	case TDQS:
		return boolToInt(prof.Electrical.TDQS), "", false
	case DataMask:
		return boolToInt(prof.DataMask), "", false
	case FineRefreshMode:
		return 0, prof.FineRefreshMode, true
	case TCCD:
		return prof.TCCD, "", false
	default:
		panic(fmt.Sprintf("unknown parameter %d", int(p)))
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// Errors returned by the encoder. They are wrapped in an *EncodeError.
var (
	ErrNoTable          = errors.New("no mode register table")
	ErrUnsupportedValue = errors.New("unsupported value")
	ErrFieldOverflow    = errors.New("value does not fit the field")
)

// EncodeError reports a parameter that cannot be encoded.
type EncodeError struct {
	Technology profile.Technology
	Register   string
	Param      Param
	Value      any
	Err        error
}

func (e *EncodeError) Error() string {
	if e.Register == "" {
		return fmt.Sprintf("modereg: %s: %v", e.Technology, e.Err)
	}

	return fmt.Sprintf("modereg: %s %s: %s=%v: %v",
		e.Technology, e.Register, e.Param, e.Value, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Set is the encoded value of every mode register, keyed by register index.
// The register index is also the bank address it is loaded through.
type Set map[int]uint16

// Value returns the value of register i, or 0 if the set has no such
// register.
func (s Set) Value(i int) uint16 {
	return s[i]
}

// Has reports whether the set contains register i.
func (s Set) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Indices returns the register indices in ascending order.
func (s Set) Indices() []int {
	indices := make([]int, 0, len(s))
	for i := range s {
		indices = append(indices, i)
	}

	sort.Ints(indices)

	return indices
}

// Encode computes the mode registers of the profile.
func Encode(p profile.Profile) (Set, error) {
	table, ok := Tables[p.Technology]
	if !ok {
		return nil, &EncodeError{Technology: p.Technology, Err: ErrNoTable}
	}

	return table.Encode(p)
}

// Encode computes the registers of the table from the profile.
func (t Table) Encode(p profile.Profile) (Set, error) {
	set := make(Set, len(t.Registers))

	for _, r := range t.Registers {
		v, err := r.encode(p)
		if err != nil {
			err.Technology = t.Technology
			return nil, err
		}

		set[r.Index] = v
	}

	return set, nil
}

func (r Register) encode(p profile.Profile) (uint16, *EncodeError) {
	v := r.Constant

	for _, term := range r.Terms {
		code, err := term.code(p)
		if err != nil {
			err.Register = r.Name
			return 0, err
		}

		v |= term.Place.Place(code)
	}

	return v, nil
}

func (t Term) code(p profile.Profile) (uint16, *EncodeError) {
	num, name, named := t.Param.value(p)

	if named {
		code, ok := t.Names[name]
		if !ok {
			return 0, t.fail(name, ErrUnsupportedValue)
		}

		return code, nil
	}

	if t.Codes != nil {
		code, ok := t.Codes[num]
		if !ok {
			return 0, t.fail(num, ErrUnsupportedValue)
		}

		return code, nil
	}

	if num < 0 || num >= 1<<t.Place.Width() {
		return 0, t.fail(num, ErrFieldOverflow)
	}

	return uint16(num), nil
}

func (t Term) fail(v any, err error) *EncodeError {
	return &EncodeError{Param: t.Param, Value: v, Err: err}
}
