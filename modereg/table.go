package modereg

import (
	"fmt"

	"github.com/sarchlab/sdraminit/profile"
)

// Span moves Width bits starting at bit Src of a code to bit Dst of the
// register.
type Span struct {
	Src   uint
	Width uint
	Dst   uint
}

// Placement scatters a code into a register. Most fields are contiguous,
// some (DDR3/DDR4 CL, DDR4 WR) are split across non-adjacent address bits.
type Placement []Span

// Field places a contiguous code of the given width at bit dst.
func Field(dst, width uint) Placement {
	return Placement{{Src: 0, Width: width, Dst: dst}}
}

// Place returns the register bits for the code.
func (pl Placement) Place(code uint16) uint16 {
	var v uint16

	for _, s := range pl {
		mask := uint16(1)<<s.Width - 1
		v |= (code >> s.Src & mask) << s.Dst
	}

	return v
}

// Width returns the number of code bits the placement consumes.
func (pl Placement) Width() uint {
	var w uint

	for _, s := range pl {
		w = max(w, s.Src+s.Width)
	}

	return w
}

// Mask returns the register bits the placement can set.
func (pl Placement) Mask() uint16 {
	return pl.Place(uint16(1)<<pl.Width() - 1)
}

// Term encodes one parameter. Named parameters look their code up in Names.
// Numeric parameters look it up in Codes, or are placed as is when Codes is
// nil.
type Term struct {
	Param Param
	Codes map[int]uint16
	Names map[string]uint16
	Place Placement
}

// Register describes one mode register.
type Register struct {
	Index    int
	Name     string
	Constant uint16
	Terms    []Term
}

// Table describes the mode registers of a technology.
type Table struct {
	Technology profile.Technology
	Registers  []Register

	// WriteLevelingRegister is the index of the register that enables write
	// leveling, or -1 when the technology has none.
	WriteLevelingRegister int
	WriteLevelingBit      uint
}

// Register returns the register with the given index.
func (t Table) Register(index int) (Register, bool) {
	for _, r := range t.Registers {
		if r.Index == index {
			return r, true
		}
	}

	return Register{}, false
}

// HasWriteLeveling reports whether the technology supports write leveling.
func (t Table) HasWriteLeveling() bool {
	return t.WriteLevelingRegister >= 0
}

// Check verifies that no two fields of a register overlap.
func (t Table) Check() error {
	seen := map[int]bool{}

	for _, r := range t.Registers {
		if seen[r.Index] {
			return fmt.Errorf("%s: register %d defined twice",
				t.Technology, r.Index)
		}

		seen[r.Index] = true
		written := r.Constant

		for _, term := range r.Terms {
			mask := term.Place.Mask()
			if written&mask != 0 {
				return fmt.Errorf("%s %s: %s overlaps another field",
					t.Technology, r.Name, term.Param)
			}

			written |= mask
		}
	}

	return nil
}

var sdrBurstLength = Term{
	Param: BurstLength,
	Codes: map[int]uint16{1: 0, 2: 1, 4: 2, 8: 3},
	Place: Field(0, 3),
}

// sdrCASLatency places CL as is, restricted to the latencies the
// technology defines. The other codes of the field are reserved.
func sdrCASLatency(latencies ...int) Term {
	codes := make(map[int]uint16, len(latencies))
	for _, cl := range latencies {
		codes[cl] = uint16(cl)
	}

	return Term{Param: CASLatency, Codes: codes, Place: Field(4, 3)}
}

var ddrxBurstLength = Term{
	Param: BurstLength,
	Codes: map[int]uint16{4: 0b10, 8: 0b00},
	Place: Field(0, 2),
}

const dllReset = 1 << 8

func sdrTable(t profile.Technology, emrIndex int, latencies ...int) Table {
	table := Table{
		Technology: t,
		Registers: []Register{
			{
				Index: 0,
				Name:  "MR",
				Terms: []Term{sdrBurstLength, sdrCASLatency(latencies...)},
			},
		},
		WriteLevelingRegister: -1,
	}

	if emrIndex > 0 {
		table.Registers = append(table.Registers,
			Register{Index: emrIndex, Name: "EMR"})
	}

	return table
}

var ddr2Table = Table{
	Technology: profile.DDR2,
	Registers: []Register{
		{
			Index: 0,
			Name:  "MR",
			Terms: []Term{
				sdrBurstLength,
				sdrCASLatency(3, 4, 5, 6, 7),
				{Param: WriteRecovery, Place: Field(9, 3)},
			},
		},
		{Index: 1, Name: "EMR"},
		{Index: 2, Name: "EMR2"},
		{Index: 3, Name: "EMR3"},
	},
	WriteLevelingRegister: -1,
}

var ddr3Table = Table{
	Technology: profile.DDR3,
	Registers: []Register{
		{
			Index:    0,
			Name:     "MR0",
			Constant: dllReset,
			Terms: []Term{
				ddrxBurstLength,
				{
					Param: CASLatency,
					Codes: map[int]uint16{
						5: 0b0010, 6: 0b0100, 7: 0b0110, 8: 0b1000,
						9: 0b1010, 10: 0b1100, 11: 0b1110, 12: 0b0001,
						13: 0b0011, 14: 0b0101,
					},
					Place: Placement{{0, 1, 2}, {1, 3, 4}},
				},
				{
					Param: WriteRecovery,
					Codes: map[int]uint16{
						16: 0, 5: 1, 6: 2, 7: 3, 8: 4, 10: 5, 12: 6, 14: 7,
					},
					Place: Field(9, 3),
				},
			},
		},
		{
			Index: 1,
			Name:  "MR1",
			Terms: []Term{
				{
					Param: Ron,
					Names: map[string]uint16{"40ohm": 0, "34ohm": 1},
					Place: Placement{{0, 1, 1}, {1, 1, 5}},
				},
				{
					Param: RttNom,
					Names: map[string]uint16{
						"disabled": 0, "60ohm": 1, "120ohm": 2,
						"40ohm": 3, "20ohm": 4, "30ohm": 5,
					},
					Place: Placement{{0, 1, 2}, {1, 1, 6}, {2, 1, 9}},
				},
				{Param: TDQS, Place: Field(11, 1)},
			},
		},
		{
			Index: 2,
			Name:  "MR2",
			Terms: []Term{
				{
					Param: CASWriteLatency,
					Codes: map[int]uint16{
						5: 0, 6: 1, 7: 2, 8: 3, 9: 4, 10: 5, 11: 6, 12: 7,
					},
					Place: Field(3, 3),
				},
				{
					Param: RttWr,
					Names: map[string]uint16{
						"disabled": 0, "60ohm": 1, "120ohm": 2,
					},
					Place: Field(9, 2),
				},
			},
		},
		{Index: 3, Name: "MR3"},
	},
	WriteLevelingRegister: 1,
	WriteLevelingBit:      7,
}

var ddr4Table = Table{
	Technology: profile.DDR4,
	Registers: []Register{
		{
			Index:    0,
			Name:     "MR0",
			Constant: dllReset,
			Terms: []Term{
				ddrxBurstLength,
				{
					Param: CASLatency,
					Codes: map[int]uint16{
						9: 0, 10: 1, 11: 2, 12: 3, 13: 4, 14: 5, 15: 6,
						16: 7, 18: 8, 20: 9, 22: 10, 24: 11, 23: 12,
						17: 13, 19: 14, 21: 15, 25: 16, 26: 17, 27: 18,
						28: 19, 29: 20, 30: 21, 31: 22, 32: 23,
					},
					Place: Placement{{0, 1, 2}, {1, 3, 4}, {4, 1, 12}},
				},
				{
					Param: WriteRecovery,
					Codes: map[int]uint16{
						10: 0, 12: 1, 14: 2, 16: 3, 18: 4,
						20: 5, 24: 6, 22: 7, 26: 8, 28: 9,
					},
					Place: Placement{{0, 3, 9}, {3, 1, 13}},
				},
			},
		},
		{
			Index:    1,
			Name:     "MR1",
			Constant: 1,
			Terms: []Term{
				{
					Param: Ron,
					Names: map[string]uint16{"34ohm": 0, "48ohm": 1},
					Place: Placement{{0, 1, 1}, {1, 1, 2}},
				},
				{
					Param: RttNom,
					Names: map[string]uint16{
						"disabled": 0, "60ohm": 1, "120ohm": 2, "40ohm": 3,
						"240ohm": 4, "48ohm": 5, "80ohm": 6, "34ohm": 7,
					},
					Place: Field(8, 3),
				},
				{Param: TDQS, Place: Field(11, 1)},
			},
		},
		{
			Index: 2,
			Name:  "MR2",
			Terms: []Term{
				{
					Param: CASWriteLatency,
					Codes: map[int]uint16{
						9: 0, 10: 1, 11: 2, 12: 3, 14: 4, 16: 5, 18: 6, 20: 7,
					},
					Place: Field(3, 3),
				},
				{
					Param: RttWr,
					Names: map[string]uint16{
						"disabled": 0, "120ohm": 1, "240ohm": 2,
						"high-z": 3, "80ohm": 4,
					},
					Place: Field(9, 3),
				},
			},
		},
		{
			Index: 3,
			Name:  "MR3",
			Terms: []Term{
				{
					Param: FineRefreshMode,
					Names: map[string]uint16{"1x": 0, "2x": 1, "4x": 2},
					Place: Field(6, 3),
				},
			},
		},
		{Index: 4, Name: "MR4"},
		{
			Index: 5,
			Name:  "MR5",
			Terms: []Term{{Param: DataMask, Place: Field(10, 1)}},
		},
		{
			Index: 6,
			Name:  "MR6",
			Terms: []Term{
				{
					Param: TCCD,
					Codes: map[int]uint16{4: 0, 5: 1, 6: 2, 7: 3, 8: 4},
					Place: Field(10, 3),
				},
			},
		},
	},
	WriteLevelingRegister: 1,
	WriteLevelingBit:      7,
}

// Tables holds the mode register layout of every supported technology.
var Tables = map[profile.Technology]Table{
	profile.SDR:   sdrTable(profile.SDR, 0, 1, 2, 3),
	profile.DDR:   sdrTable(profile.DDR, 1, 2, 3),
	profile.LPDDR: sdrTable(profile.LPDDR, 2, 2, 3),
	profile.DDR2:  ddr2Table,
	profile.DDR3:  ddr3Table,
	profile.DDR4:  ddr4Table,
}

// TableFor returns the table of a technology.
func TableFor(t profile.Technology) (Table, bool) {
	table, ok := Tables[t]
	return table, ok
}
