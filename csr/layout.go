package csr

import (
	"fmt"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/profile"
)

// WordBytes is the address stride between two CSR words.
const WordBytes = 4

// Layout places the DFII registers in a register space. The control
// register comes first, then one block per phase holding the command,
// command issue, address and bank address registers followed by the write
// and read data words.
type Layout struct {
	Base      uint64
	DataWords int
}

// LayoutFor returns the layout of the DFII registers of a profile at the
// given base address.
func LayoutFor(base uint64, p profile.Profile) Layout {
	return Layout{
		Base:      base,
		DataWords: (p.PhaseDataBytes() + WordBytes - 1) / WordBytes,
	}
}

func (l Layout) phaseStride() uint64 {
	return uint64(4+2*l.DataWords) * WordBytes
}

// ControlAddr returns the address of the control register.
func (l Layout) ControlAddr() uint64 {
	return l.Base
}

func (l Layout) phaseBase(p int) uint64 {
	return l.Base + WordBytes + uint64(p)*l.phaseStride()
}

// CommandAddr returns the address of the command register of phase p.
func (l Layout) CommandAddr(p int) uint64 {
	return l.phaseBase(p)
}

// CommandIssueAddr returns the address of the command issue register of
// phase p.
func (l Layout) CommandIssueAddr(p int) uint64 {
	return l.phaseBase(p) + 1*WordBytes
}

// AddressAddr returns the address of the address register of phase p.
func (l Layout) AddressAddr(p int) uint64 {
	return l.phaseBase(p) + 2*WordBytes
}

// BankAddressAddr returns the address of the bank address register of
// phase p.
func (l Layout) BankAddressAddr(p int) uint64 {
	return l.phaseBase(p) + 3*WordBytes
}

// WrDataAddr returns the address of the first write data word of phase p.
func (l Layout) WrDataAddr(p int) uint64 {
	return l.phaseBase(p) + 4*WordBytes
}

// RdDataAddr returns the address of the first read data word of phase p.
func (l Layout) RdDataAddr(p int) uint64 {
	return l.WrDataAddr(p) + uint64(l.DataWords)*WordBytes
}

// Hardware returns the DFI register sinks of nphases phases backed by the
// space. It also names the registers in the space.
func (l Layout) Hardware(s *Space, nphases int) dfi.Hardware {
	hw := dfi.Hardware{
		Control: controlRegister{space: s, addr: l.ControlAddr()},
	}

	s.Name(l.ControlAddr(), "sdram_dfii_control")

	for p := 0; p < nphases; p++ {
		hw.Phases = append(hw.Phases, phaseRegisters{space: s, layout: l, phase: p})
		hw.Data = append(hw.Data, dfi.PhaseData{
			WrDataAddr: l.WrDataAddr(p),
			RdDataAddr: l.RdDataAddr(p),
		})

		prefix := fmt.Sprintf("sdram_dfii_pi%d_", p)
		s.Name(l.CommandAddr(p), prefix+"command")
		s.Name(l.CommandIssueAddr(p), prefix+"command_issue")
		s.Name(l.AddressAddr(p), prefix+"address")
		s.Name(l.BankAddressAddr(p), prefix+"baddress")
		s.Name(l.WrDataAddr(p), prefix+"wrdata")
		s.Name(l.RdDataAddr(p), prefix+"rddata")
	}

	return hw
}

type controlRegister struct {
	space *Space
	addr  uint64
}

func (c controlRegister) ControlWrite(v dfi.Control) {
	c.space.Write(c.addr, uint64(v))
}

type phaseRegisters struct {
	space  *Space
	layout Layout
	phase  int
}

func (r phaseRegisters) CommandWrite(v dfi.Command) {
	r.space.Write(r.layout.CommandAddr(r.phase), uint64(v))
}

func (r phaseRegisters) CommandIssueWrite(v uint8) {
	r.space.Write(r.layout.CommandIssueAddr(r.phase), uint64(v))
}

func (r phaseRegisters) AddressWrite(v uint16) {
	r.space.Write(r.layout.AddressAddr(r.phase), uint64(v))
}

func (r phaseRegisters) BankAddressWrite(v uint8) {
	r.space.Write(r.layout.BankAddressAddr(r.phase), uint64(v))
}
