package csr

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/profile"
)

func TestCSR(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CSR Suite")
}

var _ = Describe("Space", func() {
	var s *Space

	BeforeEach(func() {
		s = NewSpace()
	})

	It("should read back written values", func() {
		s.Write(0x10, 5)
		s.Write(0x10, 7)

		Expect(s.Read(0x10)).To(Equal(uint64(7)))
		Expect(s.Read(0x20)).To(Equal(uint64(0)))
	})

	It("should log accesses in order", func() {
		s.Write(0x10, 5)
		s.Read(0x10)

		Expect(s.Accesses()).To(Equal([]Access{
			{Addr: 0x10, Value: 5, Write: true},
			{Addr: 0x10, Value: 5},
		}))
		Expect(s.Writes()).To(HaveLen(1))
		Expect(s.Accesses()[0].String()).To(Equal("W 0x10 0x5"))
	})

	It("should not log peeks", func() {
		s.Write(0x8, 1)

		Expect(s.Peek(0x8)).To(Equal(uint64(1)))
		Expect(s.Accesses()).To(HaveLen(1))
	})

	It("should list addresses in order", func() {
		s.Write(0x30, 1)
		s.Write(0x10, 1)

		Expect(s.Addresses()).To(Equal([]uint64{0x10, 0x30}))
	})

	It("should forget everything on reset", func() {
		s.Write(0x30, 1)
		s.Reset()

		Expect(s.Addresses()).To(BeEmpty())
		Expect(s.Accesses()).To(BeEmpty())
	})
})

var _ = Describe("Layout", func() {
	It("should size the data words from the profile", func() {
		Expect(LayoutFor(0, profile.MustPreset("ddr4")).DataWords).To(Equal(4))
		Expect(LayoutFor(0, profile.MustPreset("sdr")).DataWords).To(Equal(1))
	})

	It("should place the phase blocks back to back", func() {
		l := Layout{Base: 0x1000, DataWords: 4}

		Expect(l.ControlAddr()).To(Equal(uint64(0x1000)))
		Expect(l.CommandAddr(0)).To(Equal(uint64(0x1004)))
		Expect(l.BankAddressAddr(0)).To(Equal(uint64(0x1010)))
		Expect(l.WrDataAddr(0)).To(Equal(uint64(0x1014)))
		Expect(l.RdDataAddr(0)).To(Equal(uint64(0x1024)))
		Expect(l.CommandAddr(1)).To(Equal(uint64(0x1034)))
	})

	It("should back a DFI binding", func() {
		s := NewSpace()
		l := Layout{Base: 0x1000, DataWords: 1}
		hw := l.Hardware(s, 2)

		b, err := dfi.NewBinding(hw, 0, 1)
		Expect(err).NotTo(HaveOccurred())

		b.ControlWrite(dfi.CtrlCKE)
		Expect(b.AddressWrite(1, 0x400)).To(Succeed())
		Expect(b.BankAddressWrite(1, 3)).To(Succeed())
		Expect(b.Command(1, dfi.CmdPrechargeAll)).To(Succeed())

		Expect(s.Peek(l.ControlAddr())).To(Equal(uint64(dfi.CtrlCKE)))
		Expect(s.Peek(l.AddressAddr(1))).To(Equal(uint64(0x400)))
		Expect(s.Peek(l.BankAddressAddr(1))).To(Equal(uint64(3)))
		Expect(s.Peek(l.CommandAddr(1))).To(Equal(uint64(dfi.CmdPrechargeAll)))
		Expect(s.Peek(l.CommandIssueAddr(1))).To(Equal(uint64(1)))

		d, ok := b.Data(1)
		Expect(ok).To(BeTrue())
		Expect(d.WrDataAddr).To(Equal(l.WrDataAddr(1)))
		Expect(s.NameOf(l.AddressAddr(1))).To(Equal("sdram_dfii_pi1_address"))
		Expect(s.NameOf(0x4)).To(Equal("0x4"))
	})
})
