package initseq

import (
	"errors"
	"testing"

	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/sdraminit/csr"
	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/hooking"
	"github.com/sarchlab/sdraminit/modereg"
	"github.com/sarchlab/sdraminit/profile"
	"github.com/sarchlab/sdraminit/timing"
)

func TestInitSeq(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Init Sequence Suite")
}

func mustGenerate(p profile.Profile) Sequence {
	seq, err := Generate(p)
	Expect(err).NotTo(HaveOccurred())

	return seq
}

func labels(seq Sequence) []string {
	var l []string
	for _, s := range seq.Steps {
		l = append(l, s.Label)
	}

	return l
}

var _ = Describe("Templates", func() {
	It("should cover every technology", func() {
		for _, tech := range profile.Technologies {
			t, ok := Templates[tech]
			Expect(ok).To(BeTrue(), string(tech))
			Expect(t.Technology).To(Equal(tech))
		}
	})

	It("should count the repeated refreshes", func() {
		Expect(Templates[profile.SDR].Ops).To(HaveLen(6))
		Expect(Templates[profile.SDR].StepCount()).To(Equal(7))
		Expect(Templates[profile.DDR4].StepCount()).To(Equal(10))
		Expect(Templates[profile.DDR3].StepCount()).To(Equal(7))
		Expect(Templates[profile.DDR2].StepCount()).To(Equal(12))
	})

	It("should name op kinds", func() {
		Expect(ZQCalibration.String()).To(Equal("ZQCalibration"))
		Expect(OpKind(42).String()).To(Equal("OpKind(42)"))
	})
})

var _ = Describe("Synthesize", func() {
	It("should produce the DDR4 trace", func() {
		seq := mustGenerate(profile.MustPreset("ddr4"))

		Expect(labels(seq)).To(Equal([]string{
			"Release reset",
			"Bring CKE high",
			"Load Mode Register 3",
			"Load Mode Register 6",
			"Load Mode Register 5",
			"Load Mode Register 4",
			"Load Mode Register 2, CWL=9",
			"Load Mode Register 1",
			"Load Mode Register 0, CL=9, BL=8",
			"ZQ Calibration",
		}))

		Expect(seq.Steps[0]).To(Equal(Step{
			Label:     "Release reset",
			Kind:      StepControl,
			Control:   dfi.CtrlUnreset,
			PostDelay: 50000,
		}))
		Expect(seq.Steps[1].Control).To(Equal(dfi.CtrlCKE))
		Expect(seq.Steps[1].PostDelay).To(Equal(10000))

		mr0 := seq.Steps[8]
		Expect(mr0.Kind).To(Equal(StepCommand))
		Expect(mr0.Address).To(Equal(uint16(0x100)))
		Expect(mr0.BankAddress).To(Equal(uint8(0)))
		Expect(mr0.Command).To(Equal(dfi.CmdModeRegister))
		Expect(mr0.PostDelay).To(Equal(200))

		Expect(seq.Steps[4].Address).To(Equal(uint16(0x400)))
		Expect(seq.Steps[4].BankAddress).To(Equal(uint8(5)))
		Expect(seq.Steps[7].Address).To(Equal(uint16(0x301)))

		zq := seq.Steps[9]
		Expect(zq.Address).To(Equal(uint16(0x400)))
		Expect(zq.Command).To(Equal(dfi.CommandWE | dfi.CommandCS))
		Expect(zq.PostDelay).To(Equal(200))
	})

	It("should produce the SDR trace", func() {
		seq := mustGenerate(profile.MustPreset("sdr"))

		Expect(seq.Steps).To(HaveLen(7))
		Expect(seq.Steps[2].Label).To(
			Equal("Load Mode Register / Reset DLL, CL=2, BL=1"))
		Expect(seq.Steps[2].Address).To(Equal(uint16(0x120)))
		Expect(seq.Steps[6].Address).To(Equal(uint16(0x20)))
		Expect(seq.Steps[4]).To(Equal(seq.Steps[5]))
		Expect(seq.Steps[4].Command).To(Equal(dfi.CmdAutoRefresh))
		Expect(seq.Steps[4].PostDelay).To(Equal(4))
		Expect(seq.Steps[1].Command).To(Equal(dfi.CmdPrechargeAll))
		Expect(seq.Steps[1].Address).To(Equal(uint16(0x400)))
	})

	It("should follow the DDR2 register order", func() {
		p, err := profile.MakeBuilder().WithTechnology(profile.DDR2).
			WithCL(4).Build()
		Expect(err).NotTo(HaveOccurred())

		seq := mustGenerate(p)

		var banks []uint8
		for _, s := range seq.Steps {
			if s.Command == dfi.CmdModeRegister {
				banks = append(banks, s.BankAddress)
			}
		}
		Expect(banks).To(Equal([]uint8{3, 2, 1, 0, 0, 1, 1}))
		Expect(seq.Steps[10].Address).To(Equal(uint16(7 << 7)))
	})

	It("should put the LPDDR extended register on bank 2", func() {
		p, err := profile.MakeBuilder().WithTechnology(profile.LPDDR).
			WithCL(3).Build()
		Expect(err).NotTo(HaveOccurred())

		seq := mustGenerate(p)

		Expect(seq.Steps[2].Label).To(Equal("Load Extended Mode Register"))
		Expect(seq.Steps[2].BankAddress).To(Equal(uint8(2)))
	})

	It("should issue every step on the command phase", func() {
		p, err := profile.MakeBuilder().WithCommandPhase(2).Build()
		Expect(err).NotTo(HaveOccurred())

		for _, s := range mustGenerate(p).Steps {
			Expect(s.Phase).To(Equal(2))
		}
	})

	It("should be deterministic", func() {
		a := mustGenerate(profile.MustPreset("ddr4"))
		b := mustGenerate(profile.MustPreset("ddr4"))

		Expect(a).To(Equal(b))
	})

	It("should copy the mode registers", func() {
		mrs := modereg.Set{0: 0x20}

		seq, err := Synthesize(profile.MustPreset("sdr"), mrs)
		Expect(err).NotTo(HaveOccurred())

		mrs[0] = 0x30
		Expect(seq.ModeRegisters.Value(0)).To(Equal(uint16(0x20)))
	})

	DescribeTable("should keep the DDR4 shape across parameters",
		func(cl, cwl int) {
			p, err := profile.MakeBuilder().WithCL(cl).WithCWL(cwl).
				WithDerivedPhases().Build()
			Expect(err).NotTo(HaveOccurred())

			seq := mustGenerate(p)
			ref := mustGenerate(profile.MustPreset("ddr4"))

			Expect(seq.Steps).To(HaveLen(10))
			for i := range seq.Steps {
				Expect(seq.Steps[i].BankAddress).
					To(Equal(ref.Steps[i].BankAddress))
				Expect(seq.Steps[i].Kind).To(Equal(ref.Steps[i].Kind))
				Expect(seq.Steps[i].PostDelay).To(Equal(ref.Steps[i].PostDelay))
			}
		},
		Entry("CL11 CWL9", 11, 9),
		Entry("CL13 CWL10", 13, 10),
		Entry("CL16 CWL12", 16, 12),
	)

	DescribeTable("should keep the SDR shape across CAS latencies",
		func(cl int) {
			p := profile.MustPreset("sdr")
			p.CASLatency = cl

			seq := mustGenerate(p)
			ref := mustGenerate(profile.MustPreset("sdr"))

			Expect(seq.Steps).To(HaveLen(7))
			for i := range seq.Steps {
				Expect(seq.Steps[i].Kind).To(Equal(ref.Steps[i].Kind))
				Expect(seq.Steps[i].Command).To(Equal(ref.Steps[i].Command))
				Expect(seq.Steps[i].Control).To(Equal(ref.Steps[i].Control))
				Expect(seq.Steps[i].BankAddress).
					To(Equal(ref.Steps[i].BankAddress))
				Expect(seq.Steps[i].PostDelay).To(Equal(ref.Steps[i].PostDelay))
			}
			Expect(seq.Steps[2].Address).To(Equal(uint16(0x100 | cl<<4)))
			Expect(seq.Steps[6].Address).To(Equal(uint16(cl << 4)))
		},
		Entry("CL1", 1),
		Entry("CL2", 2),
		Entry("CL3", 3),
	)

	It("should refuse a reserved SDR CAS latency", func() {
		p := profile.MustPreset("sdr")
		p.CASLatency = 5

		_, err := Generate(p)

		Expect(errors.Is(err, modereg.ErrUnsupportedValue)).To(BeTrue())
	})

	It("should fail when a mode register is missing", func() {
		_, err := Synthesize(profile.MustPreset("ddr4"), modereg.Set{0: 0x100})

		Expect(errors.Is(err, ErrMissingModeRegister)).To(BeTrue())
	})

	It("should validate the profile", func() {
		p := profile.MustPreset("ddr4")
		p.ReadPhase = 4

		_, err := Synthesize(p, modereg.Set{})

		Expect(errors.Is(err, profile.ErrPhaseOutOfRange)).To(BeTrue())
	})

	It("should propagate encoding errors", func() {
		p := profile.MustPreset("ddr4")
		p.CASLatency = 8

		_, err := Generate(p)

		Expect(errors.Is(err, modereg.ErrUnsupportedValue)).To(BeTrue())
	})
})

var _ = Describe("RDIMM", func() {
	const (
		bSideAddr = 0b10101111111000
		bSideBank = 0b1111
	)

	It("should insert the RCD ops after CKE", func() {
		t, ok := TemplateFor(profile.MustPreset("ddr4-rdimm"))

		Expect(ok).To(BeTrue())
		Expect(t.StepCount()).To(Equal(18))
		Expect(t.Ops[1].Kind).To(Equal(AssertCKE))
		Expect(t.Ops[2:10]).To(Equal(RDIMMOps))
		Expect(Templates[profile.DDR4].StepCount()).To(Equal(10))
	})

	It("should keep the plain DDR4 template for unregistered DIMMs", func() {
		t, ok := TemplateFor(profile.MustPreset("ddr4"))

		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(Templates[profile.DDR4]))
	})

	It("should load the RCD control words on bank 7", func() {
		seq := mustGenerate(profile.MustPreset("ddr4-rdimm"))

		rcd := seq.Steps[4:12]
		var addrs []uint16
		for _, s := range rcd {
			Expect(s.BankAddress).To(Equal(uint8(RCDBank)))
			Expect(s.Command).To(Equal(dfi.CmdModeRegister))
			addrs = append(addrs, s.Address)
		}

		Expect(addrs).To(Equal([]uint16{
			0x060, 0x0f4, 0x035, 0x045, 0x055, 0x0d4, 0x0a1, 0x315,
		}))
		Expect(rcd[0].Label).To(Equal("Reset RCD"))
		Expect(rcd[0].PostDelay).To(Equal(50000))
		Expect(rcd[7].Label).To(Equal("Load RCD F0RC3X"))
		Expect(rcd[7].PostDelay).To(Equal(100))
	})

	It("should follow every DRAM step with its B-side copy", func() {
		seq := mustGenerate(profile.MustPreset("ddr4-rdimm"))

		Expect(seq.Steps).To(HaveLen(28))

		var dram []Step
		for i := 0; i < len(seq.Steps); i++ {
			a := seq.Steps[i]
			if a.BankAddress == RCDBank {
				continue
			}

			b := seq.Steps[i+1]
			Expect(b.Label).To(Equal(a.Label))
			Expect(b.Kind).To(Equal(a.Kind))
			Expect(b.Address).To(Equal(a.Address ^ bSideAddr))
			Expect(b.BankAddress).To(Equal(a.BankAddress ^ bSideBank))
			dram = append(dram, a)
			i++
		}

		plain := mustGenerate(profile.MustPreset("ddr4"))
		Expect(labels(Sequence{Steps: dram})).To(Equal(labels(plain)))

		zq := seq.Steps[27]
		Expect(zq.Command).To(Equal(dfi.CmdZQCalibration))
		Expect(zq.Address).To(Equal(uint16(0x2ff8)))
		Expect(zq.BankAddress).To(Equal(uint8(15)))
	})

	It("should refuse RCD ops without RDIMM settings", func() {
		_, err := rcdWord(RCDReset, profile.MustPreset("ddr4"))

		Expect(errors.Is(err, ErrNotRDIMM)).To(BeTrue())
	})
})

var _ = Describe("Runner", func() {
	var (
		space   *csr.Space
		layout  csr.Layout
		binding *dfi.Binding
		counter *timing.CycleCounter
		runner  *Runner
		seq     Sequence
	)

	BeforeEach(func() {
		p := profile.MustPreset("ddr4")
		seq = mustGenerate(p)

		space = csr.NewSpace()
		layout = csr.LayoutFor(0, p)

		var err error
		binding, err = dfi.NewBindingForProfile(
			layout.Hardware(space, p.PhaseCount), p)
		Expect(err).NotTo(HaveOccurred())

		counter = timing.NewCycleCounter()
		runner = NewRunner(binding, counter)
	})

	It("should write address, bank, then control or command", func() {
		Expect(runner.Run(seq)).To(Succeed())

		writes := space.Writes()
		Expect(writes).To(HaveLen(2*3 + 8*4))

		Expect(writes[0]).To(Equal(csr.Access{
			Addr: layout.AddressAddr(0), Value: 0, Write: true}))
		Expect(writes[1].Addr).To(Equal(layout.BankAddressAddr(0)))
		Expect(writes[2]).To(Equal(csr.Access{
			Addr: layout.ControlAddr(), Value: uint64(dfi.CtrlUnreset),
			Write: true}))

		last := writes[len(writes)-4:]
		Expect(last[0].Value).To(Equal(uint64(0x400)))
		Expect(last[2].Addr).To(Equal(layout.CommandAddr(0)))
		Expect(last[2].Value).To(Equal(uint64(dfi.CmdZQCalibration)))
		Expect(last[3].Addr).To(Equal(layout.CommandIssueAddr(0)))
		Expect(last[3].Value).To(Equal(uint64(1)))
	})

	It("should issue every command right after writing it", func() {
		p, err := profile.MakeBuilder().WithCommandPhase(2).Build()
		Expect(err).NotTo(HaveOccurred())
		seq = mustGenerate(p)

		var writes []dfi.RegisterWrite
		binding.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			writes = append(writes, ctx.Item.(dfi.RegisterWrite))
		}))

		Expect(runner.Run(seq)).To(Succeed())

		Expect(writes).To(HaveLen(2*3 + 8*4))
		commands := 0
		for i, w := range writes {
			if w.Signal != dfi.SignalCommand {
				continue
			}

			commands++
			Expect(w.Phase).To(Equal(2))
			Expect(i + 1).To(BeNumerically("<", len(writes)))
			Expect(writes[i+1]).To(Equal(dfi.RegisterWrite{
				Phase: 2, Signal: dfi.SignalCommandIssue, Value: 1,
			}))
		}
		Expect(commands).To(Equal(8))
	})

	It("should wait only for non-zero delays", func() {
		Expect(runner.Run(seq)).To(Succeed())

		Expect(counter.Waits()).To(Equal([]int{50000, 10000, 200, 200}))
		Expect(counter.Total()).To(Equal(uint64(60400)))
	})

	It("should fire step hooks around every step", func() {
		var events []string
		runner.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			e := ctx.Item.(StepEvent)
			events = append(events, ctx.Pos.Name+":"+e.Step.Label)
		}))

		Expect(runner.Run(seq)).To(Succeed())

		Expect(events).To(HaveLen(20))
		Expect(events[0]).To(Equal("Step Start:Release reset"))
		Expect(events[1]).To(Equal("Step End:Release reset"))
		Expect(events[19]).To(Equal("Step End:ZQ Calibration"))
	})

	It("should log every step", func() {
		var lines []string
		log := funcr.New(func(prefix, args string) {
			lines = append(lines, args)
		}, funcr.Options{Verbosity: 1})

		Expect(runner.WithLogger(log).Run(seq)).To(Succeed())

		Expect(lines).To(HaveLen(11))
		Expect(lines[0]).To(ContainSubstring(`"technology"="DDR4"`))
		Expect(lines[10]).To(ContainSubstring(`"label"="ZQ Calibration"`))
		Expect(lines[10]).To(ContainSubstring(`"mask"="WE|CS"`))
	})

	It("should refuse a sequence for another phase count", func() {
		sdr := mustGenerate(profile.MustPreset("sdr"))

		err := runner.Run(sdr)

		Expect(errors.Is(err, dfi.ErrPhaseCountMismatch)).To(BeTrue())
		Expect(space.Accesses()).To(BeEmpty())
	})

	It("should not write anything when a step phase is out of range", func() {
		seq.Steps[5].Phase = 4

		err := runner.Run(seq)

		Expect(errors.Is(err, dfi.ErrPhaseOutOfRange)).To(BeTrue())
		Expect(space.Accesses()).To(BeEmpty())
		Expect(counter.Waits()).To(BeEmpty())
	})
})
