// Package header renders a bring-up sequence as the C and Python headers
// that firmware and test benches include.
package header

import (
	"fmt"
	"strings"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
	"github.com/sarchlab/sdraminit/modereg"
	"github.com/sarchlab/sdraminit/profile"
)

// Guard is the include guard of the generated C headers.
const Guard = "__GENERATED_SDRAM_PHY_H"

func defineSignals(g *cgen) {
	for _, bit := range dfi.ControlBits() {
		g.define("DFII_CONTROL_"+bit.String(), fmt.Sprintf("0x%02x", uint8(bit)))
	}

	g.newline(1)

	for _, bit := range dfi.CommandBits() {
		g.define("DFII_COMMAND_"+bit.String(), fmt.Sprintf("0x%02x", uint8(bit)))
	}

	g.newline(1)
}

func defineCapabilities(g *cgen, c profile.Capabilities) {
	if c.WriteLeveling {
		g.define("SDRAM_PHY_WRITE_LEVELING_CAPABLE")
	}

	if c.WriteLatencyCalibration {
		g.define("SDRAM_PHY_WRITE_LATENCY_CALIBRATION_CAPABLE")
	}

	if c.WriteDQDQSTraining {
		g.define("SDRAM_PHY_WRITE_DQ_DQS_TRAINING_CAPABLE")
	}

	if c.ReadLeveling {
		g.define("SDRAM_PHY_READ_LEVELING_CAPABLE")
	}
}

func definePHY(g *cgen, p profile.Profile) {
	g.define("SDRAM_PHY_" + strings.ToUpper(p.PHYType))
	g.define("SDRAM_PHY_XDR", p.XDR())
	g.define("SDRAM_PHY_DATABITS", p.DataWidthBits)
	g.define("SDRAM_PHY_DFI_DATABITS", p.DFIDataBits())
	g.define("SDRAM_PHY_PHASES", p.PhaseCount)
	g.define("SDRAM_PHY_CL", p.CASLatency)
	g.define("SDRAM_PHY_CWL", p.CASWriteLatency)
	g.define("SDRAM_PHY_CMD_LATENCY", p.CommandLatency)
	g.define("SDRAM_PHY_RDPHASE", p.ReadPhase)
	g.define("SDRAM_PHY_WRPHASE", p.WritePhase)

	defineCapabilities(g, p.Capabilities)

	g.define("SDRAM_PHY_DQ_DQS_RATIO", p.DQDQSRatio())
	g.define("SDRAM_PHY_MODULES", p.ModuleCount)

	if p.DelayLineDepth > 0 {
		g.define("SDRAM_PHY_DELAYS", p.DelayLineDepth)
	}

	if p.BitslipRange > 0 {
		g.define("SDRAM_PHY_BITSLIPS", p.BitslipRange)
	}

	if p.IsRDIMM() {
		g.define("SDRAM_PHY_DDR4_RDIMM")
	}

	g.newline(1)
}

// maskExpr renders the bits a step writes as an OR of the DFII constants.
func maskExpr(s initseq.Step) string {
	prefix := "DFII_COMMAND_"
	if s.Kind == initseq.StepControl {
		prefix = "DFII_CONTROL_"
	}

	names := s.MaskNames()
	if len(names) == 0 {
		return "0"
	}

	for i, n := range names {
		names[i] = prefix + n
	}

	return strings.Join(names, "|")
}

// stepWriter names the functions a step body calls.
type stepWriter struct {
	dfii    string
	command func(phase int) string
}

func (w stepWriter) step(g *cgen, s initseq.Step) {
	g.add("/* %s */", s.Label)
	g.add("%s_pi%d_address_write(%#x);", w.dfii, s.Phase, s.Address)
	g.add("%s_pi%d_baddress_write(%d);", w.dfii, s.Phase, s.BankAddress)

	if s.Kind == initseq.StepControl {
		g.add("%s_control_write(%s);", w.dfii, maskExpr(s))
	} else {
		g.add("%s(%s);", w.command(s.Phase), maskExpr(s))
	}

	if s.PostDelay > 0 {
		g.add("cdelay(%d);", s.PostDelay)
	}
}

// writeLeveling returns the mode register that enables write leveling and
// its value, if the technology has one.
func writeLeveling(seq initseq.Sequence) (modereg.Table, uint16, bool) {
	table, ok := modereg.TableFor(seq.Technology())
	if !ok || !table.HasWriteLeveling() {
		return modereg.Table{}, 0, false
	}

	return table, seq.ModeRegisters.Value(table.WriteLevelingRegister), true
}

// C renders the sequence as a single-PHY C header.
func C(seq initseq.Sequence) string {
	p := seq.Profile
	g := newCGen()

	g.include("<hw/common.h>")
	g.include("<generated/csr.h>")
	g.newline(1)

	defineSignals(g)
	definePHY(g, p)

	g.raw("void cdelay(int i);")
	g.newline(1)

	for n := 0; n < p.PhaseCount; n++ {
		head := fmt.Sprintf(
			"__attribute__((unused)) static inline void command_p%d(int cmd)", n)
		g.block(head, true, func(b *cgen) {
			b.add("sdram_dfii_pi%d_command_write(cmd);", n)
			b.add("sdram_dfii_pi%d_command_issue_write(1);", n)
		})
	}

	g.newline(1)

	g.define("DFII_PIX_DATA_SIZE", "CSR_SDRAM_DFII_PI0_WRDATA_SIZE")
	g.newline(1)

	for _, data := range []string{"wrdata", "rddata"} {
		head := fmt.Sprintf(
			"static inline unsigned long sdram_dfii_pix_%s_addr(int phase)", data)
		g.block(head, true, func(b *cgen) {
			b.block("switch (phase)", false, func(s *cgen) {
				for n := 0; n < p.PhaseCount; n++ {
					s.add("case %d: return CSR_SDRAM_DFII_PI%d_%s_ADDR;",
						n, n, strings.ToUpper(data))
				}
				s.raw("default: return 0;")
			})
		})
	}

	g.newline(1)

	if table, mr, ok := writeLeveling(seq); ok {
		g.define("DDRX_MR_WRLVL_ADDRESS", table.WriteLevelingRegister)
		g.define("DDRX_MR_WRLVL_RESET", mr)
		g.define("DDRX_MR_WRLVL_BIT", table.WriteLevelingBit)
		g.newline(1)
	}

	w := stepWriter{
		dfii:    "sdram_dfii",
		command: func(phase int) string { return fmt.Sprintf("command_p%d", phase) },
	}

	g.block("static inline void init_sequence(void)", true, func(b *cgen) {
		for _, s := range seq.Steps {
			w.step(b, s)
			b.newline(1)
		}
	})

	return g.generate(Guard)
}
