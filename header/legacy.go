package header

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/sdraminit/compat"
	"github.com/sarchlab/sdraminit/csr"
	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
)

// ErrNoPHY is returned when a multi-PHY header is requested for no PHY.
var ErrNoPHY = errors.New("at least one PHY is required")

// PHY is one named PHY of a multi-PHY header. The name prefixes the CSR
// accessors of the PHY, e.g. "sdram" for sdram_dfii_pi0_address_write.
type PHY struct {
	Name     string
	Sequence initseq.Sequence
}

type legacyPHY struct {
	PHY
	facade *compat.Legacy
}

func (p legacyPHY) dfii() string {
	return p.Name + "_dfii"
}

func (p legacyPHY) csr() string {
	return "CSR_" + strings.ToUpper(p.dfii())
}

func (p legacyPHY) command(phase int) string {
	return fmt.Sprintf("sdram_phy_%s_command_p%d", p.Name, phase)
}

func (p legacyPHY) initSequence() string {
	return fmt.Sprintf("sdram_phy_%s_init_sequence", p.Name)
}

func (p legacyPHY) nphases() int {
	return p.facade.NPhases()
}

// perPhase renders one entry per phase as a brace-enclosed list.
func (p legacyPHY) perPhase(g *cgen, entry func(n int) string) {
	g.raw("{")

	items := &cgen{indent: g.indent + 1}
	for n := 0; n < p.nphases(); n++ {
		sep := ","
		if n == p.nphases()-1 {
			sep = ""
		}

		items.raw(entry(n) + sep)
	}

	g.entries = append(g.entries, items)
	g.raw("},")
}

// legacyView resolves the read and write aliases of the PHY through a
// compat.Legacy facade over a binding of its phase count.
func legacyView(phy PHY) (legacyPHY, error) {
	p := phy.Sequence.Profile
	space := csr.NewSpace()
	hw := csr.LayoutFor(0, p).Hardware(space, p.PhaseCount)

	b, err := dfi.NewBindingForProfile(hw, p)
	if err != nil {
		return legacyPHY{}, fmt.Errorf("%s: %w", phy.Name, err)
	}

	return legacyPHY{PHY: phy, facade: compat.New(b)}, nil
}

const sdramPHYStruct = `struct sdram_phy_t {
	uint8_t nphases;
	uint8_t pix_data_size;
	uint16_t ddrx_mr1;

	unsigned long pix_wrdata_addr[DFII_NPHASES_MAX];
	unsigned long pix_rddata_addr[DFII_NPHASES_MAX];

	void (* control_write)(uint8_t v);

	void (* pix_command_write[DFII_NPHASES_MAX])(uint8_t v);
	void (* pix_command_issue_write[DFII_NPHASES_MAX])(uint8_t v);

	void (* pix_address_write[DFII_NPHASES_MAX])(uint16_t v);
	void (* pird_address_write)(uint16_t v);
	void (* piwr_address_write)(uint16_t v);

	void (* pix_baddress_write[DFII_NPHASES_MAX])(uint8_t v);
	void (* pird_baddress_write)(uint8_t v);
	void (* piwr_baddress_write)(uint8_t v);

	void (* command_px[DFII_NPHASES_MAX])(uint8_t cmd);
	void (* command_prd)(uint8_t cmd);
	void (* command_pwr)(uint8_t cmd);

	void (* init)(void);
};`

// LegacyC renders a multi-PHY C header with a table of PHY descriptors and
// the backward compatibility accessors of the first PHY.
func LegacyC(phys []PHY) (string, error) {
	if len(phys) == 0 {
		return "", ErrNoPHY
	}

	views := make([]legacyPHY, 0, len(phys))
	maxPhases, maxDataSize := 0, 0

	for _, phy := range phys {
		v, err := legacyView(phy)
		if err != nil {
			return "", err
		}

		views = append(views, v)
		maxPhases = max(maxPhases, v.nphases())
		maxDataSize = max(maxDataSize, phy.Sequence.Profile.PhaseDataBytes())
	}

	g := newCGen()

	g.include("<hw/common.h>")
	g.include("<generated/csr.h>")
	g.include("<hw/flags.h>")
	g.include("<stdint.h>")
	g.newline(1)

	g.add("#define %-22s %d", "DFII_NPHASES_MAX", maxPhases)
	g.add("#define %-22s %d", "DFII_PIX_DATA_SIZE_MAX", maxDataSize)
	g.newline(1)

	g.raw("static void cdelay(int i);")
	g.newline(2)

	for _, v := range views {
		legacyFunctions(g, v)
	}

	g.block("static inline void sdram_phy_init_all(void)", true, func(b *cgen) {
		for _, v := range views {
			b.add("%s();", v.initSequence())
		}
	})
	g.newline(2)

	for _, line := range strings.Split(sdramPHYStruct, "\n") {
		g.raw(line)
	}

	g.newline(1)

	legacyTable(g, views)
	g.newline(2)

	backwardCompatibility(g, views[0])

	return g.generate(Guard), nil
}

func legacyFunctions(g *cgen, v legacyPHY) {
	for n := 0; n < v.nphases(); n++ {
		head := fmt.Sprintf("static void %s(uint8_t cmd)", v.command(n))
		g.block(head, true, func(b *cgen) {
			b.add("%s_pi%d_command_write(cmd);", v.dfii(), n)
			b.add("%s_pi%d_command_issue_write(cmd);", v.dfii(), n)
		})
		g.newline(2)
	}

	w := stepWriter{dfii: v.dfii(), command: v.command}
	head := fmt.Sprintf("static void %s(void)", v.initSequence())

	g.block(head, true, func(b *cgen) {
		for i, s := range v.Sequence.Steps {
			if i > 0 {
				b.newline(1)
			}

			w.step(b, s)
		}
	})
	g.newline(2)
}

func legacyTable(g *cgen, views []legacyPHY) {
	g.raw("static const struct sdram_phy_t sdram_phys[] = {")

	body := &cgen{indent: g.indent + 1}

	for i, v := range views {
		body.add("/* %s */", v.Name)
		body.raw("{")

		e := &cgen{indent: body.indent + 1}
		legacyEntry(e, v)
		body.entries = append(body.entries, e)

		if i == len(views)-1 {
			body.raw("}")
		} else {
			body.raw("},")
		}
	}

	g.entries = append(g.entries, body)
	g.raw("};")
}

func legacyEntry(e *cgen, v legacyPHY) {
	rd, wr := v.facade.ReadPhase(), v.facade.WritePhase()
	seq := v.Sequence

	var mr1 uint16
	if _, value, ok := writeLeveling(seq); ok {
		mr1 = value
	}

	e.add("%d,", v.nphases())
	e.add("%s_PI0_WRDATA_SIZE,", v.csr())
	e.add("%#x,", mr1)

	v.perPhase(e, func(n int) string {
		return fmt.Sprintf("%s_PI%d_WRDATA_ADDR", v.csr(), n)
	})
	v.perPhase(e, func(n int) string {
		return fmt.Sprintf("%s_PI%d_RDDATA_ADDR", v.csr(), n)
	})

	e.add("%s_control_write,", v.dfii())

	for _, reg := range []string{"command", "command_issue"} {
		v.perPhase(e, func(n int) string {
			return fmt.Sprintf("%s_pi%d_%s_write", v.dfii(), n, reg)
		})
	}

	for _, reg := range []string{"address", "baddress"} {
		v.perPhase(e, func(n int) string {
			return fmt.Sprintf("%s_pi%d_%s_write", v.dfii(), n, reg)
		})
		e.add("%s_pi%d_%s_write, /* rd */", v.dfii(), rd, reg)
		e.add("%s_pi%d_%s_write, /* wr */", v.dfii(), wr, reg)
	}

	v.perPhase(e, v.command)
	e.add("%s, /* rd */", v.command(rd))
	e.add("%s, /* wr */", v.command(wr))

	e.raw(v.initSequence())
}

func backwardCompatibility(g *cgen, v legacyPHY) {
	const inline = "static inline __attribute__((always_inline)) void"

	rd, wr := v.facade.ReadPhase(), v.facade.WritePhase()

	g.raw("/*** backward compatibility ***/")
	g.newline(1)
	g.raw("#ifndef SDRAM_PHY_DISABLE_BACKWARD_COMPATIBILITY")
	g.newline(1)
	g.define("DFII_NPHASES", v.nphases())
	g.newline(1)

	for n := 0; n < v.nphases(); n++ {
		g.add("%s command_p%d(uint8_t v) { %s(v); }", inline, n, v.command(n))
	}

	for _, reg := range []struct{ name, typ string }{
		{"address", "uint16_t"},
		{"baddress", "uint8_t"},
	} {
		g.add("%s sdram_dfii_pird_%s_write(%s v) { %s_pi%d_%s_write(v); }",
			inline, reg.name, reg.typ, v.dfii(), rd, reg.name)
		g.add("%s sdram_dfii_piwr_%s_write(%s v) { %s_pi%d_%s_write(v); }",
			inline, reg.name, reg.typ, v.dfii(), wr, reg.name)
	}

	g.add("%s command_prd(uint8_t v) { %s(v); }", inline, v.command(rd))
	g.add("%s command_pwr(uint8_t v) { %s(v); }", inline, v.command(wr))
	g.newline(1)

	g.define("DFII_PIX_DATA_SIZE", v.csr()+"_PI0_WRDATA_SIZE")
	g.newline(1)

	for _, data := range []string{"wrdata", "rddata"} {
		g.add("const unsigned long sdram_dfii_pix_%s_addr[DFII_NPHASES] = {", data)

		items := &cgen{indent: g.indent + 1}
		for n := 0; n < v.nphases(); n++ {
			sep := ","
			if n == v.nphases()-1 {
				sep = ""
			}

			items.add("%s_PI%d_%s_ADDR%s", v.csr(), n, strings.ToUpper(data), sep)
		}

		g.entries = append(g.entries, items)
		g.raw("};")
	}

	g.newline(1)
	g.add("%s init_sequence(void) { sdram_phy_init_all(); }", inline)
	g.newline(1)
	g.raw("#endif /* SDRAM_PHY_DISABLE_BACKWARD_COMPATIBILITY */")
}
