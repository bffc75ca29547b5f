package profile

// defaultBurstLength is the burst length of each technology unless a profile
// sets one.
var defaultBurstLength = map[Technology]int{
	SDR:   1,
	DDR:   4,
	LPDDR: 4,
	DDR2:  4,
	DDR3:  8,
	DDR4:  8,
}

var defaultElectrical = map[Technology]Electrical{
	DDR3: {RttNom: "60ohm", RttWr: "60ohm", Ron: "34ohm"},
	DDR4: {RttNom: "40ohm", RttWr: "120ohm", Ron: "34ohm"},
}

// Builder can build timing profiles.
type Builder struct {
	technology      Technology
	phyType         string
	phaseCount      int
	dataWidthBits   int
	moduleCount     int
	casLatency      int
	casWriteLatency int
	commandLatency  int
	burstLength     int
	tWTR            int
	readPhase       int
	writePhase      int
	commandPhase    int
	derivePhases    bool
	delayLineDepth  int
	bitslipRange    int
	dataMask        bool
	fineRefreshMode string
	tCCD            int
	electrical      Electrical
	rdimm           *RDIMM
	capabilities    Capabilities
}

// MakeBuilder creates a builder with default configuration. The defaults
// describe a single-rank DDR4 component behind a 4-phase PHY.
func MakeBuilder() Builder {
	return Builder{
		technology:      DDR4,
		phyType:         "USDDRPHY",
		phaseCount:      4,
		dataWidthBits:   64,
		moduleCount:     8,
		casLatency:      9,
		casWriteLatency: 9,
		tWTR:            2,
		readPhase:       3,
		writePhase:      3,
		delayLineDepth:  512,
		bitslipRange:    8,
		dataMask:        true,
		fineRefreshMode: "1x",
		tCCD:            4,
	}
}

// WithTechnology sets the memory technology.
func (b Builder) WithTechnology(t Technology) Builder {
	b.technology = t
	return b
}

// WithPHYType sets the name of the PHY, e.g. USDDRPHY.
func (b Builder) WithPHYType(name string) Builder {
	b.phyType = name
	return b
}

// WithPhaseCount sets the number of DFI phases.
func (b Builder) WithPhaseCount(n int) Builder {
	b.phaseCount = n
	return b
}

// WithDataWidth sets the number of data lines of the memory bus.
func (b Builder) WithDataWidth(bits int) Builder {
	b.dataWidthBits = bits
	return b
}

// WithModuleCount sets the number of byte lanes (strobes).
func (b Builder) WithModuleCount(n int) Builder {
	b.moduleCount = n
	return b
}

// WithCL sets the CAS latency in device clocks.
func (b Builder) WithCL(cycle int) Builder {
	b.casLatency = cycle
	return b
}

// WithCWL sets the CAS write latency in device clocks.
func (b Builder) WithCWL(cycle int) Builder {
	b.casWriteLatency = cycle
	return b
}

// WithCommandLatency sets the extra command latency of the PHY in device
// clocks.
func (b Builder) WithCommandLatency(cycle int) Builder {
	b.commandLatency = cycle
	return b
}

// WithBurstLength sets the burst length. Zero selects the technology
// default.
func (b Builder) WithBurstLength(n int) Builder {
	b.burstLength = n
	return b
}

// WithTWTR sets the write-to-read turnaround in controller cycles. It sets
// the lower bound of the write recovery encoded into MR0.
func (b Builder) WithTWTR(cycle int) Builder {
	b.tWTR = cycle
	return b
}

// WithReadPhase sets the phase used for read data.
func (b Builder) WithReadPhase(p int) Builder {
	b.readPhase = p
	b.derivePhases = false

	return b
}

// WithWritePhase sets the phase used for write data.
func (b Builder) WithWritePhase(p int) Builder {
	b.writePhase = p
	b.derivePhases = false

	return b
}

// WithCommandPhase sets the phase that issues the bring-up commands.
func (b Builder) WithCommandPhase(p int) Builder {
	b.commandPhase = p
	return b
}

// WithDerivedPhases computes the read and write phases from the CAS
// latencies and the command latency, the way the PHYs place them.
func (b Builder) WithDerivedPhases() Builder {
	b.derivePhases = true
	return b
}

// WithDelayLineDepth sets the number of taps of the input delay lines.
func (b Builder) WithDelayLineDepth(n int) Builder {
	b.delayLineDepth = n
	return b
}

// WithBitslipRange sets the number of bitslip positions.
func (b Builder) WithBitslipRange(n int) Builder {
	b.bitslipRange = n
	return b
}

// WithDataMask sets whether DDR4 data mask is enabled (MR5 A10).
func (b Builder) WithDataMask(enabled bool) Builder {
	b.dataMask = enabled
	return b
}

// WithFineRefreshMode sets the DDR4 fine granularity refresh mode.
func (b Builder) WithFineRefreshMode(mode string) Builder {
	b.fineRefreshMode = mode
	return b
}

// WithTCCD sets the DDR4 CAS-to-CAS delay encoded into MR6.
func (b Builder) WithTCCD(cycle int) Builder {
	b.tCCD = cycle
	return b
}

// WithElectrical sets the termination and drive settings. Empty fields keep
// the technology defaults.
func (b Builder) WithElectrical(e Electrical) Builder {
	b.electrical = e
	return b
}

// WithRDIMM makes the profile a registered DIMM with the given RCD settings.
func (b Builder) WithRDIMM(r RDIMM) Builder {
	b.rdimm = &r
	return b
}

// WithCapabilities sets the calibration capabilities of the PHY.
func (b Builder) WithCapabilities(c Capabilities) Builder {
	b.capabilities = c
	return b
}

// Build builds and validates a profile.
func (b Builder) Build() (Profile, error) {
	p := Profile{
		Technology:      b.technology,
		PHYType:         b.phyType,
		PhaseCount:      b.phaseCount,
		DataWidthBits:   b.dataWidthBits,
		ModuleCount:     b.moduleCount,
		CASLatency:      b.casLatency,
		CASWriteLatency: b.casWriteLatency,
		CommandLatency:  b.commandLatency,
		BurstLength:     b.burstLength,
		TWTR:            b.tWTR,
		ReadPhase:       b.readPhase,
		WritePhase:      b.writePhase,
		CommandPhase:    b.commandPhase,
		DelayLineDepth:  b.delayLineDepth,
		BitslipRange:    b.bitslipRange,
		DataMask:        b.dataMask && b.technology == DDR4,
		FineRefreshMode: b.fineRefreshMode,
		TCCD:            b.tCCD,
		Electrical:      b.electrical,
		Capabilities:    b.capabilities,
	}

	if b.rdimm != nil {
		r := *b.rdimm
		p.RDIMM = &r
	}

	if b.derivePhases && b.phaseCount > 0 {
		p.ReadPhase = SysPhase(b.phaseCount, b.casLatency+b.commandLatency)
		p.WritePhase = SysPhase(b.phaseCount,
			b.casWriteLatency+b.commandLatency)
	}

	p.ApplyDefaults()

	err := p.Validate()
	if err != nil {
		return Profile{}, err
	}

	return p, nil
}

// ApplyDefaults fills the fields left at their zero value with the defaults
// of the profile's technology.
func (p *Profile) ApplyDefaults() {
	if p.BurstLength == 0 {
		p.BurstLength = defaultBurstLength[p.Technology]
	}

	if p.CASWriteLatency == 0 {
		p.CASWriteLatency = p.CASLatency
	}

	p.applyElectricalDefaults()

	if p.Technology != DDR4 {
		return
	}

	if p.FineRefreshMode == "" {
		p.FineRefreshMode = "1x"
	}

	if p.TCCD == 0 {
		p.TCCD = 4
	}
}

func (p *Profile) applyElectricalDefaults() {
	def, ok := defaultElectrical[p.Technology]
	if !ok {
		return
	}

	if p.Electrical.RttNom == "" {
		p.Electrical.RttNom = def.RttNom
	}

	if p.Electrical.RttWr == "" {
		p.Electrical.RttWr = def.RttWr
	}

	if p.Electrical.Ron == "" {
		p.Electrical.Ron = def.Ron
	}
}
