package header

import (
	"fmt"
	"strings"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
)

func pythonConstants(b *strings.Builder, prefix string, names []string,
	values []uint8,
) {
	width := 0
	for _, n := range names {
		width = max(width, len(prefix)+len(n))
	}

	for i, n := range names {
		fmt.Fprintf(b, "%-*s = 0x%02x\n",
			width, prefix+strings.ToLower(n), values[i])
	}

	b.WriteString("\n")
}

func pythonMask(s initseq.Step) string {
	prefix := "dfii_command_"
	if s.Kind == initseq.StepControl {
		prefix = "dfii_control_"
	}

	names := s.MaskNames()
	if len(names) == 0 {
		return "0"
	}

	for i, n := range names {
		names[i] = prefix + strings.ToLower(n)
	}

	return strings.Join(names, "|")
}

// Python renders the sequence as a Python module that lists the steps as
// (label, address, bank address, mask, delay) tuples.
func Python(seq initseq.Sequence) string {
	var b strings.Builder

	var (
		ctrlNames  []string
		ctrlValues []uint8
		cmdNames   []string
		cmdValues  []uint8
	)

	for _, bit := range dfi.ControlBits() {
		ctrlNames = append(ctrlNames, bit.String())
		ctrlValues = append(ctrlValues, uint8(bit))
	}

	for _, bit := range dfi.CommandBits() {
		cmdNames = append(cmdNames, bit.String())
		cmdValues = append(cmdValues, uint8(bit))
	}

	pythonConstants(&b, "dfii_control_", ctrlNames, ctrlValues)
	pythonConstants(&b, "dfii_command_", cmdNames, cmdValues)

	if _, mr1, ok := writeLeveling(seq); ok {
		fmt.Fprintf(&b, "ddrx_mr1 = 0x%x\n\n", mr1)
	}

	b.WriteString("init_sequence = [\n")

	for _, s := range seq.Steps {
		fmt.Fprintf(&b, "    (%q, %d, %d, %s, %d),\n",
			s.Label, s.Address, s.BankAddress, pythonMask(s), s.PostDelay)
	}

	b.WriteString("]\n")

	return b.String()
}
