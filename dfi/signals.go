// Package dfi models the software side of a DFI command interface: the
// control and command bitmasks and the per-phase register-write capabilities
// of a multi-phase PHY.
package dfi

import "strings"

// Control is the value written to the shared DFII control register.
type Control uint8

// Control bits.
const (
	ControlSel    Control = 0x01
	ControlCKE    Control = 0x02
	ControlODT    Control = 0x04
	ControlResetN Control = 0x08
)

// Named control masks used during bring-up.
const (
	CtrlUnreset = ControlODT | ControlResetN
	CtrlCKE     = ControlCKE | ControlODT | ControlResetN
)

var controlNames = []struct {
	bit  Control
	name string
}{
	{ControlSel, "SEL"},
	{ControlCKE, "CKE"},
	{ControlODT, "ODT"},
	{ControlResetN, "RESET_N"},
}

// Names returns the names of the bits set in c, lowest bit first.
func (c Control) Names() []string {
	var names []string

	for _, n := range controlNames {
		if c&n.bit != 0 {
			names = append(names, n.name)
		}
	}

	return names
}

func (c Control) String() string {
	if c == 0 {
		return "0"
	}

	return strings.Join(c.Names(), "|")
}

// Command is the value written to a per-phase command register.
type Command uint8

// Command bits.
const (
	CommandCS     Command = 0x01
	CommandWE     Command = 0x02
	CommandCAS    Command = 0x04
	CommandRAS    Command = 0x08
	CommandWrData Command = 0x10
	CommandRdData Command = 0x20
)

// Named command masks used during bring-up.
const (
	CmdPrechargeAll  = CommandRAS | CommandWE | CommandCS
	CmdModeRegister  = CommandRAS | CommandCAS | CommandWE | CommandCS
	CmdAutoRefresh   = CommandRAS | CommandCAS | CommandCS
	CmdZQCalibration = CommandWE | CommandCS
)

var commandNames = []struct {
	bit  Command
	name string
}{
	{CommandRdData, "RDDATA"},
	{CommandWrData, "WRDATA"},
	{CommandRAS, "RAS"},
	{CommandCAS, "CAS"},
	{CommandWE, "WE"},
	{CommandCS, "CS"},
}

// Names returns the names of the bits set in c, highest bit first.
func (c Command) Names() []string {
	var names []string

	for _, n := range commandNames {
		if c&n.bit != 0 {
			names = append(names, n.name)
		}
	}

	return names
}

func (c Command) String() string {
	if c == 0 {
		return "0"
	}

	return strings.Join(c.Names(), "|")
}

// ControlBits lists every control bit with its name, lowest bit first.
func ControlBits() []Control {
	bits := make([]Control, len(controlNames))
	for i, n := range controlNames {
		bits[i] = n.bit
	}

	return bits
}

// CommandBits lists every command bit, lowest bit first.
func CommandBits() []Command {
	bits := make([]Command, len(commandNames))
	for i, n := range commandNames {
		bits[len(bits)-1-i] = n.bit
	}

	return bits
}
