package profile

import (
	"errors"
	"fmt"
)

// ErrNoSpeedBin is returned when no JEDEC speed bin covers a clock.
var ErrNoSpeedBin = errors.New("no speed bin for clock")

type speedBin struct {
	dataRate float64
	cl, cwl  int
}

// speedBins lists, from the slowest, the CL/CWL pair each data rate needs.
var speedBins = map[Technology][]speedBin{
	DDR2: {
		{400e6, 3, 2},
		{533e6, 4, 3},
		{677e6, 5, 4},
		{800e6, 6, 5},
		{1066e6, 7, 5},
	},
	DDR3: {
		{800e6, 6, 5},
		{1066e6, 7, 6},
		{1333e6, 10, 7},
		{1600e6, 11, 8},
	},
	DDR4: {
		{1333e6, 9, 9},
		{1600e6, 11, 9},
		{1866e6, 13, 10},
		{2133e6, 15, 11},
		{2400e6, 16, 12},
		{2666e6, 18, 14},
	},
}

// CLCWLForClock returns the CAS latency and CAS write latency of the
// slowest speed bin that can run a device clock of clockHz.
func CLCWLForClock(t Technology, clockHz float64) (cl, cwl int, err error) {
	bins, ok := speedBins[t]
	if !ok {
		return 0, 0, fmt.Errorf("%s: %w", t, ErrNoSpeedBin)
	}

	dataRate := 2 * clockHz
	for _, b := range bins {
		if dataRate <= b.dataRate {
			return b.cl, b.cwl, nil
		}
	}

	return 0, 0, fmt.Errorf("%s at %g Hz: %w", t, clockHz, ErrNoSpeedBin)
}

// SysLatency returns the number of controller cycles a latency of the given
// device clocks spans.
func SysLatency(nphases, latency int) int {
	return (latency + nphases - 1) / nphases
}

// SysPhase returns the phase, within the last controller cycle, on which a
// latency of the given device clocks ends.
func SysPhase(nphases, latency int) int {
	return SysLatency(nphases, latency)*nphases - latency
}
