// Package timing provides the delay primitive used between bring-up steps.
package timing

import (
	"log"
	"math"
	"time"
)

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks
func (f Freq) Period() time.Duration {
	f.mustBePositive()

	return time.Duration(math.Ceil(float64(time.Second) / float64(f)))
}

// Duration returns the wall time that n cycles take. The result is rounded
// up so that waiting for it never covers fewer than n cycles.
func (f Freq) Duration(n int) time.Duration {
	f.mustBePositive()

	if n < 0 {
		log.Panicf("cycle count cannot be negative, got %d", n)
	}

	return time.Duration(math.Ceil(float64(n) * float64(time.Second) / float64(f)))
}

// Cycles converts a wall time into the number of complete cycles it covers.
func (f Freq) Cycles(d time.Duration) uint64 {
	f.mustBePositive()

	if d <= 0 {
		return 0
	}

	return uint64(math.Floor(d.Seconds() * float64(f)))
}

func (f Freq) mustBePositive() {
	if f <= 0 || math.IsNaN(float64(f)) {
		log.Panic("frequency must be positive")
	}
}
