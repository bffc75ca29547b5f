// Package tracing records what a bring-up run does.
package tracing

import (
	"time"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
	"github.com/sarchlab/sdraminit/timing"
)

// A Tracer observes the steps of a run and the register writes they issue.
type Tracer interface {
	StartStep(event initseq.StepEvent)
	EndStep(event initseq.StepEvent)
	RegisterWrite(write dfi.RegisterWrite)
}

// A TimeTeller tells the current time of a run, in seconds.
type TimeTeller interface {
	CurrentTime() float64
}

// WallClock tells the wall time elapsed since it was created.
type WallClock struct {
	start time.Time
}

// NewWallClock creates a WallClock that starts now.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// CurrentTime returns the seconds since the clock was created.
func (c *WallClock) CurrentTime() float64 {
	return time.Since(c.start).Seconds()
}

// CycleClock tells the device time that a cycle counter has accumulated.
// It lets a simulated run be traced in device time rather than host time.
type CycleClock struct {
	counter *timing.CycleCounter
	freq    timing.Freq
}

// NewCycleClock creates a clock over the counter at the device frequency.
func NewCycleClock(counter *timing.CycleCounter, freq timing.Freq) *CycleClock {
	return &CycleClock{counter: counter, freq: freq}
}

// CurrentTime returns the cycles waited so far, in seconds.
func (c *CycleClock) CurrentTime() float64 {
	return float64(c.counter.Total()) / float64(c.freq)
}
