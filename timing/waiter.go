package timing

import (
	"log"
	"sync"
	"time"
)

// A Waiter blocks the calling path for at least a number of device clock
// cycles. Implementations must never return early: command spacing during
// bring-up is what satisfies the JEDEC settle times.
type Waiter interface {
	Wait(cycles int)
}

// ClockWaiter maps cycles to wall time through the device clock frequency.
type ClockWaiter struct {
	freq  Freq
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClockWaiter creates a waiter calibrated for the given device clock.
func NewClockWaiter(freq Freq) *ClockWaiter {
	freq.mustBePositive()

	return &ClockWaiter{
		freq:  freq,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Freq returns the device clock frequency the waiter is calibrated for.
func (w *ClockWaiter) Freq() Freq {
	return w.freq
}

// Wait blocks until the monotonic clock has advanced by at least the
// duration of the given number of cycles.
func (w *ClockWaiter) Wait(cycles int) {
	mustNotBeNegative(cycles)

	if cycles == 0 {
		return
	}

	start := w.now()
	deadline := start.Add(w.freq.Duration(cycles))

	for {
		remaining := deadline.Sub(w.now())
		if remaining <= 0 {
			return
		}

		w.sleep(remaining)
	}
}

// CycleCounter is a Waiter that returns immediately and accumulates the
// cycles it was asked to wait. It stands in for the device clock when the
// sequence is run against a simulated register sink.
type CycleCounter struct {
	lock  sync.Mutex
	total uint64
	waits []int
}

// NewCycleCounter creates a CycleCounter.
func NewCycleCounter() *CycleCounter {
	return &CycleCounter{}
}

// Wait records the request.
func (c *CycleCounter) Wait(cycles int) {
	mustNotBeNegative(cycles)

	c.lock.Lock()
	defer c.lock.Unlock()

	c.total += uint64(cycles)
	c.waits = append(c.waits, cycles)
}

// Total returns the sum of all the cycles waited.
func (c *CycleCounter) Total() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.total
}

// Waits returns every individual wait in call order.
func (c *CycleCounter) Waits() []int {
	c.lock.Lock()
	defer c.lock.Unlock()

	waits := make([]int, len(c.waits))
	copy(waits, c.waits)

	return waits
}

func mustNotBeNegative(cycles int) {
	if cycles < 0 {
		log.Panicf("cannot wait for a negative number of cycles (%d)", cycles)
	}
}
