package tracing

import (
	"sync"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
)

// CountTracer counts the steps of a run and the register writes per signal.
type CountTracer struct {
	lock        sync.Mutex
	steps       uint64
	delay       uint64
	writes      uint64
	signalNames []string
	perSignal   map[string]uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{perSignal: make(map[string]uint64)}
}

// StartStep does nothing.
func (t *CountTracer) StartStep(_ initseq.StepEvent) {}

// EndStep counts a completed step and its delay.
func (t *CountTracer) EndStep(event initseq.StepEvent) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.steps++
	t.delay += uint64(event.Step.PostDelay)
}

// RegisterWrite counts a write.
func (t *CountTracer) RegisterWrite(w dfi.RegisterWrite) {
	t.lock.Lock()
	defer t.lock.Unlock()

	name := w.Signal.String()
	if _, ok := t.perSignal[name]; !ok {
		t.signalNames = append(t.signalNames, name)
	}

	t.perSignal[name]++
	t.writes++
}

// Steps returns the number of completed steps.
func (t *CountTracer) Steps() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.steps
}

// DelayCycles returns the sum of the delays of the completed steps.
func (t *CountTracer) DelayCycles() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.delay
}

// Writes returns the number of register writes.
func (t *CountTracer) Writes() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.writes
}

// SignalNames returns the signals written, in order of first write.
func (t *CountTracer) SignalNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.signalNames...)
}

// SignalCount returns the number of writes to a signal.
func (t *CountTracer) SignalCount(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.perSignal[name]
}
