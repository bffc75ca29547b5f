package tracing

import (
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/sdraminit/datarecording"
	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
	"github.com/tebeka/atexit"
)

// Tables written by a DBTracer.
const (
	RunTable           = "trace_run"
	StepTable          = "trace_step"
	RegisterWriteTable = "trace_register_write"
)

// RunEntry is a row of the run table.
type RunEntry struct {
	RunID      string
	Technology string
	Phases     int
	Steps      int
	StartTime  float64
	EndTime    float64
}

// StepEntry is a row of the step table.
type StepEntry struct {
	RunID       string
	Step        int
	Label       string
	Kind        string
	Phase       int
	Address     int
	BankAddress int
	Mask        string
	MaskBits    int
	PostDelay   int
	StartTime   float64
	EndTime     float64
}

// RegisterWriteEntry is a row of the register write table. Step is -1 for
// writes issued outside of a step.
type RegisterWriteEntry struct {
	RunID  string
	Seq    int
	Step   int
	Phase  int
	Signal string
	Value  int64
	Time   float64
}

// DBTracer stores the steps and the register writes of runs into a
// DataRecorder. Each run gets its own run ID.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller TimeTeller
	backend    datarecording.DataRecorder

	run      RunEntry
	inRun    bool
	step     int
	seq      int
	inflight map[int]StepEntry
}

// NewDBTracer creates the trace tables in the recorder.
func NewDBTracer(
	timeTeller TimeTeller,
	recorder datarecording.DataRecorder,
) *DBTracer {
	recorder.CreateTable(RunTable, RunEntry{})
	recorder.CreateTable(StepTable, StepEntry{})
	recorder.CreateTable(RegisterWriteTable, RegisterWriteEntry{})

	t := &DBTracer{
		timeTeller: timeTeller,
		backend:    recorder,
		step:       -1,
		inflight:   make(map[int]StepEntry),
	}

	atexit.Register(t.Terminate)

	return t
}

// StartRun opens a run of the sequence and returns its ID.
func (t *DBTracer) StartRun(seq initseq.Sequence) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inRun {
		panic("a run is already being traced")
	}

	t.run = RunEntry{
		RunID:      xid.New().String(),
		Technology: string(seq.Technology()),
		Phases:     seq.Profile.PhaseCount,
		Steps:      len(seq.Steps),
		StartTime:  t.timeTeller.CurrentTime(),
	}
	t.inRun = true
	t.step = -1
	t.seq = 0

	return t.run.RunID
}

// EndRun closes the current run and flushes the recorder.
func (t *DBTracer) EndRun() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.inRun {
		return
	}

	t.run.EndTime = t.timeTeller.CurrentTime()
	t.backend.InsertData(RunTable, t.run)
	t.inRun = false
	t.inflight = make(map[int]StepEntry)

	t.backend.Flush()
}

// StartStep marks the start of a step.
func (t *DBTracer) StartStep(event initseq.StepEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.inRun {
		return
	}

	s := event.Step
	t.step = event.Index
	t.inflight[event.Index] = StepEntry{
		RunID:       t.run.RunID,
		Step:        event.Index,
		Label:       s.Label,
		Kind:        s.Kind.String(),
		Phase:       s.Phase,
		Address:     int(s.Address),
		BankAddress: int(s.BankAddress),
		Mask:        s.MaskString(),
		MaskBits:    int(s.Mask()),
		PostDelay:   s.PostDelay,
		StartTime:   t.timeTeller.CurrentTime(),
	}
}

// EndStep marks the end of a step and records it.
func (t *DBTracer) EndStep(event initseq.StepEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.inflight[event.Index]
	if !ok {
		return
	}

	delete(t.inflight, event.Index)

	entry.EndTime = t.timeTeller.CurrentTime()
	t.backend.InsertData(StepTable, entry)
	t.step = -1
}

// RegisterWrite records a register write.
func (t *DBTracer) RegisterWrite(w dfi.RegisterWrite) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.inRun {
		return
	}

	t.backend.InsertData(RegisterWriteTable, RegisterWriteEntry{
		RunID:  t.run.RunID,
		Seq:    t.seq,
		Step:   t.step,
		Phase:  w.Phase,
		Signal: w.Signal.String(),
		Value:  int64(w.Value),
		Time:   t.timeTeller.CurrentTime(),
	})
	t.seq++
}

// Terminate closes an unfinished run and flushes the recorder.
func (t *DBTracer) Terminate() {
	t.EndRun()
	t.backend.Flush()
}
