package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
)

// A ProgressBar tracks the steps of a run. It is a tracing.Tracer, so it can
// be attached to a runner with tracing.CollectTrace.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
	Writes     uint64    `json:"writes"`
}

// IncrementInProgress adds the number of in-progress steps.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// MoveInProgressToFinished reduces the number of in-progress steps by a
// certain amount and increases the finished steps by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// StartStep marks a step as in progress.
func (b *ProgressBar) StartStep(_ initseq.StepEvent) {
	b.IncrementInProgress(1)
}

// EndStep marks a step as finished.
func (b *ProgressBar) EndStep(_ initseq.StepEvent) {
	b.MoveInProgressToFinished(1)
}

// RegisterWrite counts a register write.
func (b *ProgressBar) RegisterWrite(_ dfi.RegisterWrite) {
	b.Lock()
	defer b.Unlock()

	b.Writes++
}

// Done tells whether every step has finished.
func (b *ProgressBar) Done() bool {
	b.Lock()
	defer b.Unlock()

	return b.Finished >= b.Total
}
