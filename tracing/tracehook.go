package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/hooking"
	"github.com/sarchlab/sdraminit/initseq"
)

// CollectTrace lets the tracer observe the steps of the runner and the
// register writes of its binding.
func CollectTrace(runner *initseq.Runner, tracer Tracer) {
	attach(runner, tracer)
	attach(runner.Binding(), tracer)
}

func attach(domain hooking.Hookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf("%s already has tracer %s",
				reflect.TypeOf(domain), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&traceHook{t: tracer})
}

// A traceHook forwards hook invocations to a tracer.
type traceHook struct {
	t Tracer
}

// Func calls the tracer interfaces when the hook is triggered.
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case initseq.HookPosStepStart:
		h.t.StartStep(ctx.Item.(initseq.StepEvent))
	case initseq.HookPosStepEnd:
		h.t.EndStep(ctx.Item.(initseq.StepEvent))
	case dfi.HookPosRegisterWrite:
		h.t.RegisterWrite(ctx.Item.(dfi.RegisterWrite))
	}
}
