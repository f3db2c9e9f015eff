// Package watchdog wraps an activation with an external timeout, the
// bound-runtime mechanism spec §5 says the core deliberately does not
// provide itself: "a host that must bound method runtime wraps the
// call with an external watchdog; on timeout, the entire activation
// is abandoned and its state finalised... the core makes no rollback
// guarantee."
package watchdog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amlvm/engine/internal/hostlog"
	"github.com/amlvm/engine/internal/trace"
	"github.com/amlvm/engine/vm"
)

// Result is what Run reports back to the host.
type Result struct {
	Value      vm.Object
	Err        error
	Abandoned  bool
	TraceID    string
}

// Run executes fn on its own goroutine and waits up to timeout for it
// to finish. fn is handed an onActivation callback to forward straight
// into vm.Engine.ExecMethodTracked, so Run learns the address of the
// real, in-flight Activation as soon as the engine creates it — not a
// decoy built by the caller ahead of time. On timeout, Run returns
// immediately with Abandoned set; fn's goroutine is left running to
// completion in the background (spec §5: side effects already
// performed persist, there is no rollback), and a Snapshot of the live
// Activation's Args/Locals at the moment of abandonment is logged for
// post-mortem inspection. That snapshot reads Activation state the
// still-running goroutine may be concurrently mutating — an inherent,
// accepted race for a best-effort debugging aid, the same tradeoff any
// live-process snapshot makes.
func Run(ctx context.Context, timeout time.Duration, log *trace.Log, method *vm.Method, fn func(onActivation func(*vm.Activation)) (vm.Object, error)) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var mu sync.Mutex
	var live *vm.Activation

	done := make(chan Result, 1)
	start := time.Now()

	go func() {
		v, err := fn(func(a *vm.Activation) {
			mu.Lock()
			live = a
			mu.Unlock()
		})
		done <- Result{Value: v, Err: err}
	}()

	select {
	case r := <-done:
		if log != nil {
			outcome := trace.OutcomeOK
			if r.Err != nil {
				outcome = trace.OutcomeFatal
			}
			id, _ := log.Record(method.Path, time.Since(start).Nanoseconds(), outcome, nil)
			r.TraceID = id
		}
		return r
	case <-ctx.Done():
		id := uuid.New().String()
		hostlogWarnfAbandon(method.Path, id)
		if log != nil {
			mu.Lock()
			a := live
			mu.Unlock()
			if a != nil {
				snap := trace.NewSnapshot(method, 0, a)
				snap.ActivationID = id
				_, _ = log.Record(method.Path, time.Since(start).Nanoseconds(), trace.OutcomeAbandoned, snap)
			}
		}
		return Result{Err: fmt.Errorf("watchdog: %s: %w", method.Path, ctx.Err()), Abandoned: true, TraceID: id}
	}
}

func hostlogWarnfAbandon(path, id string) {
	hostlog.Warnf("aml: watchdog abandoning activation %s (%s): timeout exceeded", path, id)
}
