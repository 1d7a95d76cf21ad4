package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/factmesh/core"
)

// outcome is one agent's contribution to a cycle, collected by the worker
// pool and consumed by the serial merge. A non-nil err means the execution
// was contained: the effect is empty and only a diagnostic fact remains.
type outcome struct {
	id      core.AgentID
	agent   string
	effect  core.Effect
	err     error
	elapsed time.Duration
}

// executeAgents runs the eligible agents in parallel against the shared
// immutable view and returns their outcomes ordered by agent ID.
//
// A bounded worker pool (Config.MaxWorkers) pulls agent indices from a jobs
// channel; results land in a pre-sized slice at the agent's position, so the
// returned order never depends on completion order. The pool exists for
// resource control only — merge order, and therefore the final state, is
// fixed by agent IDs regardless of how execution interleaves.
func (e *Engine) executeAgents(ctx context.Context, ids []core.AgentID, view *core.View) []outcome {
	if len(ids) == 0 {
		return nil
	}

	agents := make([]core.Agent, len(ids))
	for i, id := range ids {
		agents[i] = e.agentByID(id)
	}

	workers := e.config.MaxWorkers
	if workers <= 0 || workers > len(ids) {
		workers = len(ids)
	}

	outcomes := make([]outcome, len(ids))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = e.executeOne(ctx, ids[idx], agents[idx], view)
			}
		}()
	}

	for i := range ids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// executeOne runs a single agent with hard timeout and panic containment.
//
// The agent runs on its own goroutine so the engine can enforce the timeout
// even against an agent that ignores context cancellation. On timeout the
// goroutine is abandoned and a late result is discarded — the effect of a
// contained execution is always empty.
func (e *Engine) executeOne(ctx context.Context, id core.AgentID, a core.Agent, view *core.View) outcome {
	out := outcome{id: id, agent: a.Name()}
	start := time.Now()

	execCtx := ctx
	if e.config.AgentTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.config.AgentTimeout)
		defer cancel()
	}

	type result struct {
		effect core.Effect
		err    error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v\n%s", r, debug.Stack())}
			}
		}()
		effect, err := a.Execute(execCtx, view)
		done <- result{effect: effect, err: err}
	}()

	select {
	case res := <-done:
		out.effect, out.err = res.effect, res.err
	case <-execCtx.Done():
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			out.err = fmt.Errorf("execution timed out after %s", e.config.AgentTimeout)
		} else {
			out.err = fmt.Errorf("execution aborted: %w", execCtx.Err())
		}
	}

	out.elapsed = time.Since(start)
	if out.err != nil {
		// Containment: no partial output ever leaves a failed execution.
		out.effect = core.Effect{}
	}
	return out
}
