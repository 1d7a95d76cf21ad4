package engine

import (
	"context"
	"fmt"

	"github.com/hupe1980/factmesh/core"
)

// CallbackType defines the specific lifecycle points where callbacks can be
// executed.
//
// Callbacks provide a mechanism for hooking into the engine's cycle loop
// without modifying core logic. Each type represents a specific point in the
// run lifecycle where custom logic can be injected.
//
// Available callback types:
//   - BeforeCycle: at the start of each cycle, after eligibility
//   - AfterAgent: after each agent execution, contained failures included
//   - AfterMerge: after a cycle's merge pass completes
//   - OnViolation: when any invariant check fails
//   - OnHalt: when the run reaches its terminal state
//
// Callbacks are strictly observational. The engine's outcome is fully
// determined by agents, invariants and budgets; a callback returning an
// error is logged and otherwise ignored, so observers can never perturb a
// deterministic run.
type CallbackType string

const (
	// CallbackBeforeCycle is triggered before a cycle's agents execute.
	// Use for instrumentation or progress reporting.
	CallbackBeforeCycle CallbackType = "before_cycle"

	// CallbackAfterAgent is triggered after each agent execution.
	// Use for latency metrics or failure alerting.
	CallbackAfterAgent CallbackType = "after_agent"

	// CallbackAfterMerge is triggered after a cycle's merge pass.
	// Use for auditing the facts committed in the cycle.
	CallbackAfterMerge CallbackType = "after_merge"

	// CallbackOnViolation is triggered when an invariant check fails.
	// Use for alerting or external diagnostics.
	CallbackOnViolation CallbackType = "on_violation"

	// CallbackOnHalt is triggered once with the run's terminal state.
	// Use for cleanup, notification, or result shipping.
	CallbackOnHalt CallbackType = "on_halt"
)

// CallbackContext carries the observation for one callback execution.
// Fields beyond RunID and Cycle are populated per callback type.
type CallbackContext struct {
	// RunID identifies the observed run.
	RunID string

	// Cycle is the cycle number at the observation point.
	Cycle int

	// Agent names the executing agent for AfterAgent observations.
	Agent string

	// Err carries the containment error of a failed execution.
	Err error

	// Committed lists the facts merged in the cycle for AfterMerge
	// observations, in commit order.
	Committed []core.Fact

	// Violation is the failed check for OnViolation observations.
	Violation *core.Violation

	// Halt is the terminal state for OnHalt observations.
	Halt *core.HaltReason
}

// Callback defines the interface for run lifecycle observers.
//
// Implementations should be:
//   - Fast: callbacks run synchronously inside the cycle loop
//   - Safe: handle errors gracefully and avoid panics
//   - Stateless with respect to run semantics: the run's outcome must not
//     depend on callback behavior
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided observation.
	// Errors are logged by the engine and never affect the run.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	progress := engine.NewFunctionCallback(
//	    engine.CallbackBeforeCycle,
//	    func(ctx context.Context, cc *engine.CallbackContext) error {
//	        log.Printf("run %s cycle %d", cc.RunID, cc.Cycle)
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback for the given
// lifecycle point.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided observation.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager routes observations to registered callbacks.
//
// Callbacks are executed sequentially in registration order. Registration is
// not thread-safe; build the manager fully before handing it to the engine.
// Execution after that is safe for concurrent use.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// Register adds a callback under its type. Multiple callbacks per type run
// in registration order.
func (cm *CallbackManager) Register(callback Callback) {
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// Execute runs all callbacks registered for the type. The first error is
// returned for the engine to log; remaining callbacks of the type still run.
func (cm *CallbackManager) Execute(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	callbacks, exists := cm.callbacks[callbackType]
	if !exists {
		return nil
	}

	var firstErr error
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("callback %s: %w", callbackType, err)
		}
	}
	return firstErr
}

// FactAuditCallback observes the facts committed in each cycle.
//
// The audit function receives the cycle's committed facts in commit order.
// It is an observer: returning an error flags the audit in the log but the
// facts stay committed. Use invariants, not callbacks, to constrain state.
//
// Example:
//
//	audit := engine.NewFactAuditCallback(func(facts []core.Fact) error {
//	    for _, f := range facts {
//	        if f.Key == core.KeyProposals {
//	            metrics.Inc("proposals_committed")
//	        }
//	    }
//	    return nil
//	})
type FactAuditCallback struct {
	audit func(facts []core.Fact) error
}

// NewFactAuditCallback creates a new fact audit callback.
func NewFactAuditCallback(audit func(facts []core.Fact) error) *FactAuditCallback {
	return &FactAuditCallback{audit: audit}
}

// Type returns the callback type (always CallbackAfterMerge).
func (c *FactAuditCallback) Type() CallbackType {
	return CallbackAfterMerge
}

// Execute audits the cycle's committed facts.
func (c *FactAuditCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.audit != nil && len(callbackCtx.Committed) > 0 {
		return c.audit(callbackCtx.Committed)
	}
	return nil
}
