// Package chain executes an ordered list of tool invocations as a single
// logical workflow, with result data flowing forward through templated
// references.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/pkg/metricskey"
	"github.com/effective-security/agentools/tools"
	"github.com/effective-security/xlog"
	"github.com/tidwall/sjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentools", "chain")

// Step is one tool invocation in a chain. Parameter values may contain
// template references of the form {{stepJ.result.<path>}} to earlier
// steps' results, or {{context.<key>}} to the run context.
type Step struct {
	Tool       string         `json:"toolName" jsonschema:"description=Name of the tool to invoke."`
	Parameters map[string]any `json:"parameters,omitempty" jsonschema:"description=Tool arguments; values may reference earlier results with {{stepN.result.<path>}} or {{context.<key>}}."`
	Name       string         `json:"stepName,omitempty" jsonschema:"description=Optional label recorded in the step result."`
	// Condition is an optional boolean template expression; when it
	// evaluates to false the step is skipped without invoking the tool.
	Condition string `json:"condition,omitempty" jsonschema:"description=Optional boolean expression; when false the step is skipped."`
}

// StepResult records the outcome of one step.
type StepResult struct {
	Index   int    `json:"stepIndex"`
	Name    string `json:"stepName,omitempty"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Request is a chain run: the ordered steps plus an optional context map
// available to templates as {{context.<key>}}.
type Request struct {
	Steps   []Step         `json:"steps" jsonschema:"description=Ordered tool invocations."`
	Context map[string]any `json:"context,omitempty" jsonschema:"description=Values available to templates as {{context.<key>}}."`
}

// Result aggregates a chain run. Success is the AND of all non-skipped
// steps.
type Result struct {
	Steps     []StepResult `json:"steps"`
	Success   bool         `json:"success"`
	ElapsedMS int64        `json:"elapsedMs"`
}

// Callback receives per-step events.
type Callback interface {
	OnStepStart(ctx context.Context, index int, step Step)
	OnStepEnd(ctx context.Context, res StepResult)
}

// Runner executes chains against a tool collection.
type Runner struct {
	col *tools.Collection
	cb  Callback
}

// Option customizes a runner.
type Option func(*Runner)

// WithCallback attaches a per-step callback.
func WithCallback(cb Callback) Option {
	return func(r *Runner) {
		r.cb = cb
	}
}

// NewRunner creates a chain runner over the collection.
func NewRunner(col *tools.Collection, opts ...Option) *Runner {
	r := &Runner{col: col}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the steps strictly in order. A step failure does not abort
// the chain: orchestration is best effort and always proceeds to
// completion, with later steps referencing a failed step failing
// deterministically. Only the aggregate Success flag signals overall
// failure.
func (r *Runner) Run(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || len(req.Steps) == 0 {
		return nil, errors.New("chain requires at least one step")
	}

	start := time.Now()
	res := &Result{Success: true}

	// doc accumulates recorded step results keyed stepN, plus the run
	// context, and backs every template lookup.
	doc := []byte(`{}`)
	if len(req.Context) > 0 {
		doc, _ = sjson.SetBytes(doc, "context", req.Context)
	}

	for i, step := range req.Steps {
		if r.cb != nil {
			r.cb.OnStepStart(ctx, i, step)
		}
		sr := r.runStep(ctx, i, step, doc)

		key := fmt.Sprintf("step%d", i)
		updated, err := sjson.SetBytes(doc, key, sr)
		if err != nil {
			// A result the document cannot hold fails the step, so
			// later references report the failure rather than a
			// missing record.
			sr.Success = false
			sr.Result = nil
			sr.Error = errors.WithMessage(err, "failed to record step result").Error()
			updated, _ = sjson.SetBytes(doc, key, sr)
		}
		doc = updated

		if r.cb != nil {
			r.cb.OnStepEnd(ctx, sr)
		}

		res.Steps = append(res.Steps, sr)
		if !sr.Skipped && !sr.Success {
			res.Success = false
		}

		logger.ContextKV(ctx, xlog.DEBUG,
			"step", i,
			"tool", step.Tool,
			"success", sr.Success,
			"skipped", sr.Skipped,
		)
	}

	res.ElapsedMS = time.Since(start).Milliseconds()
	metricskey.PerfChainRun.MeasureSince(start)
	if res.Success {
		metricskey.StatsChainRunsSucceeded.IncrCounter(1)
	} else {
		metricskey.StatsChainRunsFailed.IncrCounter(1)
	}
	return res, nil
}

func (r *Runner) runStep(ctx context.Context, index int, step Step, doc []byte) StepResult {
	sr := StepResult{Index: index, Name: step.Name}

	// The condition is evaluated before parameter resolution, so a step
	// guarded against a missing upstream value skips instead of failing
	// on its own parameter references.
	if step.Condition != "" {
		ok, err := evalCondition(step.Condition, doc)
		if err != nil {
			sr.Error = err.Error()
			return sr
		}
		if !ok {
			sr.Skipped = true
			metricskey.StatsChainStepsSkipped.IncrCounter(1, step.Tool)
			return sr
		}
	}

	params, err := resolveParameters(step.Parameters, doc)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}

	tool := r.col.Get(step.Tool)
	if tool == nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, step.Tool)
		sr.Error = errors.WithMessagef(tools.ErrToolNotFound, "%q", step.Tool).Error()
		return sr
	}

	result, err := tool.Execute(ctx, params)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	sr.Success = true
	sr.Result = result
	return sr
}
