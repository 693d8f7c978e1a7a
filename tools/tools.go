// Package tools provides the tool execution engine: declarative operation
// descriptions turned into HTTP or relay requests, argument transformation,
// and an ordered, queryable collection of tools.
package tools

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/pkg/llmutils"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentools", "tools")

// ITool is the surface a tool exposes to agents and orchestrators.
type ITool interface {
	// Name returns the name of the tool, unique within a collection.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	Description() string
	// Parameters returns the parameters definition of the tool.
	Parameters() *Parameters

	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args RawArguments, opts ...ExecOption) (any, error)
}

// Callback receives tool execution events.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, args map[string]any)
	OnToolEnd(ctx context.Context, tool ITool, result any)
	OnToolError(ctx context.Context, tool ITool, err error)
}

// RawArguments is the caller-supplied argument payload.
// Accepted shapes: a JSON string, a map[string]any, or nil.
// Anything else is rejected before any network activity.
type RawArguments any

// NormalizeArguments converts raw caller input into an argument map.
// Strings are parsed as JSON after backtick trimming, maps are passed
// through, and nil yields an empty map.
func NormalizeArguments(raw RawArguments) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		if v == "" {
			return map[string]any{}, nil
		}
		var args map[string]any
		if err := json.Unmarshal(llmutils.CleanJSON([]byte(v)), &args); err != nil {
			return nil, errors.WithMessage(ErrInvalidArguments, "unable to parse JSON arguments")
		}
		return args, nil
	default:
		return nil, errors.WithMessagef(ErrInvalidArguments, "unsupported argument type %T", raw)
	}
}

type execOptions struct {
	dryRun   bool
	headers  map[string]string
	callback Callback
}

// ExecOption customizes a single Execute call.
type ExecOption func(*execOptions)

// WithDryRun makes Execute return the constructed request instead of
// sending it.
func WithDryRun() ExecOption {
	return func(o *execOptions) {
		o.dryRun = true
	}
}

// WithCallHeaders overrides headers for this call only, merged over the
// tool's own headers. The tool instance is not mutated.
func WithCallHeaders(h map[string]string) ExecOption {
	return func(o *execOptions) {
		o.headers = h
	}
}

// WithCallback attaches an execution callback for this call.
func WithCallback(cb Callback) ExecOption {
	return func(o *execOptions) {
		o.callback = cb
	}
}
