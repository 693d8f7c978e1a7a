package tools

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/pkg/metricskey"
	"github.com/effective-security/xlog"
)

// Tool is the unit of capability: a named, schema-described operation with
// one of three execution backends. Tools are constructed once and live for
// the lifetime of their collection; Derive clones a tool with an
// overridden schema.
type Tool struct {
	name        string
	description string
	params      *Parameters
	config      *ExecuteConfig

	// headers is replaced wholesale by SetHeaders, never mutated in
	// place, so an in-flight Execute keeps the map it read at call time.
	headers map[string]string

	client     *http.Client
	relay      RelayCaller
	preExecute PreExecuteFunc
	callback   Callback

	exposeExecution bool
}

var _ ITool = (*Tool)(nil)

// Option customizes tool construction.
type Option func(*Tool)

// WithHTTPClient sets the HTTP client used by the http backend.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Tool) {
		t.client = client
	}
}

// WithRelayCaller sets the transport used by the rpc backend.
func WithRelayCaller(rc RelayCaller) Option {
	return func(t *Tool) {
		t.relay = rc
	}
}

// WithHeaders sets the initial header map, typically the credential
// bootstrap headers.
func WithHeaders(h map[string]string) Option {
	return func(t *Tool) {
		t.headers = maps.Clone(h)
	}
}

// WithToolCallback sets the default execution callback.
func WithToolCallback(cb Callback) Option {
	return func(t *Tool) {
		t.callback = cb
	}
}

// WithExecutionMetadata controls whether format export may include the
// resolved request shape. Relay-backed tools keep this off so internal
// relay details do not leak.
func WithExecutionMetadata(expose bool) Option {
	return func(t *Tool) {
		t.exposeExecution = expose
	}
}

// New creates a tool. The execute config kind is fixed for the lifetime of
// the tool.
func New(name, description string, params *Parameters, config *ExecuteConfig, opts ...Option) (*Tool, error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}
	if config == nil {
		return nil, errors.Errorf("tool %q: execute config is required", name)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "tool %q", name)
	}
	if params == nil {
		params = NewParameters()
	}
	t := &Tool{
		name:            name,
		description:     description,
		params:          params,
		config:          config,
		headers:         map[string]string{},
		client:          http.DefaultClient,
		exposeExecution: config.Kind == KindHTTP,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name implements ITool.
func (t *Tool) Name() string {
	return t.name
}

// Description implements ITool.
func (t *Tool) Description() string {
	return t.description
}

// Parameters implements ITool.
func (t *Tool) Parameters() *Parameters {
	return t.params
}

// Config returns the execute config. Callers must not modify it.
func (t *Tool) Config() *ExecuteConfig {
	return t.config
}

// Headers returns a copy of the current header map.
func (t *Tool) Headers() map[string]string {
	return maps.Clone(t.headers)
}

// SetHeaders replaces the header map. The previous map is left intact for
// any Execute already in flight. Callers needing per-call isolation should
// use WithCallHeaders or Clone instead of racing SetHeaders against
// Execute.
func (t *Tool) SetHeaders(h map[string]string) {
	t.headers = maps.Clone(h)
}

// Clone returns a shallow copy sharing the execute config and headers,
// for callers that need per-call header isolation.
func (t *Tool) Clone() *Tool {
	nt := *t
	return &nt
}

// Execute runs the tool. Arguments are normalized once, the pre-execute
// derivation (if any) runs exactly once before request construction, and
// the backend is selected by the config kind.
func (t *Tool) Execute(ctx context.Context, raw RawArguments, opts ...ExecOption) (any, error) {
	var o execOptions
	for _, opt := range opts {
		opt(&o)
	}

	args, err := NormalizeArguments(raw)
	if err != nil {
		return nil, wrapToolError(t.name, err)
	}
	if t.preExecute != nil {
		args, err = t.runDerivation(ctx, args)
		if err != nil {
			return nil, wrapToolError(t.name, err)
		}
	}

	cb := o.callback
	if cb == nil {
		cb = t.callback
	}
	if cb != nil {
		cb.OnToolStart(ctx, t, args)
	}

	headers := maps.Clone(t.headers)
	maps.Copy(headers, o.headers)

	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, t.name)

	var res any
	switch t.config.Kind {
	case KindHTTP:
		res, err = t.executeHTTP(ctx, args, headers, o.dryRun)
	case KindRPC:
		res, err = t.executeRelay(ctx, args, headers, o.dryRun)
	case KindLocal:
		res, err = t.config.Local.Run(ctx, args)
	default:
		err = errors.Errorf("unknown execute kind: %q", t.config.Kind)
	}
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, t.name)
		err = wrapToolError(t.name, err)
		logger.ContextKV(ctx, xlog.DEBUG,
			"tool", t.name,
			"kind", t.config.Kind,
			"err", err.Error(),
		)
		if cb != nil {
			cb.OnToolError(ctx, t, err)
		}
		return nil, err
	}
	metricskey.StatsToolCallsSucceeded.IncrCounter(1, t.name)
	if cb != nil {
		cb.OnToolEnd(ctx, t, res)
	}
	return res, nil
}
