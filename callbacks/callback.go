// Package callbacks provides observability collaborators for tool and
// chain execution.
package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/agentools/chain"
	"github.com/effective-security/agentools/pkg/llmutils"
	"github.com/effective-security/agentools/tools"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ tools.Callback = (*Noop)(nil)
	_ tools.Callback = (*Printer)(nil)
	_ tools.Callback = (*PackageLogger)(nil)
	_ tools.Callback = (*Fanout)(nil)
	_ chain.Callback = (*Printer)(nil)
	_ chain.Callback = (*PackageLogger)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []tools.Callback
}

func NewFanout(callbacks ...tools.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback tools.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnToolStart(ctx context.Context, tool tools.ITool, args map[string]any) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, tool, args)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, result any) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, tool, result)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, tool tools.ITool, err error) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, tool, err)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnToolStart(ctx context.Context, tool tools.ITool, args map[string]any) {}
func (l *Noop) OnToolEnd(ctx context.Context, tool tools.ITool, result any)            {}
func (l *Noop) OnToolError(ctx context.Context, tool tools.ITool, err error)           {}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnToolStart(ctx context.Context, tool tools.ITool, args map[string]any) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s\n", tool.Name())
	fmt.Fprintf(l.Out, "Args: %s\n", llmutils.ToJSON(args))
}

func (l *Printer) OnToolEnd(ctx context.Context, tool tools.ITool, result any) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool End: %s\n", tool.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Result: %s\n", llmutils.ToJSON(result))
	}
}

func (l *Printer) OnToolError(ctx context.Context, tool tools.ITool, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", tool.Name(), err.Error())
}

func (l *Printer) OnStepStart(ctx context.Context, index int, step chain.Step) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Step %d Start: %s\n", index, step.Tool)
}

func (l *Printer) OnStepEnd(ctx context.Context, res chain.StepResult) {
	l.lock.Lock()
	defer l.lock.Unlock()
	switch {
	case res.Skipped:
		fmt.Fprintf(l.Out, "Step %d Skipped\n", res.Index)
	case res.Success:
		fmt.Fprintf(l.Out, "Step %d End\n", res.Index)
	default:
		fmt.Fprintf(l.Out, "Step %d Failed: %s\n", res.Index, res.Error)
	}
}

// PackageLogger is a callback handler that logs events through xlog.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnToolStart(ctx context.Context, tool tools.ITool, args map[string]any) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, tool tools.ITool, result any) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, tool tools.ITool, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnStepStart(ctx context.Context, index int, step chain.Step) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "step_start",
		"step", index,
		"tool", step.Tool,
	)
}

func (l *PackageLogger) OnStepEnd(ctx context.Context, res chain.StepResult) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "step_end",
		"step", res.Index,
		"success", res.Success,
		"skipped", res.Skipped,
	)
}
