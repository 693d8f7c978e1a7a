package callbacks_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/callbacks"
	"github.com/effective-security/agentools/chain"
	"github.com/effective-security/agentools/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoTool(t *testing.T) *tools.Tool {
	t.Helper()
	tool, err := tools.New("echo", "Echo the arguments back.", nil,
		tools.NewLocalConfig(tools.LocalConfig{
			ID: "echo",
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return args, nil
			},
		}))
	require.NoError(t, err)
	return tool
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := callbacks.NewPrinter(&buf, callbacks.ModeVerbose)
	tool := newEchoTool(t)

	ctx := t.Context()
	p.OnToolStart(ctx, tool, map[string]any{"q": "hello"})
	p.OnToolEnd(ctx, tool, map[string]any{"q": "hello"})
	p.OnToolError(ctx, tool, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "Tool Start: echo")
	assert.Contains(t, out, `"q":"hello"`)
	assert.Contains(t, out, "Tool End: echo")
	assert.Contains(t, out, `Result: {"q":"hello"}`)
	assert.Contains(t, out, "Tool Error: echo: boom")
}

func TestPrinterDefaultModeOmitsResult(t *testing.T) {
	var buf bytes.Buffer
	p := callbacks.NewPrinter(&buf, callbacks.ModeDefault)
	p.OnToolEnd(t.Context(), newEchoTool(t), map[string]any{"q": "hello"})
	assert.NotContains(t, buf.String(), "Result:")
}

func TestPrinterSteps(t *testing.T) {
	var buf bytes.Buffer
	p := callbacks.NewPrinter(&buf, callbacks.ModeDefault)
	ctx := t.Context()

	p.OnStepStart(ctx, 0, chain.Step{Tool: "echo"})
	p.OnStepEnd(ctx, chain.StepResult{Index: 0, Success: true})
	p.OnStepEnd(ctx, chain.StepResult{Index: 1, Skipped: true})
	p.OnStepEnd(ctx, chain.StepResult{Index: 2, Error: "boom"})

	out := buf.String()
	assert.Contains(t, out, "Step 0 Start: echo")
	assert.Contains(t, out, "Step 0 End")
	assert.Contains(t, out, "Step 1 Skipped")
	assert.Contains(t, out, "Step 2 Failed: boom")
}

func TestFanout(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	f := callbacks.NewFanout(callbacks.NewPrinter(&buf1, callbacks.ModeDefault))
	f.Add(callbacks.NewPrinter(&buf2, callbacks.ModeDefault))

	f.OnToolStart(t.Context(), newEchoTool(t), nil)
	assert.Contains(t, buf1.String(), "Tool Start: echo")
	assert.Contains(t, buf2.String(), "Tool Start: echo")
}

func TestToolCallbackWiring(t *testing.T) {
	var buf bytes.Buffer
	tool := newEchoTool(t)

	_, err := tool.Execute(t.Context(), map[string]any{"q": "hi"},
		tools.WithCallback(callbacks.NewPrinter(&buf, callbacks.ModeDefault)))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Tool Start: echo")
	assert.Contains(t, buf.String(), "Tool End: echo")
}
