package chain

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/pkg/schema"
	"github.com/effective-security/agentools/tools"
)

// ToolName is the name of the local chain tool.
const ToolName = "execute_chain"

// Tool exposes the runner as a local tool, so an agent can submit a
// multi-step plan as one invocation.
func (r *Runner) Tool() (*tools.Tool, error) {
	params, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, err
	}

	return tools.New(
		ToolName,
		"Executes an ordered list of tool invocations with data flowing from one step's result into the next step's arguments.",
		params,
		tools.NewLocalConfig(tools.LocalConfig{
			ID:          ToolName,
			Description: "sequential tool chain orchestration",
			Run:         r.run,
		}),
	)
}

func (r *Runner) run(ctx context.Context, args map[string]any) (any, error) {
	var req Request
	bs, err := json.Marshal(args)
	if err != nil {
		return nil, errors.Wrap(err, "invalid chain request")
	}
	if err := json.Unmarshal(bs, &req); err != nil {
		return nil, errors.Wrap(err, "invalid chain request")
	}
	return r.Run(ctx, &req)
}
