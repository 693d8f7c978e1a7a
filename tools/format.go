package tools

import (
	"context"
)

// ProviderFunction is the provider-independent function-calling
// descriptor: name, description, and parameter schema only, no executable
// reference.
type ProviderFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  *Parameters `json:"parameters"`
}

// ToProviderFunction renders the tool as a function-calling descriptor.
func (t *Tool) ToProviderFunction() *ProviderFunction {
	return &ProviderFunction{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.params,
	}
}

// AgentToolOptions controls what the agent-framework descriptor carries.
type AgentToolOptions struct {
	// Executable attaches an execute closure bound to this tool.
	Executable bool
	// Execution attaches the resolved request shape for introspection.
	// Honored only for tools that expose execution metadata.
	Execution bool
}

// AgentTool is the agent-framework descriptor of a tool.
type AgentTool struct {
	Name        string                                                    `json:"name"`
	Description string                                                    `json:"description,omitempty"`
	Parameters  *Parameters                                               `json:"parameters"`
	Execute     func(ctx context.Context, args RawArguments) (any, error) `json:"-"`
	Execution   *DryRunResult                                             `json:"execution,omitempty"`
}

// ToAgentTool renders the tool for an agent framework, optionally with an
// executable closure and the execution metadata. Tools constructed with
// WithExecutionMetadata(false) never leak their request shape, whatever
// the options say.
func (t *Tool) ToAgentTool(opts AgentToolOptions) (*AgentTool, error) {
	at := &AgentTool{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.params,
	}
	if opts.Executable {
		at.Execute = func(ctx context.Context, args RawArguments) (any, error) {
			return t.Execute(ctx, args)
		}
	}
	if opts.Execution && t.exposeExecution && t.config.Kind == KindHTTP {
		plan, err := buildRequestPlan(t.config.HTTP, map[string]any{}, t.headers)
		if err != nil {
			return nil, err
		}
		at.Execution = plan.dryRun()
	}
	return at, nil
}
