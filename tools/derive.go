package tools

import (
	"context"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
)

// OverrideFunc rewrites a tool's advertised parameter schema at derivation
// time. It receives a clone of the original schema and returns the schema
// the derived tool advertises.
type OverrideFunc func(original *Parameters) *Parameters

// PreExecuteFunc maps the caller's simplified arguments back into the
// original argument shape, immediately before request construction. It
// must produce every field the original schema requires; partial
// substitution is not acceptable.
type PreExecuteFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// DeriveConfig describes the two-stage transformation pipeline: an
// optional creation-time schema override and an optional call-time
// derivation.
type DeriveConfig struct {
	Name        string
	Description string
	Override    OverrideFunc
	PreExecute  PreExecuteFunc
}

// Derive clones a tool into a new instance with overridden parameters.
// The derived tool shares the original's execute config and headers by
// reference but owns its own schema and derivation function. The override
// is applied exactly once, here; the pre-execute derivation runs once per
// Execute call and is never retried.
func Derive(t *Tool, cfg DeriveConfig) (*Tool, error) {
	params := t.params
	if cfg.Override != nil {
		np := cfg.Override(t.params.Clone())
		if np == nil {
			return nil, errors.Errorf("tool %q: schema override returned nil", t.name)
		}
		// Originally-required parameters that survive the override stay
		// required, whatever the override reported.
		for _, name := range t.params.Required {
			if _, ok := np.Properties.Get(name); ok && !slices.Contains(np.Required, name) {
				np.Required = append(np.Required, name)
			}
		}
		params = np
	}

	nt := *t
	nt.params = params
	nt.preExecute = cfg.PreExecute
	if cfg.Name != "" {
		nt.name = cfg.Name
	}
	if cfg.Description != "" {
		nt.description = cfg.Description
	}
	return &nt, nil
}

func (t *Tool) runDerivation(ctx context.Context, args map[string]any) (map[string]any, error) {
	out, err := t.preExecute(ctx, args)
	if err != nil {
		var de *DerivationError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, &DerivationError{Targets: t.params.Required, Err: err}
	}
	if out == nil {
		return nil, &DerivationError{Targets: t.params.Required, Err: errors.New("derivation returned no arguments")}
	}
	return out, nil
}

// noValue is the sentinel an ExpandField target returns to be omitted.
type noValue struct{}

// NoValue marks a fan-out target as having no value: the target field is
// omitted rather than written.
var NoValue any = noValue{}

// FieldFunc derives one target field from the source field's value.
type FieldFunc func(source any) (any, error)

// ExpandField is the declarative single-stage variant: one source field
// fans out into N target fields. It is sugar over PreExecuteFunc. The
// source field must be present; a missing source fails loudly rather than
// producing a partial argument set.
func ExpandField(source string, targets map[string]FieldFunc) PreExecuteFunc {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	slices.Sort(names)

	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		v, ok := args[source]
		if !ok {
			return nil, &DerivationError{
				Source:  source,
				Targets: names,
				Err:     errors.Errorf("source field %q is not set", source),
			}
		}
		out := maps.Clone(args)
		delete(out, source)
		for _, name := range names {
			res, err := targets[name](v)
			if err != nil {
				return nil, &DerivationError{Source: source, Targets: []string{name}, Err: err}
			}
			if res == NoValue {
				continue
			}
			out[name] = res
		}
		return out, nil
	}
}
