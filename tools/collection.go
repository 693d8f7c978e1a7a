package tools

import (
	"path"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/pkg/llmutils"
	"github.com/effective-security/xlog"
)

// WarnFunc receives collection warnings. Injectable so tests can assert
// on warnings without capturing process output.
type WarnFunc func(msg string)

// Collection is an ordered, queryable set of tools.
type Collection struct {
	list  []*Tool
	index map[string]*Tool
	warn  WarnFunc
}

// CollectionOption customizes a collection.
type CollectionOption func(*Collection)

// WithWarnFunc replaces the default warning sink.
func WithWarnFunc(warn WarnFunc) CollectionOption {
	return func(c *Collection) {
		c.warn = warn
	}
}

// NewCollection creates a collection from the given tools. Names must be
// unique within the collection.
func NewCollection(opts ...CollectionOption) *Collection {
	c := &Collection{
		index: map[string]*Tool{},
		warn: func(msg string) {
			logger.KV(xlog.WARNING, "reason", msg)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends a tool, rejecting duplicate names.
func (c *Collection) Add(list ...*Tool) error {
	for _, t := range list {
		if _, ok := c.index[t.name]; ok {
			return errors.Errorf("duplicate tool name: %q", t.name)
		}
		c.list = append(c.list, t)
		c.index[t.name] = t
	}
	return nil
}

// Get returns the named tool, or nil when absent.
func (c *Collection) Get(name string) *Tool {
	return c.index[name]
}

// Len returns the number of tools.
func (c *Collection) Len() int {
	return len(c.list)
}

// Names returns tool names in insertion order.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.list))
	for _, t := range c.list {
		names = append(names, t.name)
	}
	return names
}

// ToArray returns the tools in insertion order. The slice is owned by the
// caller; the tools are shared.
func (c *Collection) ToArray() []*Tool {
	return slices.Clone(c.list)
}

// Filter returns a new collection with the tools whose names match any of
// the glob patterns. Calling Filter with no patterns keeps everything and
// warns, since it is almost always a caller mistake.
func (c *Collection) Filter(patterns ...string) *Collection {
	nc := NewCollection(WithWarnFunc(c.warn))
	if len(patterns) == 0 {
		c.warn("no filter patterns supplied; returning all tools")
		_ = nc.Add(c.list...)
		return nc
	}
	for _, t := range c.list {
		for _, pattern := range patterns {
			if ok, _ := path.Match(pattern, t.name); ok {
				_ = nc.Add(t)
				break
			}
		}
	}
	return nc
}

// ProviderFunctions exports every tool as a provider function descriptor.
func (c *Collection) ProviderFunctions() []*ProviderFunction {
	res := make([]*ProviderFunction, 0, len(c.list))
	for _, t := range c.list {
		res = append(res, t.ToProviderFunction())
	}
	return res
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// Descriptions returns a JSON summary of the collection, suitable for
// embedding in a prompt.
func (c *Collection) Descriptions() string {
	var d toolsDescription
	for _, t := range c.list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        t.name,
			Description: t.description,
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}
