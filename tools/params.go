package tools

import (
	"slices"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Parameters describes the arguments a tool accepts: an ordered mapping
// from parameter name to a JSON Schema descriptor, plus the set of
// required names. A Parameters instance is treated as immutable once a
// tool is constructed; schema overrides produce a new instance.
type Parameters struct {
	Type       string                                             `json:"type"`
	Properties *orderedmap.OrderedMap[string, *jsonschema.Schema] `json:"properties"`
	Required   []string                                           `json:"required,omitempty"`
}

// NewParameters creates an empty object schema.
func NewParameters() *Parameters {
	return &Parameters{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
}

// WithProperty adds a property descriptor and returns the receiver for
// chaining during construction.
func (p *Parameters) WithProperty(name string, s *jsonschema.Schema, required bool) *Parameters {
	p.Properties.Set(name, s)
	if required && !slices.Contains(p.Required, name) {
		p.Required = append(p.Required, name)
	}
	return p
}

// Property returns the descriptor for the named parameter.
func (p *Parameters) Property(name string) (*jsonschema.Schema, bool) {
	return p.Properties.Get(name)
}

// IsRequired reports whether the named parameter is required.
func (p *Parameters) IsRequired(name string) bool {
	return slices.Contains(p.Required, name)
}

// Names returns the parameter names in declaration order.
func (p *Parameters) Names() []string {
	names := make([]string, 0, p.Properties.Len())
	for pair := p.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Clone returns a deep enough copy: the property map and required list are
// owned by the clone, the descriptors are shared.
func (p *Parameters) Clone() *Parameters {
	np := NewParameters()
	for pair := p.Properties.Oldest(); pair != nil; pair = pair.Next() {
		np.Properties.Set(pair.Key, pair.Value)
	}
	np.Required = slices.Clone(p.Required)
	return np
}

// WithoutProperties returns a new Parameters with the named properties
// removed and the required list recomputed for the surviving set.
func (p *Parameters) WithoutProperties(names ...string) *Parameters {
	np := p.Clone()
	for _, name := range names {
		np.Properties.Delete(name)
	}
	np.Required = slices.DeleteFunc(np.Required, func(r string) bool {
		_, ok := np.Properties.Get(r)
		return !ok
	})
	return np
}
