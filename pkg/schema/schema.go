// Package schema reflects Go types into tool parameter definitions, so a
// typed request struct can serve as the single source of truth for a
// tool's schema.
package schema

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentools/tools"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	cache   = make(map[reflect.Type]*tools.Parameters)
	cacheMu sync.Mutex
)

// New reflects the type into tool parameters. Results are cached per
// type; the returned value is shared and must not be modified.
func New(t reflect.Type) (*tools.Parameters, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if p, ok := cache[t]; ok {
		return p, nil
	}

	p, err := build(t)
	if err != nil {
		return nil, err
	}
	cache[t] = p

	return p, nil
}

// MustNew is New for statically known types, where a reflection failure
// is a programming error.
func MustNew(t reflect.Type) *tools.Parameters {
	p, err := New(t)
	if err != nil {
		panic(err)
	}
	return p
}

func build(t reflect.Type) (*tools.Parameters, error) {
	root := reflectType(t)

	if err := resolveRefs(root.Properties, root.Definitions); err != nil {
		return nil, errors.WithMessagef(err, "type %s", t.Name())
	}

	return &tools.Parameters{
		Type:       "object",
		Properties: root.Properties,
		Required:   root.Required,
	}, nil
}

// resolveRefs inlines $defs references so the resulting schema is
// self-contained, the shape providers expect for function parameters.
func resolveRefs(props *orderedmap.OrderedMap[string, *jsonschema.Schema], defs jsonschema.Definitions) error {
	if props == nil {
		return nil
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		if child.Ref != "" {
			name := strings.TrimPrefix(child.Ref, "#/$defs/")
			def, ok := defs[name]
			if !ok {
				return errors.Errorf("unresolved schema reference %q", child.Ref)
			}
			pair.Value = def
			child = def
		}
		if child.Items != nil && child.Items.Ref != "" {
			name := strings.TrimPrefix(child.Items.Ref, "#/$defs/")
			def, ok := defs[name]
			if !ok {
				return errors.Errorf("unresolved schema reference %q", child.Items.Ref)
			}
			child.Items = def
		}
		if child.Items != nil {
			if err := resolveRefs(child.Items.Properties, defs); err != nil {
				return err
			}
		}
		if err := resolveRefs(child.Properties, defs); err != nil {
			return err
		}
	}
	return nil
}

func reflectType(t reflect.Type) *jsonschema.Schema {
	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true
	r.AllowAdditionalProperties = true

	// Struct names may collide across packages, which would produce a
	// wrong $ref; disambiguate by hashing the full package path.
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			fullname := t.PkgPath() + "/" + t.Name()
			name = t.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}
