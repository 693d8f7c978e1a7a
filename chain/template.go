package chain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

var (
	refRegex     = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
	indexRegex   = regexp.MustCompile(`\[(\d+)\]`)
	stepRefRegex = regexp.MustCompile(`^step\d+$`)
)

// resolveParameters resolves every template reference inside the step's
// parameter values. Unresolved references are errors, never silent empty
// substitutions.
func resolveParameters(params map[string]any, doc []byte) (map[string]any, error) {
	if len(params) == 0 {
		return map[string]any{}, nil
	}
	resolved := make(map[string]any, len(params))
	for name, v := range params {
		rv, err := resolveValue(v, doc)
		if err != nil {
			return nil, err
		}
		resolved[name] = rv
	}
	return resolved, nil
}

func resolveValue(v any, doc []byte) (any, error) {
	switch val := v.(type) {
	case string:
		return resolveString(val, doc)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			rv, err := resolveValue(child, doc)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			rv, err := resolveValue(child, doc)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

// resolveString resolves template references in one string value. A
// string that is exactly one reference keeps the referenced value's type;
// embedded references interpolate as text.
func resolveString(s string, doc []byte) (any, error) {
	matches := refRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	// whole-string single reference keeps the typed value
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		ref := strings.TrimSpace(s[matches[0][2]:matches[0][3]])
		return lookupRef(ref, doc)
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		ref := strings.TrimSpace(s[m[2]:m[3]])
		v, err := lookupRef(ref, doc)
		if err != nil {
			return nil, err
		}
		b.WriteString(stringify(v))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// lookupRef resolves one reference like step0.result.items[0].id or
// context.account_id against the accumulated results document.
func lookupRef(ref string, doc []byte) (any, error) {
	path := indexRegex.ReplaceAllString(ref, ".$1")
	head, _, _ := strings.Cut(path, ".")

	switch {
	case head == "context":
		res := gjson.GetBytes(doc, path)
		if !res.Exists() {
			return nil, errors.Errorf("unresolved reference %q: context value not found", ref)
		}
		return res.Value(), nil
	case stepRefRegex.MatchString(head):
		stepDoc := gjson.GetBytes(doc, head)
		if !stepDoc.Exists() {
			return nil, errors.Errorf("unresolved reference %q: step %q has no recorded result", ref, head)
		}
		if stepDoc.Get("skipped").Bool() {
			return nil, errors.Errorf("unresolved reference %q: step %q was skipped", ref, head)
		}
		if !stepDoc.Get("success").Bool() {
			return nil, errors.Errorf("unresolved reference %q: step %q failed", ref, head)
		}
		res := gjson.GetBytes(doc, path)
		if !res.Exists() {
			return nil, errors.Errorf("unresolved reference %q: no value at path", ref)
		}
		return res.Value(), nil
	default:
		return nil, errors.Errorf("unresolved reference %q: expected stepN or context prefix", ref)
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		bs, _ := json.Marshal(val)
		return string(bs)
	}
}
