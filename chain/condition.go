package chain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var condRegex = regexp.MustCompile(`^(.+?)\s*(==|!=|>=|<=|>|<)\s*(.+)$`)

// evalCondition evaluates a step condition: either a bare templated value
// judged for truthiness, or `<operand> <op> <operand>` with one of
// ==, !=, >, >=, <, <=. Template references resolve against the results
// document the same way parameter references do; an unresolvable
// reference is an error, not a false.
func evalCondition(cond string, doc []byte) (bool, error) {
	cond = strings.TrimSpace(cond)

	// Match the comparison outside of template braces: mask references
	// first so operators inside a path cannot split the expression.
	masked := refRegex.ReplaceAllStringFunc(cond, func(m string) string {
		return strings.Repeat("_", len(m))
	})
	m := condRegex.FindStringSubmatchIndex(masked)
	if m == nil {
		v, err := resolveString(cond, doc)
		if err != nil {
			return false, err
		}
		return truthy(v), nil
	}

	lhs := strings.TrimSpace(cond[m[2]:m[3]])
	op := cond[m[4]:m[5]]
	rhs := strings.TrimSpace(cond[m[6]:m[7]])

	lv, err := resolveOperand(lhs, doc)
	if err != nil {
		return false, err
	}
	rv, err := resolveOperand(rhs, doc)
	if err != nil {
		return false, err
	}
	return compare(lv, op, rv)
}

// resolveOperand resolves a templated operand, or parses a literal:
// numbers, booleans, null, quoted strings, or bare words.
func resolveOperand(s string, doc []byte) (any, error) {
	if refRegex.MatchString(s) {
		return resolveString(s, doc)
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1], nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, nil
	}
	return s, nil
}

func compare(lv any, op string, rv any) (bool, error) {
	lf, lok := toFloat(lv)
	rf, rok := toFloat(rv)

	switch op {
	case "==", "!=":
		var eq bool
		if lok && rok {
			eq = lf == rf
		} else {
			eq = stringify(lv) == stringify(rv)
		}
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil
	case ">", ">=", "<", "<=":
		if !lok || !rok {
			return false, errors.Errorf("cannot order non-numeric values %q and %q", stringify(lv), stringify(rv))
		}
		switch op {
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		case "<":
			return lf < rf, nil
		default:
			return lf <= rf, nil
		}
	default:
		return false, errors.Errorf("unsupported operator %q", op)
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != "" && val != "false" && val != "0"
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
