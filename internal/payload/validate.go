package payload

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Mode selects how scalar type mismatches are handled.
type Mode int

const (
	// ModeCoerce converts compatible scalars to the declared type, for
	// example "120" to 120 for an integer field.
	ModeCoerce Mode = iota
	// ModeStrict reports any scalar of the wrong JSON type as an error.
	ModeStrict
)

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "coerce":
		return ModeCoerce, nil
	case "strict":
		return ModeStrict, nil
	default:
		return ModeCoerce, fmt.Errorf("unknown payload mode %q", s)
	}
}

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "coerce"
}

// FieldError describes why one location of a payload failed.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validate checks value, decoded with json.Decoder.UseNumber, against n and
// returns the canonical value. Every failing location is reported; the
// returned value is only meaningful when the error list is empty.
func Validate(n *Node, value any, mode Mode) (any, []FieldError) {
	var errs []FieldError
	out := validate(n, value, mode, "", &errs)
	return out, errs
}

func validate(n *Node, value any, mode Mode, path string, errs *[]FieldError) any {
	fail := func(format string, args ...any) any {
		*errs = append(*errs, FieldError{Path: pathOrRoot(path), Message: fmt.Sprintf(format, args...)})
		return nil
	}
	if value == nil {
		return fail("must not be null")
	}
	switch n.Kind {
	case KindString:
		switch v := value.(type) {
		case string:
			return v
		case json.Number:
			if mode == ModeCoerce {
				return v.String()
			}
		case bool:
			if mode == ModeCoerce {
				return strconv.FormatBool(v)
			}
		}
		return fail("expected string, got %s", jsonType(value))

	case KindInteger:
		switch v := value.(type) {
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return i
			}
			if mode == ModeCoerce {
				if f, err := v.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
					return int64(f)
				}
			}
			return fail("expected integer, got number %s", v)
		case string:
			if mode == ModeCoerce {
				if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
					return i
				}
				return fail("value %q is not a valid integer", v)
			}
		}
		return fail("expected integer, got %s", jsonType(value))

	case KindNumber:
		switch v := value.(type) {
		case json.Number:
			if _, err := v.Float64(); err == nil {
				return v
			}
			return fail("value %s is not a valid number", v)
		case string:
			if mode == ModeCoerce {
				f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
					return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
				}
				return fail("value %q is not a valid number", v)
			}
		}
		return fail("expected number, got %s", jsonType(value))

	case KindBoolean:
		switch v := value.(type) {
		case bool:
			return v
		case string:
			if mode == ModeCoerce {
				if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
					return b
				}
				return fail("value %q is not a valid boolean", v)
			}
		}
		return fail("expected boolean, got %s", jsonType(value))

	case KindArray:
		items, ok := value.([]any)
		if !ok {
			return fail("expected array, got %s", jsonType(value))
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = validate(n.Items, item, mode, fmt.Sprintf("%s[%d]", path, i), errs)
		}
		return out

	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return fail("expected object, got %s", jsonType(value))
		}
		return validateObject(n, obj, mode, path, errs)
	}
	return fail("unsupported schema type %q", n.Kind)
}

func validateObject(n *Node, obj map[string]any, mode Mode, path string, errs *[]FieldError) any {
	out := make(map[string]any, len(obj))
	required := make(map[string]bool, len(n.Required))
	for _, name := range n.Required {
		required[name] = true
	}

	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child, ok := n.Properties[name]
		if !ok {
			*errs = append(*errs, FieldError{Path: join(path, name), Message: "extra field not permitted"})
			continue
		}
		v := obj[name]
		if v == nil && !required[name] {
			out[name] = nil
			continue
		}
		out[name] = validate(child, v, mode, join(path, name), errs)
	}
	for _, name := range n.Required {
		if _, ok := obj[name]; !ok {
			*errs = append(*errs, FieldError{Path: join(path, name), Message: "field required"})
		}
	}
	return out
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
