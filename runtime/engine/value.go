// Package engine holds the component-call engine: the shared and fresh
// store model, function resolution, the value-conversion layer between
// JSON and typed WIT values, and concurrent dispatch of wasi:cli/run
// across a component set. Grounded on
// runtime/src/runtime/{mod,wasm_instance,parsing,output}.rs.
package engine

import (
	"fmt"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component/wit"
)

// Value is this engine's in-process representation of a typed WIT value.
// It is deliberately just Go's native types rather than a tagged union:
// bool, the sized int/uint/float kinds, string (string and char alike),
// []Value (list and tuple), map[string]any (record, keyed by field name),
// string (enum case name), []string (flags), or nil (the "none" case of
// an option).
type Value = any

// FromJSON converts a decoded JSON value into a Value typed according to
// ty, grounded on runtime/src/runtime/parsing.rs's json_value_to_val and
// json_value_to_val_typedef. Variant, result, resource, future, and stream
// types are not supported as call inputs, matching the original's
// unsupported-kind rejection.
func FromJSON(value any, ty wit.Type) (Value, error) {
	switch ty.Kind {
	case wit.KindString:
		s, ok := value.(string)
		if !ok {
			return nil, malformed("expected string")
		}
		return s, nil
	case wit.KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, malformed("expected bool")
		}
		return b, nil
	case wit.KindU8, wit.KindU16, wit.KindU32, wit.KindU64:
		n, err := jsonToUint(value)
		if err != nil {
			return nil, err
		}
		return n, nil
	case wit.KindS8, wit.KindS16, wit.KindS32, wit.KindS64:
		n, err := jsonToInt(value)
		if err != nil {
			return nil, err
		}
		return n, nil
	case wit.KindF32, wit.KindF64:
		n, err := jsonToFloat(value)
		if err != nil {
			return nil, err
		}
		return n, nil
	case wit.KindChar:
		s, ok := value.(string)
		if !ok {
			return nil, malformed("expected string for char")
		}
		runes := []rune(s)
		if len(runes) != 1 {
			return nil, malformed("expected a single character")
		}
		return string(runes[0]), nil
	case wit.KindRecord:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, malformed("expected JSON object for record")
		}
		fields := make(map[string]any, len(ty.Fields))
		for _, field := range ty.Fields {
			raw, present := obj[field.Name]
			if !present {
				return nil, malformed(fmt.Sprintf("missing field %q", field.Name))
			}
			v, err := FromJSON(raw, field.Type)
			if err != nil {
				return nil, err
			}
			fields[field.Name] = v
		}
		return fields, nil
	case wit.KindList:
		arr, ok := value.([]any)
		if !ok {
			return nil, malformed("expected JSON array for list")
		}
		out := make([]Value, 0, len(arr))
		for _, elem := range arr {
			v, err := FromJSON(elem, *ty.Elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case wit.KindTuple:
		arr, ok := value.([]any)
		if !ok {
			return nil, malformed("expected JSON array for tuple")
		}
		if len(arr) != len(ty.Tuple) {
			return nil, malformed(fmt.Sprintf("tuple has %d elements, got %d", len(ty.Tuple), len(arr)))
		}
		out := make([]Value, len(arr))
		for i, elem := range arr {
			v, err := FromJSON(elem, ty.Tuple[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case wit.KindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, malformed("expected string for enum")
		}
		if !containsString(ty.Cases, s) {
			return nil, malformed(fmt.Sprintf("invalid enum value %q, expected one of: %v", s, ty.Cases))
		}
		return s, nil
	case wit.KindOption:
		if value == nil {
			return nil, nil
		}
		return FromJSON(value, *ty.Elem)
	case wit.KindFlags:
		arr, ok := value.([]any)
		if !ok {
			return nil, malformed("expected JSON array for flags")
		}
		names := make([]string, 0, len(arr))
		for _, elem := range arr {
			s, ok := elem.(string)
			if !ok {
				return nil, malformed("expected string for flag name")
			}
			if !containsString(ty.Flags, s) {
				return nil, malformed(fmt.Sprintf("invalid flag %q", s))
			}
			names = append(names, s)
		}
		return names, nil
	default:
		return nil, malformed(fmt.Sprintf("unsupported input type: %s", ty.Kind))
	}
}

// ToJSON converts an engine Value produced by a guest call back into a
// JSON-representable value, typed according to ty. Unlike the original
// Rust lifting path (Val::Record(_) => todo!()), record is handled
// uniformly here: it always lowers to a JSON object keyed by field name.
func ToJSON(value Value, ty wit.Type) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch ty.Kind {
	case wit.KindRecord:
		fields, ok := value.(map[string]any)
		if !ok {
			return nil, malformed("expected record value")
		}
		out := make(map[string]any, len(fields))
		for _, field := range ty.Fields {
			v, ok := fields[field.Name]
			if !ok {
				continue
			}
			converted, err := ToJSON(v, field.Type)
			if err != nil {
				return nil, err
			}
			out[field.Name] = converted
		}
		return out, nil
	case wit.KindList, wit.KindTuple:
		values, ok := value.([]Value)
		if !ok {
			return nil, malformed("expected list/tuple value")
		}
		elemType := ty.Elem
		out := make([]any, 0, len(values))
		for i, v := range values {
			t := elemType
			if ty.Kind == wit.KindTuple {
				t = &ty.Tuple[i]
			}
			converted, err := ToJSON(v, *t)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	case wit.KindOption:
		if value == nil {
			return nil, nil
		}
		return ToJSON(value, *ty.Elem)
	default:
		// Primitives, enum, and flags already hold their JSON-ready Go
		// representation.
		return value, nil
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func jsonToUint(value any) (uint64, error) {
	switch n := value.(type) {
	case float64:
		if n < 0 {
			return 0, malformed("expected unsigned integer")
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, malformed("expected unsigned integer")
	}
}

func jsonToInt(value any) (int64, error) {
	switch n := value.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, malformed("expected integer")
	}
}

func jsonToFloat(value any) (float64, error) {
	n, ok := value.(float64)
	if !ok {
		return 0, malformed("expected number")
	}
	return n, nil
}

func malformed(msg string) error {
	return asterror.New(asterror.KindMalformedInput, msg)
}
