package core

import (
	"reflect"
	"strings"
)

// LookupPath resolves a dotted path such as "author.name" through nested maps.
// The second return value is false when any segment is missing.
func LookupPath(metadata map[string]any, path string) (any, bool) {
	var current any = metadata
	for _, segment := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// MatchesFilters reports whether metadata satisfies every dotted-path equality
// filter. A missing path never matches. An empty filter set matches everything.
func MatchesFilters(metadata map[string]any, filters map[string]any) bool {
	for path, want := range filters {
		got, ok := LookupPath(metadata, path)
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// valuesEqual compares filter values, treating all numeric kinds as float64
// so values decoded from JSON or YAML compare equal to Go literals.
func valuesEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
