package store

import (
	"sort"
	"strings"
	"time"
)

// Document is a nested JSON-shaped record. Keys use the canonical camelCase
// field names; nested objects are Document or map[string]interface{}.
type Document map[string]interface{}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]interface{}:
		return m, true
	}
	return nil, false
}

// Set assigns value at a dotted path, creating intermediate objects.
// A non-object intermediate is replaced.
func (d Document) Set(path string, value interface{}) {
	parts := strings.Split(path, ".")
	current := map[string]interface{}(d)
	for _, p := range parts[:len(parts)-1] {
		next, ok := asMap(current[p])
		if !ok {
			next = map[string]interface{}{}
			current[p] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// Get returns the value at a dotted path.
func (d Document) Get(path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	current := map[string]interface{}(d)
	for i, p := range parts {
		v, ok := current[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		current, ok = asMap(v)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// String returns the value at path as a trimmed string, "" when absent or not textual.
func (d Document) String(path string) string {
	v, ok := d.Get(path)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case interface{ String() string }:
		return strings.TrimSpace(s.String())
	}
	return ""
}

// Time returns the value at path when it holds a time.Time.
func (d Document) Time(path string) (time.Time, bool) {
	v, ok := d.Get(path)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t != nil {
			return *t, !t.IsZero()
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Has reports whether path holds a non-empty value.
func (d Document) Has(path string) bool {
	v, ok := d.Get(path)
	return ok && !IsEmpty(v)
}

// Flatten returns every leaf keyed by its dotted path.
func (d Document) Flatten() map[string]interface{} {
	out := map[string]interface{}{}
	flattenInto(out, "", d)
	return out
}

func flattenInto(out map[string]interface{}, prefix string, m map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := asMap(v); ok && len(child) > 0 {
			flattenInto(out, key, child)
			continue
		}
		out[key] = v
	}
}

// Paths returns the flattened leaf paths in sorted order.
func (d Document) Paths() []string {
	flat := d.Flatten()
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone deep-copies nested objects; leaf values are shared.
func (d Document) Clone() Document {
	return Document(cloneMap(d))
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if child, ok := asMap(v); ok {
			out[k] = cloneMap(child)
			continue
		}
		if list, ok := v.([]string); ok {
			out[k] = append([]string(nil), list...)
			continue
		}
		out[k] = v
	}
	return out
}

// IsEmpty treats nil, blank strings, zero times and empty objects as empty.
func IsEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case time.Time:
		return t.IsZero()
	case []string:
		return len(t) == 0
	}
	if m, ok := asMap(v); ok {
		for _, child := range m {
			if !IsEmpty(child) {
				return false
			}
		}
		return true
	}
	return false
}
