package record

import (
	"reflect"
)

// Update is a field-level change of a single record.
type Update struct {
	// ID is the stringified primary key of the record to update
	ID string `json:"id"`
	// Replace sets each field to the given value, a nil value removes the field
	Replace map[string]any `json:"replace,omitempty"`
	// Push appends values to array fields. A []any value appends all its elements.
	Push map[string]any `json:"push,omitempty"`
	// Pull removes values from array fields. A []any value removes all its elements.
	Pull map[string]any `json:"pull,omitempty"`
}

// Apply applies the update to r in place. The primary key field pk is never changed.
func (u Update) Apply(r Record, pk string) {
	for field, v := range u.Replace {
		if field == pk {
			continue
		}
		if v == nil {
			delete(r, field)
			continue
		}
		r[field] = cloneValue(v)
	}

	for field, v := range u.Push {
		if field == pk {
			continue
		}
		arr := toSlice(r[field])
		for _, e := range toSlice(v) {
			arr = append(arr, cloneValue(e))
		}
		r[field] = arr
	}

	for field, v := range u.Pull {
		if field == pk {
			continue
		}
		current, ok := r[field]
		if !ok {
			continue
		}
		remove := toSlice(v)
		kept := make([]any, 0)
		for _, e := range toSlice(current) {
			if !containsValue(remove, e) {
				kept = append(kept, e)
			}
		}
		r[field] = kept
	}
}

// toSlice returns v as a slice: nil -> empty, []any -> copy, anything else -> single element
func toSlice(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return append([]any{}, t...)
	default:
		return []any{t}
	}
}

func containsValue(values []any, v any) bool {
	for _, e := range values {
		if reflect.DeepEqual(e, v) || (isNumber(e) && isNumber(v) && Key(e) == Key(v)) {
			return true
		}
	}
	return false
}

// isNumber reports whether numbers of different Go types can be compared by their Key
func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}
