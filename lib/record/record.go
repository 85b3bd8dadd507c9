package record

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/ValentinKolb/recfs/lib/common"
)

// DefaultPrimaryKey is the primary key field used when a type does not name one.
const DefaultPrimaryKey = "id"

// Record is a single schema-less record. After decoding, values are one of
// nil, bool, int64, uint64 (only above MaxInt64), float64, string, []byte,
// []any or map[string]any.
type Record map[string]any

// ID returns the stringified value of the primary key field pk.
// The boolean is false if the field is missing or nil.
func (r Record) ID(pk string) (string, bool) {
	v, ok := r[pk]
	if !ok || v == nil {
		return "", false
	}
	return Key(v), true
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Project returns a copy of the record reduced to the given fields. The primary
// key field pk is always kept.
func (r Record) Project(pk string, fields []string) Record {
	if len(fields) == 0 {
		return r.Clone()
	}
	out := make(Record, len(fields)+1)
	if v, ok := r[pk]; ok {
		out[pk] = cloneValue(v)
	}
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = cloneValue(v)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case Record:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []byte:
		return bytes.Clone(t)
	default:
		return v
	}
}

// Key stringifies a primary key value. Strings are used as-is, integers are
// written in base 10 and floats without a fractional part are written as
// integers, so 3, int64(3), uint64(3) and 3.0 all map to "3".
func Key(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int:
		return strconv.FormatInt(int64(t), 10)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return formatFloat(float64(t))
	case float64:
		return formatFloat(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Equal reports whether two records hold the same fields and values.
func Equal(a, b Record) bool {
	if len(a) != len(b) {
		return false
	}
	return reflect.DeepEqual(map[string]any(a), map[string]any(b))
}

// ValidateID checks that a stringified primary key can be used as a file name.
// Empty ids, "." and "..", ids starting with a dot (reserved for temporary
// files) and ids containing a path separator or NUL are rejected.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || id[0] == '.' || strings.ContainsAny(id, "/\\\x00") {
		return common.NewError(common.RetCInvalidOperation, fmt.Sprintf("invalid record id %q", id))
	}
	return nil
}
