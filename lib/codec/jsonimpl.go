package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ValentinKolb/recfs/lib/record"
)

// NewJSONCodec creates a new codec using json encoding
func NewJSONCodec() IRecordCodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements the IRecordCodec interface using json encoding
type jsonCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IRecordCodec)
// --------------------------------------------------------------------------

func (j *jsonCodecImpl) Name() string {
	return NameJSON
}

func (j *jsonCodecImpl) Encode(r record.Record) ([]byte, error) {
	return json.Marshal(map[string]any(r))
}

func (j *jsonCodecImpl) Decode(data []byte) (record.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var r map[string]any
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	if r == nil {
		return nil, nil
	}
	return normalizeNumbers(r).(map[string]any), nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// normalizeNumbers replaces json.Number values with int64 (integers), uint64
// (integers > MaxInt64) or float64
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return u
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	default:
		return v
	}
}
