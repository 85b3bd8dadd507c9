package codec

import (
	"math"
	"reflect"

	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/fxamacker/cbor/v2"
)

// NewCBORCodec creates a new codec using deterministic CBOR encoding
func NewCBORCodec() IRecordCodec {
	return &cborCodecImpl{}
}

// encMode writes Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer and float encodings, no indefinite-length items.
var encMode cbor.EncMode

// decMode decodes maps nested in records as map[string]any. Unsigned integers
// stay uint64 and are narrowed to int64 by normalizeInts when they fit.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertNone,
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// cborCodecImpl implements the IRecordCodec interface using CBOR encoding
type cborCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IRecordCodec)
// --------------------------------------------------------------------------

func (c *cborCodecImpl) Name() string {
	return NameCBOR
}

func (c *cborCodecImpl) Encode(r record.Record) ([]byte, error) {
	return encMode.Marshal(map[string]any(r))
}

func (c *cborCodecImpl) Decode(data []byte) (record.Record, error) {
	var r map[string]any
	if err := decMode.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return normalizeInts(r).(map[string]any), nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// normalizeInts replaces uint64 values <= MaxInt64 with int64, larger ones are kept
func normalizeInts(v any) any {
	switch t := v.(type) {
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeInts(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeInts(e)
		}
		return t
	default:
		return v
	}
}
