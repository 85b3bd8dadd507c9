package codec

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() IRecordCodec{
	"CBOR": NewCBORCodec,
	"JSON": NewJSONCodec,
}

// testRecords creates a set of records using the canonical decoded value types
func testRecords() []record.Record {
	return []record.Record{
		// Primary key only
		{"id": int64(1)},

		// Scalars
		{"id": "abc", "bar": true, "count": int64(-42), "ratio": 0.25, "none": nil},

		// Nested values
		{
			"id":    int64(3),
			"tags":  []any{"a", "b", int64(7)},
			"owner": map[string]any{"name": "x", "roles": []any{"admin"}},
		},

		// Unicode keys and values
		{"id": "ü-1", "näme": "日本語"},

		// Unsigned integers beyond int64, also nested
		{"id": int64(1), "big": uint64(math.MaxUint64)},
		{"id": int64(2), "list": []any{uint64(math.MaxInt64) + 1, int64(math.MaxInt64)}},
	}
}

// TestCodecRoundTrip tests that records can be encoded and decoded correctly
func TestCodecRoundTrip(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			for i, r := range testRecords() {
				data, err := c.Encode(r)
				if err != nil {
					t.Errorf("Failed to encode record %d: %v", i, err)
					continue
				}

				result, err := DecodeFile(c, "mem", data)
				if err != nil {
					t.Errorf("Failed to decode record %d: %v", i, err)
					continue
				}

				if !record.Equal(r, result) {
					t.Errorf("Record %d mismatch: expected %#v, got %#v", i, r, result)
				}
			}
		})
	}
}

func TestCBORBytesRoundTrip(t *testing.T) {
	c := NewCBORCodec()
	r := record.Record{"id": int64(1), "blob": []byte{0, 1, 2, 255}}
	data, err := c.Encode(r)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	result, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if !record.Equal(r, result) {
		t.Errorf("Expected %#v, got %#v", r, result)
	}
}

func TestCBORDeterministic(t *testing.T) {
	c := NewCBORCodec()
	r := record.Record{"z": int64(1), "a": int64(2), "m": map[string]any{"y": true, "b": false}}

	first, err := c.Encode(r)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := c.Encode(r.Clone())
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("Encoding is not deterministic: %x != %x", first, next)
		}
	}
}

func TestDecodeFileEmpty(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			for _, data := range [][]byte{nil, {}} {
				_, err := DecodeFile(factory(), "db/foo/1", data)
				if !common.HasCode(err, common.RetCDecodeEmpty) {
					t.Fatalf("Expected DecodeEmpty, got %v", err)
				}
				if !strings.Contains(err.Error(), "empty") || !strings.Contains(err.Error(), "db/foo/1") {
					t.Errorf("Expected message with 'empty' and path, got %q", err.Error())
				}
			}
		})
	}
}

func TestDecodeFileCorrupt(t *testing.T) {
	tests := map[string]struct {
		codec IRecordCodec
		data  []byte
	}{
		"CBOR/Break":         {codec: NewCBORCodec(), data: []byte{0xff}},
		"CBOR/TruncatedMap":  {codec: NewCBORCodec(), data: []byte{0xa2, 0x62, 'i', 'd'}},
		"CBOR/NotAMap":       {codec: NewCBORCodec(), data: []byte{0x01}},
		"CBOR/Null":          {codec: NewCBORCodec(), data: []byte{0xf6}},
		"CBOR/Trailing":      {codec: NewCBORCodec(), data: []byte{0xa0, 0x01}},
		"CBOR/Garbage":       {codec: NewCBORCodec(), data: []byte("this is not a record")},
		"JSON/Syntax":        {codec: NewJSONCodec(), data: []byte(`{"id": `)},
		"JSON/Array":         {codec: NewJSONCodec(), data: []byte(`[1, 2]`)},
		"JSON/Null":          {codec: NewJSONCodec(), data: []byte(`null`)},
		"JSON/Trailing":      {codec: NewJSONCodec(), data: []byte(`{"id": 1} {"id": 2}`)},
		"JSON/BinaryGarbage": {codec: NewJSONCodec(), data: []byte{0x00, 0x13, 0xff}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeFile(tc.codec, "db/foo/6", tc.data)
			if !common.HasCode(err, common.RetCDecodeCorrupt) {
				t.Fatalf("Expected DecodeCorrupt, got %v", err)
			}
			if !strings.Contains(err.Error(), "corrupt") || !strings.Contains(err.Error(), "db/foo/6") {
				t.Errorf("Expected message with 'corrupt' and path, got %q", err.Error())
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{NameCBOR, NameJSON} {
		c, err := ByName(name)
		if err != nil {
			t.Fatalf("Unexpected error for %s: %v", name, err)
		}
		if c.Name() != name {
			t.Errorf("Expected codec %s, got %s", name, c.Name())
		}
	}
	if _, err := ByName("msgpack"); !common.HasCode(err, common.RetCConfigError) {
		t.Errorf("Expected ConfigError for unknown codec, got %v", err)
	}
}
