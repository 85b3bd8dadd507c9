package codec

import "github.com/ValentinKolb/recfs/lib/record"

// IRecordCodec is the interface for all record codecs
type IRecordCodec interface {
	// Name returns the name the codec is selected by (e.g. "cbor")
	Name() string
	// Encode encodes a record into a byte array
	// An error is only returned for records holding values the codec cannot represent
	Encode(r record.Record) ([]byte, error)
	// Decode decodes a byte array into a record
	// It returns an error if the bytes are not a single, complete record
	Decode(data []byte) (record.Record, error)
}
