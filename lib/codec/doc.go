// Package codec encodes records into the bytes of a stored file and decodes
// them back. It defines a common interface and multiple implementations.
//
// Key Components:
//
//   - IRecordCodec: Core interface that all codec implementations must satisfy.
//
//   - cborCodecImpl: CBOR (RFC 8949) implementation based on fxamacker/cbor.
//     Records are written with Core Deterministic Encoding (sorted map keys,
//     smallest integer and float encodings), so the same record always produces
//     the same bytes. This is the default codec.
//
//   - jsonCodecImpl: JSON implementation, useful when stored files should be
//     readable with standard tools. Byte slices are written as base64 strings and
//     are therefore read back as strings.
//
//   - DecodeFile: Wraps a codec's Decode and classifies failures. Zero-length
//     input is reported as common.RetCDecodeEmpty, everything the codec cannot
//     parse into a record (syntax errors, truncation, trailing data, a top-level
//     value that is not a map) as common.RetCDecodeCorrupt. Both errors carry the
//     path of the file the bytes were read from.
//
// Thread Safety:
//
//	All codec implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	c := codec.NewCBORCodec()
//	data, err := c.Encode(record.Record{"id": int64(3), "bar": true})
//	// ... write data to a file ...
//	r, err := codec.DecodeFile(c, path, data)
//	if common.HasCode(err, common.RetCDecodeEmpty) { ... }
package codec
