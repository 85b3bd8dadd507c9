package codec

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/recfs/lib/record"
)

// benchmarkRecords returns a set of records for targeted benchmarking
func benchmarkRecords() map[string]record.Record {
	return map[string]record.Record{
		"KeyOnly": {"id": int64(1)},
		"Small":   {"id": int64(1), "bar": true, "name": "small"},
		"Medium": {
			"id":    "medium-length-key-for-testing",
			"tags":  []any{"a", "b", "c", "d"},
			"owner": map[string]any{"name": "x", "age": int64(40)},
		},
		"Large": {
			"id":   int64(1),
			"text": strings.Repeat("Lorem ipsum dolor sit amet. ", 512),
		},
	}
}

func BenchmarkCodecs(b *testing.B) {
	for codecName, factory := range testCodecs {
		c := factory()
		for recordName, r := range benchmarkRecords() {
			data, err := c.Encode(r)
			if err != nil {
				b.Fatalf("Failed to encode: %v", err)
			}

			b.Run(codecName+"/Encode/"+recordName, func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_, _ = c.Encode(r)
				}
			})

			b.Run(codecName+"/Decode/"+recordName, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))
				for i := 0; i < b.N; i++ {
					_, _ = c.Decode(data)
				}
			})
		}
	}
}
