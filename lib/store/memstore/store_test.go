package memstore

import (
	"context"
	"testing"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
	storetesting "github.com/ValentinKolb/recfs/lib/store/testing"
)

func TestMemoryStore(t *testing.T) {
	storetesting.RunAdapterTests(t, "MemoryStore", Factory)
}

func TestFactoryInvalidSchema(t *testing.T) {
	if _, err := Factory(record.Schema{}); !common.HasCode(err, common.RetCConfigError) {
		t.Errorf("Expected config error for empty schema, got %v", err)
	}
}

func TestDisconnectClearsRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(record.NewSchema("id", "user"), nil)

	if _, err := s.Create(ctx, "user", []record.Record{{"id": "1"}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if n := s.Cache().Len("user"); n != 0 {
		t.Errorf("Expected empty cache after disconnect, got %d records", n)
	}
}

func TestCreateInvalidID(t *testing.T) {
	s := NewMemoryStore(record.NewSchema("id", "user"), nil)

	tests := map[string]any{
		"empty":     "",
		"dot":       ".hidden",
		"separator": "a/b",
	}
	for name, id := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Create(context.Background(), "user", []record.Record{{"id": id}})
			if !common.HasCode(err, common.RetCInvalidOperation) {
				t.Errorf("Expected invalid operation for id %q, got %v", id, err)
			}
		})
	}
}

func TestUniqueSorted(t *testing.T) {
	got := uniqueSorted([]string{"b", "a", "b", "c", "a"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
}
