package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/ValentinKolb/recfs/lib/store"
)

// Types and primary key used by the suite
const (
	TypeUser = "user"
	TypePost = "post"
	PK       = "id"
)

// Schema is the schema every adapter under test is created with
var Schema = record.NewSchema(PK, TypeUser, TypePost)

// RunAdapterTests runs the conformance test suite for a store.IAdapter implementation.
func RunAdapterTests(t *testing.T, name string, factory store.AdapterFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("CreateFind", func(t *testing.T) {
			testCreateFind(t, connect(t, factory))
		})

		t.Run("CreateConflict", func(t *testing.T) {
			testCreateConflict(t, connect(t, factory))
		})

		t.Run("FindOptions", func(t *testing.T) {
			testFindOptions(t, connect(t, factory))
		})

		t.Run("Update", func(t *testing.T) {
			testUpdate(t, connect(t, factory))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, connect(t, factory))
		})

		t.Run("DeleteAll", func(t *testing.T) {
			testDeleteAll(t, connect(t, factory))
		})

		t.Run("EmptyIDList", func(t *testing.T) {
			testEmptyIDList(t, connect(t, factory))
		})

		t.Run("UnknownType", func(t *testing.T) {
			testUnknownType(t, connect(t, factory))
		})

		t.Run("TypeIsolation", func(t *testing.T) {
			testTypeIsolation(t, connect(t, factory))
		})

		t.Run("ConcurrentUpdates", func(t *testing.T) {
			testConcurrentUpdates(t, connect(t, factory))
		})

		t.Run("ConcurrentCreates", func(t *testing.T) {
			testConcurrentCreates(t, connect(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// connect creates and connects a new adapter, it is disconnected when the test ends
func connect(t *testing.T, factory store.AdapterFactory) store.IAdapter {
	t.Helper()
	a, err := factory(Schema)
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect adapter: %v", err)
	}
	t.Cleanup(func() {
		_ = a.Disconnect(context.Background())
	})
	return a
}

func mustCreate(t *testing.T, a store.IAdapter, typeName string, records ...record.Record) []record.Record {
	t.Helper()
	created, err := a.Create(context.Background(), typeName, records)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return created
}

func mustFind(t *testing.T, a store.IAdapter, typeName string, ids []string, opts *store.FindOptions) []record.Record {
	t.Helper()
	records, err := a.Find(context.Background(), typeName, ids, opts)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	return records
}

func ids(records []record.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		id, _ := r.ID(PK)
		out = append(out, id)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testCreateFind(t *testing.T, a store.IAdapter) {
	created := mustCreate(t, a, TypeUser,
		record.Record{PK: "1", "name": "alice"},
		record.Record{PK: "2", "name": "bob", "age": int64(42)},
		record.Record{"name": "carol"},
	)
	if len(created) != 3 {
		t.Fatalf("Expected 3 created records, got %d", len(created))
	}
	assigned, ok := created[2].ID(PK)
	if !ok || assigned == "" {
		t.Fatalf("Expected a primary key to be assigned, got %v", created[2])
	}

	all := mustFind(t, a, TypeUser, nil, nil)
	if len(all) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(all))
	}
	if !sort.StringsAreSorted(ids(all)) {
		t.Errorf("Expected records ordered by id, got %v", ids(all))
	}

	found := mustFind(t, a, TypeUser, []string{"2", "missing"}, nil)
	if len(found) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(found))
	}
	want := record.Record{PK: "2", "name": "bob", "age": int64(42)}
	if !record.Equal(found[0], want) {
		t.Errorf("Expected %v, got %v", want, found[0])
	}

	found = mustFind(t, a, TypeUser, []string{assigned}, nil)
	if len(found) != 1 || found[0]["name"] != "carol" {
		t.Errorf("Expected carol under the assigned id, got %v", found)
	}

	// returned records are copies
	found[0]["name"] = "changed"
	found = mustFind(t, a, TypeUser, []string{assigned}, nil)
	if found[0]["name"] != "carol" {
		t.Errorf("Expected stored record to be unchanged, got %v", found[0])
	}
}

func testCreateConflict(t *testing.T, a store.IAdapter) {
	ctx := context.Background()
	mustCreate(t, a, TypeUser, record.Record{PK: "1", "name": "alice"})

	_, err := a.Create(ctx, TypeUser, []record.Record{{PK: "1", "name": "mallory"}})
	if !common.HasCode(err, common.RetCConflict) {
		t.Errorf("Expected conflict for existing id, got %v", err)
	}

	_, err = a.Create(ctx, TypeUser, []record.Record{{PK: "x"}, {PK: "x"}})
	if !common.HasCode(err, common.RetCConflict) {
		t.Errorf("Expected conflict for duplicate ids in one request, got %v", err)
	}

	found := mustFind(t, a, TypeUser, []string{"1"}, nil)
	if len(found) != 1 || found[0]["name"] != "alice" {
		t.Errorf("Expected original record to be kept, got %v", found)
	}
}

func testFindOptions(t *testing.T, a store.IAdapter) {
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		mustCreate(t, a, TypePost, record.Record{PK: id, "n": int64(i), "body": "text"})
	}

	tests := map[string]struct {
		opts    *store.FindOptions
		wantIDs []string
	}{
		"no options":       {nil, []string{"a", "b", "c", "d", "e"}},
		"limit":            {&store.FindOptions{Limit: 2}, []string{"a", "b"}},
		"offset":           {&store.FindOptions{Offset: 3}, []string{"d", "e"}},
		"offset and limit": {&store.FindOptions{Offset: 1, Limit: 2}, []string{"b", "c"}},
		"offset too large": {&store.FindOptions{Offset: 10}, []string{}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := ids(mustFind(t, a, TypePost, nil, tc.opts))
			if !equalIDs(got, tc.wantIDs) {
				t.Errorf("Expected ids %v, got %v", tc.wantIDs, got)
			}
		})
	}

	t.Run("fields", func(t *testing.T) {
		found := mustFind(t, a, TypePost, []string{"c"}, &store.FindOptions{Fields: []string{"n"}})
		want := record.Record{PK: "c", "n": int64(2)}
		if len(found) != 1 || !record.Equal(found[0], want) {
			t.Errorf("Expected %v, got %v", want, found)
		}
	})
}

func testUpdate(t *testing.T, a store.IAdapter) {
	ctx := context.Background()
	mustCreate(t, a, TypeUser, record.Record{PK: "1", "name": "alice", "tags": []any{"a"}, "old": true})

	count, err := a.Update(ctx, TypeUser, []record.Update{{
		ID:      "1",
		Replace: map[string]any{"name": "alicia", "old": nil, PK: "2"},
		Push:    map[string]any{"tags": []any{"b", "c"}},
	}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 updated record, got %d", count)
	}

	count, err = a.Update(ctx, TypeUser, []record.Update{{ID: "1", Pull: map[string]any{"tags": "a"}}})
	if err != nil || count != 1 {
		t.Fatalf("Pull failed: count=%d err=%v", count, err)
	}

	found := mustFind(t, a, TypeUser, []string{"1"}, nil)
	want := record.Record{PK: "1", "name": "alicia", "tags": []any{"b", "c"}}
	if len(found) != 1 || !record.Equal(found[0], want) {
		t.Errorf("Expected %v, got %v", want, found)
	}

	count, err = a.Update(ctx, TypeUser, []record.Update{{ID: "404", Replace: map[string]any{"name": "x"}}})
	if err != nil {
		t.Fatalf("Update of missing record failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 updated records, got %d", count)
	}
	if found := mustFind(t, a, TypeUser, []string{"404"}, nil); len(found) != 0 {
		t.Errorf("Expected update not to create a record, got %v", found)
	}
}

func testDelete(t *testing.T, a store.IAdapter) {
	ctx := context.Background()
	mustCreate(t, a, TypeUser, record.Record{PK: "1"}, record.Record{PK: "2"}, record.Record{PK: "3"})

	count, err := a.Delete(ctx, TypeUser, []string{"1", "3", "missing"})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 deleted records, got %d", count)
	}

	if got := ids(mustFind(t, a, TypeUser, nil, nil)); !equalIDs(got, []string{"2"}) {
		t.Errorf("Expected remaining ids [2], got %v", got)
	}

	count, err = a.Delete(ctx, TypeUser, []string{"1"})
	if err != nil || count != 0 {
		t.Errorf("Expected deleting a missing record to be a no-op, got count=%d err=%v", count, err)
	}
}

func testDeleteAll(t *testing.T, a store.IAdapter) {
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		mustCreate(t, a, TypeUser, record.Record{PK: fmt.Sprintf("user-%d", i)})
	}

	count, err := a.Delete(ctx, TypeUser, nil)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if count != 10 {
		t.Errorf("Expected 10 deleted records, got %d", count)
	}
	if found := mustFind(t, a, TypeUser, nil, nil); len(found) != 0 {
		t.Errorf("Expected no records, got %d", len(found))
	}

	count, err = a.Delete(ctx, TypeUser, nil)
	if err != nil || count != 0 {
		t.Errorf("Expected deleting an empty type to return 0, got count=%d err=%v", count, err)
	}
}

// An empty (non-nil) id list selects no records, only nil means all records
func testEmptyIDList(t *testing.T, a store.IAdapter) {
	ctx := context.Background()
	mustCreate(t, a, TypeUser, record.Record{PK: "1"}, record.Record{PK: "2"}, record.Record{PK: "3"})

	if found := mustFind(t, a, TypeUser, []string{}, nil); len(found) != 0 {
		t.Errorf("Expected no records for an empty id list, got %v", ids(found))
	}

	count, err := a.Delete(ctx, TypeUser, []string{})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected an empty id list to delete nothing, got %d", count)
	}

	if got := ids(mustFind(t, a, TypeUser, nil, nil)); !equalIDs(got, []string{"1", "2", "3"}) {
		t.Errorf("Expected all records to remain, got %v", got)
	}
}

func testUnknownType(t *testing.T, a store.IAdapter) {
	ctx := context.Background()
	tests := map[string]func() error{
		"create": func() error {
			_, err := a.Create(ctx, "nope", []record.Record{{PK: "1"}})
			return err
		},
		"find": func() error {
			_, err := a.Find(ctx, "nope", nil, nil)
			return err
		},
		"update": func() error {
			_, err := a.Update(ctx, "nope", []record.Update{{ID: "1"}})
			return err
		},
		"delete": func() error {
			_, err := a.Delete(ctx, "nope", nil)
			return err
		},
	}

	for name, op := range tests {
		t.Run(name, func(t *testing.T) {
			if err := op(); !common.HasCode(err, common.RetCInvalidOperation) {
				t.Errorf("Expected invalid operation, got %v", err)
			}
		})
	}
}

func testTypeIsolation(t *testing.T, a store.IAdapter) {
	mustCreate(t, a, TypeUser, record.Record{PK: "1", "kind": "user"})
	mustCreate(t, a, TypePost, record.Record{PK: "1", "kind": "post"})

	users := mustFind(t, a, TypeUser, []string{"1"}, nil)
	posts := mustFind(t, a, TypePost, []string{"1"}, nil)
	if len(users) != 1 || users[0]["kind"] != "user" {
		t.Errorf("Expected user record, got %v", users)
	}
	if len(posts) != 1 || posts[0]["kind"] != "post" {
		t.Errorf("Expected post record, got %v", posts)
	}
}

func testConcurrentUpdates(t *testing.T, a store.IAdapter) {
	const writers = 20
	mustCreate(t, a, TypeUser, record.Record{PK: "counter", "items": []any{}})

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Update(context.Background(), TypeUser, []record.Update{{
				ID:   "counter",
				Push: map[string]any{"items": int64(i)},
			}})
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent update failed: %v", err)
	}

	found := mustFind(t, a, TypeUser, []string{"counter"}, nil)
	if len(found) != 1 {
		t.Fatalf("Expected counter record, got %v", found)
	}
	items, _ := found[0]["items"].([]any)
	if len(items) != writers {
		t.Errorf("Expected %d pushed items (no lost updates), got %d", writers, len(items))
	}
}

func testConcurrentCreates(t *testing.T, a store.IAdapter) {
	const workers, perWorker = 8, 25

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("w%d-%03d", w, i)
				if _, err := a.Create(context.Background(), TypePost, []record.Record{{PK: id}}); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent create failed: %v", err)
	}

	if found := mustFind(t, a, TypePost, nil, nil); len(found) != workers*perWorker {
		t.Errorf("Expected %d records, got %d", workers*perWorker, len(found))
	}
}
