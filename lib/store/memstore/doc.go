// Package memstore implements the default in-memory adapter of the
// store.IAdapter interface. All records live in a staging cache and are lost
// when the adapter disconnects.
//
// The memory store carries the framework semantics every adapter shares:
//
//   - Create assigns a random UUID to records without a primary key and
//     rejects records whose primary key is already present (RetCConflict).
//   - Find returns clones ordered by primary key and applies FindOptions.
//   - Update applies record.Update values (replace, push, pull) to clones of
//     the cached records and stores the clones back.
//   - Delete removes records and counts the removed ones.
//
// The filesystem adapter (fsstore) composes a memory store over its own
// staging cache. It loads the persisted records into the cache first and then
// lets the memory store apply the framework semantics, which keeps both
// adapters behaving the same way.
//
// Usage Example:
//
//	schema := record.NewSchema("id", "user")
//	s := memstore.NewMemoryStore(schema, cache.New())
//	_ = s.Connect(ctx)
//	created, err := s.Create(ctx, "user", []record.Record{{"name": "x"}})
package memstore
