// Package testing provides a conformance suite for store.IAdapter
// implementations. Every adapter must pass it, which keeps the memory and
// filesystem adapters interchangeable for the framework.
//
// Usage Example:
//
//	func TestMemoryStore(t *testing.T) {
//		storetesting.RunAdapterTests(t, "MemoryStore", memstore.Factory)
//	}
//
// The factory is called once per sub test, so every sub test starts with an
// empty adapter. Adapters persisting to disk should use a new directory for
// every call (e.g. t.TempDir()).
package testing
