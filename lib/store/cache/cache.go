package cache

import (
	"sort"

	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/puzpuzpuz/xsync/v3"
)

// Cache is a staging cache mapping type -> id -> record.
// It is safe for concurrent use by multiple goroutines.
type Cache struct {
	types *xsync.MapOf[string, *xsync.MapOf[string, record.Record]]
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		types: xsync.NewMapOf[string, *xsync.MapOf[string, record.Record]](),
	}
}

// table returns the id -> record map of a type, creating it if needed
func (c *Cache) table(typeName string) *xsync.MapOf[string, record.Record] {
	t, _ := c.types.LoadOrCompute(typeName, func() *xsync.MapOf[string, record.Record] {
		return xsync.NewMapOf[string, record.Record]()
	})
	return t
}

// Put stores a record, replacing any record cached under the same id.
func (c *Cache) Put(typeName, id string, r record.Record) {
	c.table(typeName).Store(id, r)
}

// PutIfAbsent stores a record only if no record is cached under the id.
// It returns false if a record was already present.
func (c *Cache) PutIfAbsent(typeName, id string, r record.Record) bool {
	_, loaded := c.table(typeName).LoadOrStore(id, r)
	return !loaded
}

// Get returns the cached record. The returned record must not be modified,
// use Put with a modified clone instead.
func (c *Cache) Get(typeName, id string) (record.Record, bool) {
	t, ok := c.types.Load(typeName)
	if !ok {
		return nil, false
	}
	return t.Load(id)
}

// Delete removes a record and reports whether it was cached.
func (c *Cache) Delete(typeName, id string) bool {
	t, ok := c.types.Load(typeName)
	if !ok {
		return false
	}
	_, loaded := t.LoadAndDelete(id)
	return loaded
}

// IDs returns the sorted ids cached for a type.
func (c *Cache) IDs(typeName string) []string {
	t, ok := c.types.Load(typeName)
	if !ok {
		return nil
	}
	ids := make([]string, 0, t.Size())
	t.Range(func(id string, _ record.Record) bool {
		ids = append(ids, id)
		return true
	})
	sort.Strings(ids)
	return ids
}

// Len returns the number of records cached for a type.
func (c *Cache) Len(typeName string) int {
	t, ok := c.types.Load(typeName)
	if !ok {
		return 0
	}
	return t.Size()
}

// Clear removes all records of a type.
func (c *Cache) Clear(typeName string) {
	c.types.Delete(typeName)
}

// Modify atomically replaces the cached record with the result of fn.
// fn receives the current record and must return a new record instead of
// changing it. Modify returns false (without calling fn) if the id is not cached.
func (c *Cache) Modify(typeName, id string, fn func(r record.Record) record.Record) bool {
	t, ok := c.types.Load(typeName)
	if !ok {
		return false
	}
	_, ok = t.Compute(id, func(old record.Record, loaded bool) (record.Record, bool) {
		if !loaded {
			return nil, true
		}
		return fn(old), false
	})
	return ok
}
