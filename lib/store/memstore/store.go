package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/ValentinKolb/recfs/lib/store"
	"github.com/ValentinKolb/recfs/lib/store/cache"
	"github.com/google/uuid"
)

// MemoryStore is the default adapter keeping records in a staging cache.
type MemoryStore struct {
	schema record.Schema
	cache  *cache.Cache
}

// NewMemoryStore creates a memory store over the given cache.
// A nil cache is replaced by a new one.
func NewMemoryStore(schema record.Schema, c *cache.Cache) *MemoryStore {
	if c == nil {
		c = cache.New()
	}
	return &MemoryStore{
		schema: schema,
		cache:  c,
	}
}

// Factory is a store.AdapterFactory creating memory stores.
func Factory(schema record.Schema) (store.IAdapter, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return NewMemoryStore(schema, nil), nil
}

// Cache returns the staging cache of the store.
func (s *MemoryStore) Cache() *cache.Cache {
	return s.cache
}

// checkType returns an error if the type is not part of the schema
func (s *MemoryStore) checkType(typeName string) error {
	if !s.schema.Has(typeName) {
		return common.NewError(common.RetCInvalidOperation, fmt.Sprintf("unknown type %q", typeName))
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *MemoryStore) Connect(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Disconnect(_ context.Context) error {
	for _, t := range s.schema.Types() {
		s.cache.Clear(t)
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, typeName string, records []record.Record) ([]record.Record, error) {
	if err := s.checkType(typeName); err != nil {
		return nil, err
	}
	pk := s.schema.PrimaryKey(typeName)

	// Prepare all records first so a conflict leaves the cache untouched
	prepared := make([]record.Record, len(records))
	ids := make(map[string]struct{}, len(records))
	for i, r := range records {
		c := r.Clone()
		if c == nil {
			c = record.Record{}
		}
		id, ok := c.ID(pk)
		if !ok {
			id = uuid.NewString()
			c[pk] = id
		}
		if err := record.ValidateID(id); err != nil {
			return nil, err
		}
		if _, dup := ids[id]; dup {
			return nil, common.NewError(common.RetCConflict, fmt.Sprintf("duplicate primary key %q in request", id))
		}
		// only the cache is consulted, a cached id removed by another process stays a conflict until evicted
		if _, exists := s.cache.Get(typeName, id); exists {
			return nil, common.NewError(common.RetCConflict, fmt.Sprintf("record %s/%s already exists", typeName, id))
		}
		ids[id] = struct{}{}
		prepared[i] = c
	}

	created := make([]record.Record, 0, len(prepared))
	for _, c := range prepared {
		id, _ := c.ID(pk)
		if !s.cache.PutIfAbsent(typeName, id, c) {
			return created, common.NewError(common.RetCConflict, fmt.Sprintf("record %s/%s already exists", typeName, id))
		}
		created = append(created, c.Clone())
	}
	return created, nil
}

func (s *MemoryStore) Find(_ context.Context, typeName string, ids []string, opts *store.FindOptions) ([]record.Record, error) {
	if err := s.checkType(typeName); err != nil {
		return nil, err
	}
	pk := s.schema.PrimaryKey(typeName)

	if ids == nil {
		ids = s.cache.IDs(typeName)
	} else {
		ids = uniqueSorted(ids)
	}

	if opts == nil {
		opts = &store.FindOptions{}
	}

	records := make([]record.Record, 0, len(ids))
	skipped := 0
	for _, id := range ids {
		r, ok := s.cache.Get(typeName, id)
		if !ok {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		if opts.Limit > 0 && len(records) >= opts.Limit {
			break
		}
		records = append(records, r.Project(pk, opts.Fields))
	}
	return records, nil
}

func (s *MemoryStore) Update(_ context.Context, typeName string, updates []record.Update) (int, error) {
	if err := s.checkType(typeName); err != nil {
		return 0, err
	}
	pk := s.schema.PrimaryKey(typeName)

	count := 0
	for _, u := range updates {
		updated := s.cache.Modify(typeName, u.ID, func(r record.Record) record.Record {
			c := r.Clone()
			u.Apply(c, pk)
			return c
		})
		if updated {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Delete(_ context.Context, typeName string, ids []string) (int, error) {
	if err := s.checkType(typeName); err != nil {
		return 0, err
	}

	if ids == nil {
		ids = s.cache.IDs(typeName)
	} else {
		ids = uniqueSorted(ids)
	}

	count := 0
	for _, id := range ids {
		if s.cache.Delete(typeName, id) {
			count++
		}
	}
	return count, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// uniqueSorted returns a sorted copy of ids without duplicates
func uniqueSorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
