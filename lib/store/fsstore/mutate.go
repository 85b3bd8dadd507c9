package fsstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/ValentinKolb/recfs/lib/store"
	"github.com/ValentinKolb/recfs/lib/store/cache"
	"github.com/ValentinKolb/recfs/lib/store/memstore"
)

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *Store) Find(ctx context.Context, typeName string, ids []string, opts *store.FindOptions) ([]record.Record, error) {
	mem, err := s.session(typeName)
	if err != nil {
		return nil, err
	}

	ids, err = s.resolveIDs(typeName, ids)
	if err != nil {
		return nil, err
	}

	found, err := s.readMany(ctx, typeName, ids)
	if err != nil {
		return nil, err
	}
	present := s.stage(mem, typeName, ids, found)
	if len(present) == 0 {
		return []record.Record{}, nil
	}
	return mem.Find(ctx, typeName, present, opts)
}

func (s *Store) Create(ctx context.Context, typeName string, records []record.Record) ([]record.Record, error) {
	mem, err := s.session(typeName)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []record.Record{}, nil
	}

	created, err := mem.Create(ctx, typeName, records)
	if err != nil {
		return nil, err
	}

	pk := s.schema.PrimaryKey(typeName)
	written := make(map[string]record.Record, len(created))
	for _, r := range created {
		id, _ := r.ID(pk)
		written[id] = r
	}
	ids := make([]string, 0, len(written))
	for id := range written {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	err = s.forEachBounded(ctx, ids, func(_ context.Context, id string) error {
		return s.writeRecord(typeName, written[id])
	})
	if err != nil {
		// the cache must not claim records that may not be on disk
		for _, id := range ids {
			mem.Cache().Delete(typeName, id)
		}
		return nil, asStoreError(err, s.typeDir(typeName))
	}

	log.Debugf("created %d records of type %s", len(created), typeName)
	return created, nil
}

func (s *Store) Update(ctx context.Context, typeName string, updates []record.Update) (count int, err error) {
	mem, err := s.session(typeName)
	if err != nil {
		return 0, err
	}
	if len(updates) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.ID)
	}
	ids, err = s.resolveIDs(typeName, ids)
	if err != nil {
		return 0, err
	}

	// Lock all records in sorted order, so two updates of overlapping sets cannot deadlock
	owners := make(map[string][]byte, len(ids))
	defer func() {
		if releaseErr := s.releaseAll(typeName, owners); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()
	for _, id := range ids {
		owner, lockErr := s.locks.AcquireLock(ctx, typeName, id)
		if lockErr != nil {
			return 0, lockErr
		}
		owners[id] = owner
	}

	// Always apply updates on the latest disk state. The updates run on a scratch
	// view of the locked records, so a concurrent Find staging older data cannot
	// leak into the written records.
	found, err := s.readMany(ctx, typeName, ids)
	if err != nil {
		return 0, err
	}
	present := s.stage(mem, typeName, ids, found)

	scratch := memstore.NewMemoryStore(s.schema, cache.New())
	for id, r := range found {
		scratch.Cache().Put(typeName, id, r)
	}
	count, err = scratch.Update(ctx, typeName, updates)
	if err != nil {
		return 0, err
	}

	err = s.forEachBounded(ctx, present, func(_ context.Context, id string) error {
		r, ok := scratch.Cache().Get(typeName, id)
		if !ok {
			return nil
		}
		if err := s.writeRecord(typeName, r); err != nil {
			return err
		}
		mem.Cache().Put(typeName, id, r)
		return nil
	})
	if err != nil {
		// drop the cache entries, the next read restores the disk state
		for _, id := range present {
			mem.Cache().Delete(typeName, id)
		}
		return 0, asStoreError(err, s.typeDir(typeName))
	}

	log.Debugf("updated %d records of type %s", count, typeName)
	return count, nil
}

func (s *Store) Delete(ctx context.Context, typeName string, ids []string) (int, error) {
	mem, err := s.session(typeName)
	if err != nil {
		return 0, err
	}

	resolved, err := s.resolveIDs(typeName, ids)
	if err != nil {
		return 0, err
	}

	var removed []string
	var mu sync.Mutex
	err = s.forEachBounded(ctx, resolved, func(_ context.Context, id string) error {
		ok, err := s.removeRecord(typeName, id)
		if ok {
			mu.Lock()
			removed = append(removed, id)
			mu.Unlock()
		}
		return err
	})

	// evict everything that is gone from disk, even if the batch failed midway
	if ids == nil && err == nil {
		_, _ = mem.Delete(ctx, typeName, nil)
	} else if len(removed) > 0 {
		_, _ = mem.Delete(ctx, typeName, removed)
	}

	if err != nil {
		return len(removed), asStoreError(err, s.typeDir(typeName))
	}

	log.Debugf("deleted %d records of type %s", len(removed), typeName)
	return len(removed), nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// stage puts the found records into the staging cache and evicts the ids that
// have no stored file. It returns the sorted ids of the found records.
func (s *Store) stage(mem *memstore.MemoryStore, typeName string, ids []string, found map[string]record.Record) []string {
	c := mem.Cache()
	present := make([]string, 0, len(found))
	for _, id := range ids {
		if r, ok := found[id]; ok {
			c.Put(typeName, id, r)
			present = append(present, id)
		} else {
			c.Delete(typeName, id)
		}
	}
	sort.Strings(present)
	return present
}

// releaseAll releases all given locks. Every lock is released even if releasing another one failed.
func (s *Store) releaseAll(typeName string, owners map[string][]byte) error {
	var errs []error
	for id, owner := range owners {
		ok, err := s.locks.ReleaseLock(typeName, id, owner)
		if err != nil {
			log.Errorf("failed to release lock of %s/%s: %v", typeName, id, err)
			errs = append(errs, err)
			continue
		}
		if !ok {
			log.Warningf("lock of %s/%s was taken over by another owner", typeName, id)
		}
	}
	return errors.Join(errs...)
}

// asStoreError wraps errors that are not a *common.Error (e.g. context errors) into an IOError
func asStoreError(err error, path string) error {
	if _, ok := err.(*common.Error); ok {
		return err
	}
	return common.WrapError(common.RetCIOError, "operation aborted", path, err)
}
