package fsstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/recfs/lib/codec"
	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
	"golang.org/x/sync/errgroup"
)

// forEachBounded calls fn for every id with at most ConcurrentReads calls in flight.
// A new call is only started once a running call has returned. The first error
// cancels the context passed to the remaining calls and is returned.
func (s *Store) forEachBounded(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.ConcurrentReads)

	scheduled := 0
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		scheduled++
		id := id
		// blocks until a slot is free
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, id)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if scheduled < len(ids) {
		// stopped early because ctx was canceled
		return ctx.Err()
	}
	return nil
}

// readMany reads the records with the given ids of a type from disk.
// Ids without a stored file are omitted from the result. If any stored file is
// empty or corrupt the whole batch fails with that error and no records are returned.
func (s *Store) readMany(ctx context.Context, typeName string, ids []string) (map[string]record.Record, error) {
	start := time.Now()
	defer s.metrics.batch.UpdateDuration(start)

	var mu sync.Mutex
	found := make(map[string]record.Record, len(ids))

	err := s.forEachBounded(ctx, ids, func(_ context.Context, id string) error {
		r, ok, err := s.readRecord(typeName, id)
		if err != nil || !ok {
			return err
		}
		mu.Lock()
		found[id] = r
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, asStoreError(err, s.typeDir(typeName))
	}

	log.Debugf("read %d of %d records of type %s in %s", len(found), len(ids), typeName, time.Since(start))
	return found, nil
}

// readRecord reads and decodes a single stored file. The returned bool is false if the file does not exist.
func (s *Store) readRecord(typeName, id string) (record.Record, bool, error) {
	path := s.recordPath(typeName, id)

	s.metrics.inflight.Add(1)
	data, err := s.readFile(path)
	s.metrics.inflight.Add(-1)
	s.metrics.reads.Inc()

	if isNotExist(err) {
		s.metrics.missing.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, common.WrapError(common.RetCIOError, "failed to read record", path, err)
	}

	r, err := codec.DecodeFile(s.codec, path, data)
	if err != nil {
		if common.HasCode(err, common.RetCDecodeEmpty) {
			s.metrics.decodeEmpty.Inc()
		} else {
			s.metrics.decodeCorrupt.Inc()
		}
		return nil, false, err
	}

	// the stored record must carry the primary key it is stored under
	pk := s.schema.PrimaryKey(typeName)
	if rid, ok := r.ID(pk); !ok || rid != id {
		s.metrics.decodeCorrupt.Inc()
		cause := fmt.Errorf("primary key %q does not match file name", pk)
		return nil, false, common.WrapError(common.RetCDecodeCorrupt, common.ErrDecodeCorrupt.Msg, path, cause)
	}
	return r, true, nil
}
