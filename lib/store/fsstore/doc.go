// Package fsstore implements the filesystem adapter of the store.IAdapter
// interface. Every record is persisted as an individual file:
//
//	{path}/{type}/{id}          the stored file (encoded with the configured codec)
//	{path}/{type}${id}.lock     the lock marker held while the record is updated
//
// Key Components:
//
//   - Directory Store: one directory per type, created on Connect. Listing a
//     type returns the file names currently present, skipping directories and
//     hidden files. A missing type directory is reported as an IOError.
//
//   - Bounded Reader: bulk reads run on an errgroup limited to
//     Config.ConcurrentReads reads in flight. The ceiling belongs to the store
//     instance, two stores with different settings never share it. Missing
//     files are omitted from the result, an empty or corrupt file aborts the
//     whole batch with RetCDecodeEmpty or RetCDecodeCorrupt.
//
//   - Staging Cache: every connection owns a cache.Cache filled by reads. The
//     framework semantics (primary key assignment, conflicts, field-level
//     updates, find options) are delegated to a memstore.MemoryStore over
//     this cache.
//
//   - Mutation Pipeline: Create writes new files without locking. Update
//     locks all affected records (sorted by id), reads their latest state from
//     disk, applies the updates, writes the records and releases all locks,
//     also when a step failed. Delete removes the files of the given ids (or,
//     for nil ids, of all ids present at call time) and skips files that are
//     already gone.
//
// Writes are atomic: the record is written to a hidden temporary file in the
// type directory, synced and renamed over the stored file.
//
// Metrics:
//
// Every store owns a VictoriaMetrics set (reads, missing reads, decode errors
// by kind, writes, deletes, reads in flight and read batch durations) that can
// be exported with Store.WritePrometheus.
//
// Usage Example:
//
//	config := common.DefaultConfig()
//	config.Path = "/var/lib/recfs"
//	s, err := fsstore.NewFileSystemStore(record.NewSchema("id", "user"), config)
//	if err != nil {
//		return err
//	}
//	if err := s.Connect(ctx); err != nil {
//		return err
//	}
//	defer s.Disconnect(ctx)
//	users, err := s.Find(ctx, "user", nil, &store.FindOptions{Limit: 10})
package fsstore
