package fsstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ValentinKolb/recfs/lib/codec"
	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/lockmgr"
	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/ValentinKolb/recfs/lib/store"
	"github.com/ValentinKolb/recfs/lib/store/cache"
	"github.com/ValentinKolb/recfs/lib/store/memstore"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger(common.LoggerStore)

// Store is the filesystem adapter. Every record is stored in its own file
// "{path}/{type}/{id}" and every type has its own directory.
type Store struct {
	config  common.Config
	schema  record.Schema
	codec   codec.IRecordCodec
	locks   lockmgr.ILockManager
	metrics *storeMetrics

	// mem is the default adapter over the staging cache of the current connection, nil if disconnected
	mu  sync.RWMutex
	mem *memstore.MemoryStore

	// readFile reads a stored file, replaced in tests to observe read concurrency
	readFile func(name string) ([]byte, error)
}

// NewFileSystemStore creates a filesystem adapter for the schema.
// The configuration is validated before any I/O happens; invalid options
// (e.g. ConcurrentReads <= 0) fail with a common.RetCConfigError.
func NewFileSystemStore(schema record.Schema, config common.Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	c, err := codec.ByName(config.Codec)
	if err != nil {
		return nil, err
	}

	return &Store{
		config:   config,
		schema:   schema,
		codec:    c,
		locks:    lockmgr.NewFileLockManager(config.Path, lockmgr.OptionsFromConfig(config)),
		metrics:  newStoreMetrics(),
		readFile: os.ReadFile,
	}, nil
}

// Factory returns a store.AdapterFactory creating filesystem stores with the given configuration.
func Factory(config common.Config) store.AdapterFactory {
	return func(schema record.Schema) (store.IAdapter, error) {
		return NewFileSystemStore(schema, config)
	}
}

// Config returns the configuration of this store instance.
func (s *Store) Config() common.Config {
	return s.config
}

// Schema returns the schema of this store instance.
func (s *Store) Schema() record.Schema {
	return s.schema
}

// Locks returns the lock manager guarding updates of this store.
func (s *Store) Locks() lockmgr.ILockManager {
	return s.locks
}

// WritePrometheus writes the metrics of this store in Prometheus text format.
func (s *Store) WritePrometheus(w io.Writer) {
	s.metrics.set.WritePrometheus(w)
}

// session returns the memory store of the current connection after checking the type
func (s *Store) session(typeName string) (*memstore.MemoryStore, error) {
	s.mu.RLock()
	mem := s.mem
	s.mu.RUnlock()

	if mem == nil {
		return nil, common.NewError(common.RetCInvalidOperation, "store is not connected")
	}
	if !s.schema.Has(typeName) {
		return nil, common.NewError(common.RetCInvalidOperation, fmt.Sprintf("unknown type %q", typeName))
	}
	return mem, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *Store) Connect(_ context.Context) error {
	if err := os.MkdirAll(s.config.Path, 0o755); err != nil {
		return common.WrapError(common.RetCIOError, "failed to create storage root", s.config.Path, err)
	}
	for _, t := range s.schema.Types() {
		if err := s.ensureDirectory(t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.mem = memstore.NewMemoryStore(s.schema, cache.New())
	s.mu.Unlock()

	log.Infof("connected to %s (types: %s, codec: %s, concurrent reads: %d)",
		s.config.Path, strings.Join(s.schema.Types(), ","), s.codec.Name(), s.config.ConcurrentReads)
	return nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	mem := s.mem
	s.mem = nil
	s.mu.Unlock()

	if mem == nil {
		return nil
	}
	return mem.Disconnect(ctx)
}
