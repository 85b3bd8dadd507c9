package lockmgr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rcrowley/go-metrics"
)

var log = logger.GetLogger(common.LoggerLockMgr)

// Options configures the retry policy of a file lock manager.
type Options struct {
	// Timeout is the maximum time AcquireLock waits for a contended lock
	Timeout time.Duration
	// StaleAfter is the age after which a marker is considered orphaned and removed, 0 disables recovery.
	// Markers of held locks are touched every StaleAfter/3, so only markers of crashed holders age.
	StaleAfter time.Duration
	// RetryMin is the first backoff interval, it doubles after every failed attempt
	RetryMin time.Duration
	// RetryMax caps the backoff interval
	RetryMax time.Duration
}

// DefaultOptions returns the default retry policy.
func DefaultOptions() Options {
	return Options{
		Timeout:    common.DefaultLockTimeout,
		StaleAfter: common.DefaultLockStaleAfter,
		RetryMin:   common.DefaultLockRetryMin,
		RetryMax:   common.DefaultLockRetryMax,
	}
}

// OptionsFromConfig extracts the lock options of a store configuration.
func OptionsFromConfig(c common.Config) Options {
	return Options{
		Timeout:    c.LockTimeout,
		StaleAfter: c.LockStaleAfter,
		RetryMin:   c.LockRetryMin,
		RetryMax:   c.LockRetryMax,
	}
}

// heldLock is a lock acquired by this manager whose marker is kept fresh
type heldLock struct {
	owner []byte
	stop  chan struct{}
}

type fileLockMgrImpl struct {
	root string
	opts Options

	// held maps marker paths to the locks this manager holds
	held *xsync.MapOf[string, heldLock]

	registry  metrics.Registry
	acquire   metrics.Timer
	contended metrics.Counter
	stale     metrics.Counter
	timeouts  metrics.Counter
}

// NewFileLockManager creates a lock manager that stores lock markers in root.
// Zero values in opts are replaced by the defaults.
func NewFileLockManager(root string, opts Options) ILockManager {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RetryMin <= 0 {
		opts.RetryMin = def.RetryMin
	}
	if opts.RetryMax < opts.RetryMin {
		opts.RetryMax = opts.RetryMin
	}

	registry := metrics.NewRegistry()
	return &fileLockMgrImpl{
		root:      root,
		opts:      opts,
		held:      xsync.NewMapOf[string, heldLock](),
		registry:  registry,
		acquire:   metrics.GetOrRegisterTimer("lock.acquire", registry),
		contended: metrics.GetOrRegisterCounter("lock.contended", registry),
		stale:     metrics.GetOrRegisterCounter("lock.stale", registry),
		timeouts:  metrics.GetOrRegisterCounter("lock.timeout", registry),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lockmgr.ILockManager)
// --------------------------------------------------------------------------

func (lm *fileLockMgrImpl) MarkerPath(typeName, id string) string {
	return filepath.Join(lm.root, typeName+"$"+id+".lock")
}

func (lm *fileLockMgrImpl) AcquireLock(ctx context.Context, typeName, id string) ([]byte, error) {
	if err := record.ValidateID(id); err != nil {
		return nil, err
	}

	start := time.Now()
	path := lm.MarkerPath(typeName, id)

	ownerID, err := generateOwnerID()
	if err != nil {
		return nil, common.WrapError(common.RetCLockError, "failed to generate owner id", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, lm.opts.Timeout)
	defer cancel()

	backoff := lm.opts.RetryMin
	contended := false
	for {
		// Try to create the marker (O_EXCL guarantees only one creator wins)
		created, err := lm.tryCreate(path, ownerID)
		if err != nil {
			return nil, common.WrapError(common.RetCLockError, "failed to create lock marker", path, err)
		}
		if created {
			lm.acquire.UpdateSince(start)
			lm.startRefresh(path, ownerID)
			return ownerID, nil
		}

		if !contended {
			contended = true
			lm.contended.Inc(1)
		}

		// An orphaned marker is removed and the lock retried right away
		if lm.removeIfStale(path) {
			continue
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			lm.timeouts.Inc(1)
			return nil, common.WrapError(common.RetCLockError,
				fmt.Sprintf("lock for %s/%s not acquired within %s", typeName, id, lm.opts.Timeout), path, ctx.Err())
		case <-timer.C:
		}

		backoff *= 2
		if backoff > lm.opts.RetryMax {
			backoff = lm.opts.RetryMax
		}
	}
}

func (lm *fileLockMgrImpl) ReleaseLock(typeName, id string, ownerID []byte) (bool, error) {
	path := lm.MarkerPath(typeName, id)
	lm.stopRefresh(path, ownerID)

	// Check if the lock exists
	value, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, common.WrapError(common.RetCLockError, "failed to read lock marker", path, err)
	}

	// Check if the lock is owned by us
	if !bytes.Equal(encodeOwnerID(ownerID), value) {
		return false, nil
	}

	// Release the lock
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, common.WrapError(common.RetCLockError, "failed to remove lock marker", path, err)
	}
	return true, nil
}

func (lm *fileLockMgrImpl) Stats() map[string]map[string]interface{} {
	return lm.registry.GetAll()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// tryCreate creates the marker file containing the owner id.
// It returns false (and no error) if the marker already exists.
func (lm *fileLockMgrImpl) tryCreate(path string, ownerID []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, werr := f.Write(encodeOwnerID(ownerID))
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return false, errors.Join(err, os.Remove(path))
	}
	return true, nil
}

// removeIfStale removes the marker if it is older than StaleAfter.
// It returns true if the marker is gone and the lock should be retried immediately.
func (lm *fileLockMgrImpl) removeIfStale(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	if err != nil || lm.opts.StaleAfter <= 0 {
		return false
	}

	age := time.Since(info.ModTime())
	if age < lm.opts.StaleAfter {
		return false
	}

	// Two processes may both see the stale marker, the race is limited to markers older than StaleAfter
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Errorf("failed to remove stale lock marker %s: %v", path, err)
		return false
	}
	lm.stale.Inc(1)
	log.Warningf("removed stale lock marker %s (age %s)", path, age.Round(time.Millisecond))
	return true
}

// startRefresh touches the marker every StaleAfter/3 until stopRefresh is called
func (lm *fileLockMgrImpl) startRefresh(path string, ownerID []byte) {
	if lm.opts.StaleAfter <= 0 {
		return
	}
	interval := lm.opts.StaleAfter / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}

	h := heldLock{owner: ownerID, stop: make(chan struct{})}
	lm.held.Store(path, h)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				now := time.Now()
				if err := os.Chtimes(path, now, now); err != nil {
					if errors.Is(err, fs.ErrNotExist) {
						return
					}
					log.Warningf("failed to refresh lock marker %s: %v", path, err)
				}
			}
		}
	}()
}

// stopRefresh stops refreshing the marker if it is held by ownerID
func (lm *fileLockMgrImpl) stopRefresh(path string, ownerID []byte) {
	lm.held.Compute(path, func(h heldLock, loaded bool) (heldLock, bool) {
		if loaded && bytes.Equal(h.owner, ownerID) {
			close(h.stop)
			return h, true
		}
		// keep a lock of another owner, never insert a missing one
		return h, !loaded
	})
}
