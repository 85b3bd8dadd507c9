package lockmgr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/recfs/lib/common"
)

func testOptions() Options {
	return Options{
		Timeout:    2 * time.Second,
		StaleAfter: time.Minute,
		RetryMin:   time.Millisecond,
		RetryMax:   10 * time.Millisecond,
	}
}

func TestAcquireRelease(t *testing.T) {
	root := t.TempDir()
	lm := NewFileLockManager(root, testOptions())

	ownerID, err := lm.AcquireLock(context.Background(), "foo", "3")
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	marker := filepath.Join(root, "foo$3.lock")
	if lm.MarkerPath("foo", "3") != marker {
		t.Errorf("Expected marker path %s, got %s", marker, lm.MarkerPath("foo", "3"))
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("Expected marker to exist: %v", err)
	}

	ok, err := lm.ReleaseLock("foo", "3", ownerID)
	if err != nil || !ok {
		t.Fatalf("Failed to release lock: ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("Expected marker to be removed, got %v", err)
	}

	// Releasing again is fine
	ok, err = lm.ReleaseLock("foo", "3", ownerID)
	if err != nil || !ok {
		t.Errorf("Expected second release to report ok, got ok=%v err=%v", ok, err)
	}
}

func TestReleaseWrongOwner(t *testing.T) {
	lm := NewFileLockManager(t.TempDir(), testOptions())

	ownerID, err := lm.AcquireLock(context.Background(), "foo", "1")
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	ok, err := lm.ReleaseLock("foo", "1", []byte("someone else"))
	if err != nil || ok {
		t.Fatalf("Expected release with wrong owner to fail without error, got ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(lm.MarkerPath("foo", "1")); err != nil {
		t.Errorf("Expected marker to survive a foreign release: %v", err)
	}

	if ok, err := lm.ReleaseLock("foo", "1", ownerID); err != nil || !ok {
		t.Errorf("Expected owner release to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestTypeNamespacing(t *testing.T) {
	lm := NewFileLockManager(t.TempDir(), testOptions())
	ctx := context.Background()

	foo, err := lm.AcquireLock(ctx, "foo", "3")
	if err != nil {
		t.Fatalf("Failed to acquire foo/3: %v", err)
	}
	bar, err := lm.AcquireLock(ctx, "bar", "3")
	if err != nil {
		t.Fatalf("Expected bar/3 not to contend with foo/3: %v", err)
	}
	_, _ = lm.ReleaseLock("foo", "3", foo)
	_, _ = lm.ReleaseLock("bar", "3", bar)
}

func TestContentionWaitsForRelease(t *testing.T) {
	lm := NewFileLockManager(t.TempDir(), testOptions())
	ctx := context.Background()

	first, err := lm.AcquireLock(ctx, "foo", "1")
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	var released atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		released.Store(true)
		_, _ = lm.ReleaseLock("foo", "1", first)
	}()

	second, err := lm.AcquireLock(ctx, "foo", "1")
	if err != nil {
		t.Fatalf("Expected second acquire to succeed after release: %v", err)
	}
	if !released.Load() {
		t.Errorf("Second acquire returned before the first holder released")
	}
	_, _ = lm.ReleaseLock("foo", "1", second)

	if c := lm.Stats()["lock.contended"]["count"]; c != int64(1) {
		t.Errorf("Expected one contended acquisition, got %v", c)
	}
}

func TestMutualExclusion(t *testing.T) {
	lm := NewFileLockManager(t.TempDir(), testOptions())
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		inside   atomic.Int32
		violated atomic.Bool
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner, err := lm.AcquireLock(ctx, "foo", "x")
			if err != nil {
				t.Errorf("Failed to acquire lock: %v", err)
				return
			}
			if inside.Add(1) != 1 {
				violated.Store(true)
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			if _, err := lm.ReleaseLock("foo", "x", owner); err != nil {
				t.Errorf("Failed to release lock: %v", err)
			}
		}()
	}
	wg.Wait()

	if violated.Load() {
		t.Errorf("Two holders were inside the critical section at the same time")
	}
}

func TestAcquireTimeout(t *testing.T) {
	opts := testOptions()
	opts.Timeout = 30 * time.Millisecond
	lm := NewFileLockManager(t.TempDir(), opts)

	if _, err := lm.AcquireLock(context.Background(), "foo", "1"); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	start := time.Now()
	_, err := lm.AcquireLock(context.Background(), "foo", "1")
	if !errors.Is(err, common.ErrLock) {
		t.Fatalf("Expected LockError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected the deadline to be the cause, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Acquire did not respect the timeout, took %s", elapsed)
	}
	if c := lm.Stats()["lock.timeout"]["count"]; c != int64(1) {
		t.Errorf("Expected one timeout, got %v", c)
	}
}

func TestAcquireContextCanceled(t *testing.T) {
	lm := NewFileLockManager(t.TempDir(), testOptions())
	if _, err := lm.AcquireLock(context.Background(), "foo", "1"); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := lm.AcquireLock(ctx, "foo", "1")
	if !common.HasCode(err, common.RetCLockError) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected LockError caused by cancellation, got %v", err)
	}
}

func TestStaleMarkerRecovery(t *testing.T) {
	root := t.TempDir()
	opts := testOptions()
	opts.StaleAfter = time.Second
	lm := NewFileLockManager(root, opts)

	// Simulate a crashed holder
	marker := lm.MarkerPath("foo", "1")
	if err := os.WriteFile(marker, []byte("deadbeef"), 0o644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(marker, old, old); err != nil {
		t.Fatalf("Failed to age marker: %v", err)
	}

	owner, err := lm.AcquireLock(context.Background(), "foo", "1")
	if err != nil {
		t.Fatalf("Expected stale marker to be recovered: %v", err)
	}
	if ok, err := lm.ReleaseLock("foo", "1", owner); err != nil || !ok {
		t.Errorf("Failed to release recovered lock: ok=%v err=%v", ok, err)
	}
	if c := lm.Stats()["lock.stale"]["count"]; c != int64(1) {
		t.Errorf("Expected one stale recovery, got %v", c)
	}
}

func TestHeldLockIsNotStale(t *testing.T) {
	root := t.TempDir()
	opts := testOptions()
	opts.StaleAfter = 150 * time.Millisecond
	holder := NewFileLockManager(root, opts)

	opts.Timeout = 50 * time.Millisecond
	other := NewFileLockManager(root, opts)

	owner, err := holder.AcquireLock(context.Background(), "foo", "1")
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	// held for longer than StaleAfter
	time.Sleep(3 * opts.StaleAfter)

	if _, err := other.AcquireLock(context.Background(), "foo", "1"); !common.HasCode(err, common.RetCLockError) {
		t.Fatalf("Expected held lock not to be taken over, got %v", err)
	}
	if c := other.Stats()["lock.stale"]["count"]; c != int64(0) {
		t.Errorf("Expected no stale recovery, got %v", c)
	}

	if ok, err := holder.ReleaseLock("foo", "1", owner); err != nil || !ok {
		t.Fatalf("ReleaseLock failed: ok=%v err=%v", ok, err)
	}

	opts.Timeout = time.Second
	other = NewFileLockManager(root, opts)
	owner, err = other.AcquireLock(context.Background(), "foo", "1")
	if err != nil {
		t.Fatalf("Expected lock to be free after release: %v", err)
	}
	_, _ = other.ReleaseLock("foo", "1", owner)
}

func TestStaleRecoveryDisabled(t *testing.T) {
	opts := testOptions()
	opts.StaleAfter = 0
	opts.Timeout = 30 * time.Millisecond
	lm := NewFileLockManager(t.TempDir(), opts)

	marker := lm.MarkerPath("foo", "1")
	if err := os.WriteFile(marker, []byte("deadbeef"), 0o644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	_ = os.Chtimes(marker, old, old)

	if _, err := lm.AcquireLock(context.Background(), "foo", "1"); !common.HasCode(err, common.RetCLockError) {
		t.Fatalf("Expected LockError with stale recovery disabled, got %v", err)
	}
}

func TestAcquireMissingRoot(t *testing.T) {
	lm := NewFileLockManager(filepath.Join(t.TempDir(), "missing"), testOptions())
	if _, err := lm.AcquireLock(context.Background(), "foo", "1"); !common.HasCode(err, common.RetCLockError) {
		t.Fatalf("Expected LockError for missing root, got %v", err)
	}
}

func TestAcquireInvalidID(t *testing.T) {
	lm := NewFileLockManager(t.TempDir(), testOptions())
	if _, err := lm.AcquireLock(context.Background(), "foo", "../x"); !common.HasCode(err, common.RetCInvalidOperation) {
		t.Fatalf("Expected InvalidOperation for invalid id, got %v", err)
	}
}
