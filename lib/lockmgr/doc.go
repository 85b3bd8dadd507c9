// Package lockmgr implements advisory record locks using marker files in the
// storage root. Because the markers live on the filesystem, a lock taken by one
// process is respected by every other process sharing the same storage root,
// not only by the goroutines of the process that took it.
//
// The lockmgr has no in-memory lock state besides its metrics. It is therefore
// safe to create it multiple times on the same storage root; all managers on the
// same root see the same locks.
//
// Core Functionality:
//   - Lock acquisition with ownership tokens
//   - Bounded waiting with exponential backoff and a timeout
//   - Recovery of orphaned markers left behind by crashed processes
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	- Marker Naming: The lock for record id of type t is the file
//	  "{root}/{t}${id}.lock". The marker lives next to the type directories,
//	  not inside them, so it is never mistaken for a stored record. The type
//	  prefix keeps equal ids of different types apart.
//
//	- Lock Acquisition: The marker is created with O_CREATE|O_EXCL, which
//	  guarantees that only one requester can successfully create it. The file
//	  contains a randomly generated owner ID (hex) that identifies the holder.
//
//	- Contention: If the marker exists the requester sleeps and retries. The
//	  sleep starts at RetryMin and doubles after every attempt up to RetryMax.
//	  After Timeout (or when the context is done) a common.RetCLockError is
//	  returned and the caller must not touch the record.
//
//	- Stale Markers: A marker whose modification time is older than StaleAfter
//	  is considered orphaned (its holder crashed between acquire and release). It
//	  is removed, a warning is logged and acquisition is retried immediately.
//	  While a lock is held its manager touches the marker every StaleAfter/3,
//	  so a long running mutation keeps its lock and only markers of crashed
//	  holders age. Setting StaleAfter to 0 disables recovery and refreshing.
//
//	- Safe Release: ReleaseLock first verifies that the marker still contains
//	  the requester's owner ID before deleting it. A marker that was recovered
//	  as stale and re-acquired by someone else is left untouched.
//
// Metrics:
//
//	Each manager owns a go-metrics registry with the timer "lock.acquire" and
//	the counters "lock.contended", "lock.stale" and "lock.timeout". Stats
//	returns a snapshot.
//
// Usage Example:
//
//	locks := lockmgr.NewFileLockManager("db", lockmgr.DefaultOptions())
//
//	ownerID, err := locks.AcquireLock(ctx, "user", "42")
//	if err != nil {
//	    // Handle error (common.RetCLockError)
//	}
//
//	// Mutate the record safely
//	// ...
//
//	if _, err := locks.ReleaseLock("user", "42", ownerID); err != nil {
//	    // Handle error
//	}
package lockmgr
