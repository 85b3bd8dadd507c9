package lockmgr

import "context"

// ILockManager defines the interface for a record lock provider.
// Locks are identified by the pair (type, id) so equal ids of different types never contend.
type ILockManager interface {
	// AcquireLock blocks until the lock for the record is held by the caller, the
	// configured timeout passes or ctx is done. It returns the owner ID that has
	// to be passed to ReleaseLock. Failure is reported as a common.RetCLockError.
	AcquireLock(ctx context.Context, typeName, id string) (ownerID []byte, err error)

	// ReleaseLock releases the lock for the record if it is held by ownerID.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// The method will also return True if the lock did not exist.
	ReleaseLock(typeName, id string, ownerID []byte) (ok bool, err error)

	// MarkerPath returns the path of the marker file representing the lock.
	MarkerPath(typeName, id string) string

	// Stats returns a snapshot of the lock metrics of this manager.
	Stats() map[string]map[string]interface{}
}
