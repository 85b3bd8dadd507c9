// Package cache implements the staging cache: a volatile, process-local
// projection of records keyed by (type, stringified primary key), the same
// addressing scheme as the stored files.
//
// The cache is populated by reads and consumed by the mutation paths, which
// merge the latest persisted state of a record with the changes requested by
// the framework before writing it back. It is never authoritative; the files
// on disk are. A cache lives as long as the adapter connection that owns it.
//
// Cached records are treated as immutable values. Writers replace a record
// with a modified clone instead of changing it in place, so a record returned
// by Get can be read without holding a lock.
package cache
