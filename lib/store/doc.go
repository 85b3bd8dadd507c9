// Package store defines the contract between recfs storage adapters and the
// framework that uses them to persist records.
//
// The framework knows the record types (record.Schema) and calls the adapter
// with (type, records-or-ids, options) shaped arguments. The adapter is
// responsible for persistence only: it never validates records against a
// schema or resolves relationships between them.
//
// Key Components:
//
//   - IAdapter Interface: connect, disconnect, create, find, update, delete.
//     All implementations share this interface, so the framework can switch
//     between adapters without code changes. Failures are reported as
//     *common.Error values with a RetCode.
//
//   - FindOptions: offset, limit and field projection applied to the records
//     returned by Find.
//
//   - AdapterFactory: creates an adapter for a schema, used to run the same
//     code (or the same test suite) against different adapters.
//
// Implementations:
//
//	- Memory Store (memstore): keeps all records in a staging cache. It is the
//	  default adapter and implements the framework semantics (primary key
//	  assignment, conflict detection, field-level updates, find options).
//	  Available in the "github.com/ValentinKolb/recfs/lib/store/memstore" package.
//
//	- Filesystem Store (fsstore): stores every record in its own file below a
//	  storage root. It composes memstore for the framework semantics and adds
//	  bounded concurrent reads, per-record lock files and atomic writes.
//	  Available in the "github.com/ValentinKolb/recfs/lib/store/fsstore" package.
//
//	- Staging Cache (cache): the concurrent type -> id -> record map shared
//	  by both implementations.
//
// The conformance suite in "github.com/ValentinKolb/recfs/lib/store/testing"
// runs against every implementation.
package store
