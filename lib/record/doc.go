// Package record defines the schema-less record model persisted by recfs.
//
// A Record is a plain map from field name to value. recfs never interprets
// fields other than the primary key of a record's type; the Schema only names
// the known types and the primary key field of each. Primary key values are
// stringified with Key so that stored files, lock markers and the staging cache
// share one addressing scheme.
//
// Update describes a field-level change against a stored record (replace a
// field, push values onto an array field, pull values out of an array field).
// Updates are applied by the default in-memory adapter after the filesystem
// adapter has loaded the latest persisted version of the record.
package record
