package store

import (
	"context"

	"github.com/ValentinKolb/recfs/lib/record"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// AdapterFactory is a function type that creates a new adapter for a schema.
// This is used to abstract the creation of the adapter from the code using it.
type AdapterFactory func(schema record.Schema) (IAdapter, error)

// FindOptions restricts the records returned by Find.
// Records are always returned ordered by their stringified primary key.
type FindOptions struct {
	// Offset skips the first records
	Offset int
	// Limit caps the number of returned records, 0 means no limit
	Limit int
	// Fields reduces the returned records to these fields (plus the primary key), empty means all
	Fields []string
}

// IAdapter is the interface the surrounding framework uses to persist records.
// All methods return a *common.Error on failure.
type IAdapter interface {
	// Connect prepares the adapter for use (e.g. creates storage directories).
	Connect(ctx context.Context) (err error)
	// Disconnect releases all resources held by the adapter. The adapter can be connected again.
	Disconnect(ctx context.Context) (err error)
	// Create stores new records and returns them as stored (e.g. with assigned primary keys).
	Create(ctx context.Context, typeName string, records []record.Record) (created []record.Record, err error)
	// Find returns the records with the given ids. Ids that do not exist are omitted.
	// If ids is nil, all records of the type are returned. An empty non-nil slice returns no records.
	Find(ctx context.Context, typeName string, ids []string, opts *FindOptions) (records []record.Record, err error)
	// Update applies field-level updates and returns the number of updated records.
	// Updates for records that do not exist are skipped.
	Update(ctx context.Context, typeName string, updates []record.Update) (count int, err error)
	// Delete removes the records with the given ids and returns how many were removed.
	// If ids is nil, all records of the type are removed. An empty non-nil slice removes nothing.
	// Missing records are not an error.
	Delete(ctx context.Context, typeName string, ids []string) (count int, err error)
}
