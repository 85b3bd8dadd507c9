// Package cmd implements the command-line interface for the recfs record
// store. It provides a hierarchical command structure to work with the
// records and the lock files of a storage root.
//
// The package is organized into several subpackages:
//
//   - record: Commands for record operations (create, find, update, delete, ids, perf)
//   - lock: Commands for lock file operations (acquire, release)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See recfs -help for a list of all commands.
package cmd
