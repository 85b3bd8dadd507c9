// Package common holds the pieces shared by every other package of recfs:
// the error taxonomy, the process configuration and the logger factory.
//
// Error Handling:
//
//	Every failure that leaves a recfs package is a *Error carrying a RetCode.
//	Callers branch on the code rather than on message text:
//
//	  if common.HasCode(err, common.RetCDecodeEmpty) {
//	      // the stored file is zero bytes long, recreate the record
//	  }
//
//	Errors with the same code compare equal under errors.Is, so the exported
//	sentinels (ErrConfig, ErrIO, ErrLock, ...) can be used as targets:
//
//	  if errors.Is(err, common.ErrLock) { ... }
//
//	The original cause (an *os.PathError, a CBOR syntax error, a context
//	deadline) stays reachable through errors.Unwrap / errors.As.
//
// Configuration:
//
//	Config is the construction-time configuration of a filesystem store. It
//	is always owned by a single store instance; two stores in the same
//	process can use different read ceilings without affecting each other.
//	Config.Validate performs no I/O.
//
// Logging:
//
//	recfs uses the logger facade of Dragonboat (logger.GetLogger). InitLoggers
//	replaces the default factory with one that prints aligned
//	"LEVEL | package | message" lines and sets the level for all recfs loggers.
package common
