package common

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultPath            = "db"
	DefaultConcurrentReads = 128
	DefaultCodec           = "cbor"
	DefaultLockTimeout     = 10 * time.Second
	DefaultLockStaleAfter  = 60 * time.Second
	DefaultLockRetryMin    = 5 * time.Millisecond
	DefaultLockRetryMax    = 500 * time.Millisecond
	DefaultLogLevel        = "info"
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// Config holds all construction-time options of a filesystem store.
type Config struct {
	// Path is the storage root, one subdirectory per type is created below it
	Path string

	// ConcurrentReads is the maximum number of file reads in flight during a batch read
	ConcurrentReads int

	// Codec is the name of the record codec (cbor, json)
	Codec string

	// Lock parameters
	LockTimeout    time.Duration
	LockStaleAfter time.Duration
	LockRetryMin   time.Duration
	LockRetryMax   time.Duration

	// Logging configuration
	LogLevel string
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Path:            DefaultPath,
		ConcurrentReads: DefaultConcurrentReads,
		Codec:           DefaultCodec,
		LockTimeout:     DefaultLockTimeout,
		LockStaleAfter:  DefaultLockStaleAfter,
		LockRetryMin:    DefaultLockRetryMin,
		LockRetryMax:    DefaultLockRetryMax,
		LogLevel:        DefaultLogLevel,
	}
}

// Validate checks the configuration without touching the filesystem.
// Every violation is reported as a RetCConfigError.
func (c *Config) Validate() error {
	if c.ConcurrentReads <= 0 {
		return NewError(RetCConfigError, "concurrentReads must be > 0")
	}
	if strings.TrimSpace(c.Path) == "" {
		return NewError(RetCConfigError, "path must not be empty")
	}
	if c.LockTimeout <= 0 {
		return NewError(RetCConfigError, "lockTimeout must be > 0")
	}
	if c.LockStaleAfter < 0 {
		return NewError(RetCConfigError, "lockStaleAfter must be >= 0")
	}
	if c.LockRetryMin <= 0 || c.LockRetryMax < c.LockRetryMin {
		return NewError(RetCConfigError, "lock retry interval must satisfy 0 < min <= max")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Storage
	addSection("Storage")
	addField("Path", c.Path)
	addField("Codec", c.Codec)
	addField("Concurrent Reads", fmt.Sprintf("%d", c.ConcurrentReads))

	// Locks
	addSection("Locks")
	addField("Timeout", c.LockTimeout.String())
	if c.LockStaleAfter > 0 {
		addField("Stale After", c.LockStaleAfter.String())
	} else {
		addField("Stale After", "disabled")
	}
	addField("Retry Interval", fmt.Sprintf("%s - %s", c.LockRetryMin, c.LockRetryMax))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
