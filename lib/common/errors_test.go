package common

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestErrorIs(t *testing.T) {
	cause := os.ErrPermission
	err := WrapError(RetCIOError, "failed to write record", "/tmp/db/foo/1", cause)

	if !errors.Is(err, ErrIO) {
		t.Errorf("Expected errors.Is(err, ErrIO) to be true")
	}
	if errors.Is(err, ErrLock) {
		t.Errorf("Expected errors.Is(err, ErrLock) to be false")
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("Expected the cause to be reachable through errors.Is")
	}

	wrapped := fmt.Errorf("update foo: %w", err)
	if !HasCode(wrapped, RetCIOError) {
		t.Errorf("Expected HasCode to see through fmt.Errorf wrapping")
	}

	joined := errors.Join(errors.New("other"), NewError(RetCLockError, "timeout"))
	if !HasCode(joined, RetCLockError) {
		t.Errorf("Expected HasCode to see through errors.Join")
	}
	if HasCode(nil, RetCLockError) {
		t.Errorf("Expected HasCode(nil) to be false")
	}
}

func TestErrorMessage(t *testing.T) {
	tests := map[string]struct {
		err      *Error
		contains []string
	}{
		"Empty": {
			err:      WrapError(RetCDecodeEmpty, ErrDecodeEmpty.Msg, "db/foo/1", nil),
			contains: []string{"DecodeEmpty", "File is empty", "db/foo/1"},
		},
		"Corrupt": {
			err:      WrapError(RetCDecodeCorrupt, ErrDecodeCorrupt.Msg, "db/foo/6", errors.New("unexpected EOF")),
			contains: []string{"DecodeCorrupt", "File is corrupt", "db/foo/6", "unexpected EOF"},
		},
		"Config": {
			err:      NewError(RetCConfigError, "concurrentReads must be > 0"),
			contains: []string{"ConfigError", "concurrentReads must be > 0"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			msg := tc.err.Error()
			for _, want := range tc.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Expected %q to contain %q", msg, want)
				}
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(c *Config)
		ok     bool
	}{
		"Default":        {mutate: func(c *Config) {}, ok: true},
		"OneRead":        {mutate: func(c *Config) { c.ConcurrentReads = 1 }, ok: true},
		"ZeroReads":      {mutate: func(c *Config) { c.ConcurrentReads = 0 }, ok: false},
		"NegativeReads":  {mutate: func(c *Config) { c.ConcurrentReads = -4 }, ok: false},
		"EmptyPath":      {mutate: func(c *Config) { c.Path = " " }, ok: false},
		"ZeroTimeout":    {mutate: func(c *Config) { c.LockTimeout = 0 }, ok: false},
		"NoStaleRecover": {mutate: func(c *Config) { c.LockStaleAfter = 0 }, ok: true},
		"RetryInverted":  {mutate: func(c *Config) { c.LockRetryMax = c.LockRetryMin / 2 }, ok: false},
		"BadLogLevel":    {mutate: func(c *Config) { c.LogLevel = "verbose" }, ok: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if !tc.ok && !HasCode(err, RetCConfigError) {
				t.Errorf("Expected ConfigError, got %v", err)
			}
		})
	}

	c := DefaultConfig()
	c.ConcurrentReads = 0
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "concurrentReads must be > 0") {
		t.Errorf("Expected concurrentReads message, got %v", err)
	}
}
