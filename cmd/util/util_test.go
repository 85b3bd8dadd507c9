package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/spf13/viper"
)

// resetViper sets the given keys and restores a clean viper instance when the test ends
func resetViper(t *testing.T, values map[string]any) {
	t.Helper()
	viper.Reset()
	d := common.DefaultConfig()
	viper.Set("path", d.Path)
	viper.Set("concurrent-reads", "128")
	viper.Set("codec", d.Codec)
	viper.Set("lock-timeout", d.LockTimeout)
	viper.Set("lock-stale", d.LockStaleAfter)
	viper.Set("lock-retry-min", d.LockRetryMin)
	viper.Set("lock-retry-max", d.LockRetryMax)
	viper.Set("log-level", d.LogLevel)
	viper.Set("primary-key", "id")
	for k, v := range values {
		viper.Set(k, v)
	}
	t.Cleanup(viper.Reset)
}

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}
}

func TestGetConfig(t *testing.T) {
	tests := map[string]struct {
		values   map[string]any
		wantCode common.RetCode
		want     int
	}{
		"defaults":         {nil, common.RetCSuccess, 128},
		"concurrent reads": {map[string]any{"concurrent-reads": "4"}, common.RetCSuccess, 4},
		"zero reads":       {map[string]any{"concurrent-reads": "0"}, common.RetCConfigError, 0},
		"negative reads":   {map[string]any{"concurrent-reads": "-1"}, common.RetCConfigError, 0},
		"non-integer":      {map[string]any{"concurrent-reads": "1.5"}, common.RetCConfigError, 0},
		"not a number":     {map[string]any{"concurrent-reads": "many"}, common.RetCConfigError, 0},
		"log level":        {map[string]any{"log-level": "loud"}, common.RetCConfigError, 0},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			resetViper(t, tc.values)
			config, err := GetConfig()
			if tc.wantCode != common.RetCSuccess {
				if !common.HasCode(err, tc.wantCode) {
					t.Fatalf("Expected code %s, got %v", tc.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if config.ConcurrentReads != tc.want {
				t.Errorf("Expected concurrent reads %d, got %d", tc.want, config.ConcurrentReads)
			}
		})
	}
}

func TestGetSchema(t *testing.T) {
	t.Run("types flag", func(t *testing.T) {
		resetViper(t, map[string]any{"types": "user, post", "primary-key": "key"})
		schema, err := GetSchema()
		if err != nil {
			t.Fatalf("GetSchema failed: %v", err)
		}
		if strings.Join(schema.Types(), ",") != "post,user" || schema.PrimaryKey("user") != "key" {
			t.Errorf("Unexpected schema %v", schema)
		}
	})

	t.Run("schema file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.yaml")
		data := "types:\n  user:\n    primaryKey: email\n  post: {}\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		resetViper(t, map[string]any{"schema": path, "types": "ignored"})
		schema, err := GetSchema()
		if err != nil {
			t.Fatalf("GetSchema failed: %v", err)
		}
		if schema.Has("ignored") || schema.PrimaryKey("user") != "email" || schema.PrimaryKey("post") != "id" {
			t.Errorf("Unexpected schema %v", schema)
		}
	})

	t.Run("no types", func(t *testing.T) {
		resetViper(t, nil)
		if _, err := GetSchema(); !common.HasCode(err, common.RetCConfigError) {
			t.Errorf("Expected config error, got %v", err)
		}
	})
}
