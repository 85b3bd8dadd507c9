package fsstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
)

// typeDir returns the directory holding the records of a type
func (s *Store) typeDir(typeName string) string {
	return filepath.Join(s.config.Path, typeName)
}

// recordPath returns the path of the stored file of a record
func (s *Store) recordPath(typeName, id string) string {
	return filepath.Join(s.config.Path, typeName, id)
}

// ensureDirectory creates the directory of a type (and its parents) if it does not exist.
func (s *Store) ensureDirectory(typeName string) error {
	dir := s.typeDir(typeName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return common.WrapError(common.RetCIOError, "failed to create type directory", dir, err)
	}
	return nil
}

// listIDs returns the sorted ids of all records currently stored for a type.
// Subdirectories and hidden files (temporary files of in-progress writes) are skipped.
// A missing type directory is an error, not an empty result.
func (s *Store) listIDs(typeName string) ([]string, error) {
	dir := s.typeDir(typeName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.WrapError(common.RetCIOError, "failed to list type directory", dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// IDs returns the ids of all records currently stored for a type.
func (s *Store) IDs(_ context.Context, typeName string) ([]string, error) {
	if _, err := s.session(typeName); err != nil {
		return nil, err
	}
	return s.listIDs(typeName)
}

// resolveIDs returns the given ids (validated, deduplicated and sorted) or, if
// ids is nil, the ids currently stored for the type. An empty non-nil slice
// selects no records.
func (s *Store) resolveIDs(typeName string, ids []string) ([]string, error) {
	if ids == nil {
		return s.listIDs(typeName)
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if err := record.ValidateID(id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// isNotExist reports whether err means the file does not exist
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
