package record

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ValentinKolb/recfs/lib/common"
	"gopkg.in/yaml.v3"
)

// TypeDef describes one record type.
type TypeDef struct {
	// PrimaryKey is the field whose value identifies a record, defaults to "id"
	PrimaryKey string `yaml:"primaryKey"`
}

// Schema maps type names to their definition.
type Schema map[string]TypeDef

// NewSchema creates a schema with the given types, all using primaryKey.
func NewSchema(primaryKey string, types ...string) Schema {
	s := make(Schema, len(types))
	for _, t := range types {
		s[t] = TypeDef{PrimaryKey: primaryKey}
	}
	return s
}

// Types returns the sorted type names.
func (s Schema) Types() []string {
	types := make([]string, 0, len(s))
	for t := range s {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Has reports whether the type is part of the schema.
func (s Schema) Has(typeName string) bool {
	_, ok := s[typeName]
	return ok
}

// PrimaryKey returns the primary key field of a type.
func (s Schema) PrimaryKey(typeName string) string {
	if def, ok := s[typeName]; ok && def.PrimaryKey != "" {
		return def.PrimaryKey
	}
	return DefaultPrimaryKey
}

// Validate checks that all type names can be used as directory names.
// Type names must not be empty, must not start with a dot and must not contain
// a path separator or '$' (which separates type and id in lock marker names).
func (s Schema) Validate() error {
	if len(s) == 0 {
		return common.NewError(common.RetCConfigError, "schema contains no types")
	}
	for name := range s {
		if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\$`) {
			return common.NewError(common.RetCConfigError, fmt.Sprintf("invalid type name %q", name))
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Schema files
// --------------------------------------------------------------------------

// schemaFile is the on-disk layout of a schema file:
//
//	types:
//	  user:
//	    primaryKey: id
//	  post: {}
type schemaFile struct {
	Types map[string]TypeDef `yaml:"types"`
}

// ParseSchema parses a YAML schema document.
func ParseSchema(data []byte) (Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, common.WrapError(common.RetCConfigError, "failed to parse schema", "", err)
	}
	s := make(Schema, len(f.Types))
	for name, def := range f.Types {
		if def.PrimaryKey == "" {
			def.PrimaryKey = DefaultPrimaryKey
		}
		s[name] = def
	}
	return s, s.Validate()
}

// LoadSchema reads and parses a YAML schema file.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(common.RetCConfigError, "failed to read schema", path, err)
	}
	return ParseSchema(data)
}
