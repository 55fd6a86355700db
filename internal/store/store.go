// Package store reads and writes the YAML materials document: the source of
// truth for per-material data and the destination for accepted generations.
// The document is read whole and written whole; writes go through a temp file
// and rename so an interrupted write never corrupts the original.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zbeam/zbeam/internal/errors"
)

type document struct {
	Materials map[string]map[string]any `yaml:"materials"`
}

// Store is a whole-document adapter over one materials YAML file. It assumes
// a single writer (CLI usage); no cross-process locking is attempted.
type Store struct {
	path string
	doc  document
}

// Load reads the materials document at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigInvalid("materials_path", err.Error())
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewConfigInvalid("materials_path", "malformed YAML: "+err.Error())
	}
	if doc.Materials == nil {
		return nil, errors.NewConfigInvalid("materials_path", "document has no materials mapping")
	}

	return &Store{path: path, doc: doc}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Items returns material names in sorted order.
func (s *Store) Items() []string {
	names := make([]string, 0, len(s.doc.Materials))
	for name := range s.doc.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ItemData returns the mapping for one material. Missing materials are a
// hard NOT_FOUND, never an empty default.
func (s *Store) ItemData(name string) (map[string]any, error) {
	item, ok := s.doc.Materials[name]
	if !ok {
		return nil, errors.NewNotFound(name)
	}
	return item, nil
}

// WriteComponent stores the value under the component-type key of the named
// material and persists the whole document atomically: marshal, write to a
// temp file in the same directory, fsync, rename. The in-memory document is
// reloaded from disk afterwards so the cache always reflects the file.
func (s *Store) WriteComponent(name, componentType string, value any) error {
	item, ok := s.doc.Materials[name]
	if !ok {
		return errors.NewNotFound(name)
	}
	item[componentType] = value

	data, err := yaml.Marshal(s.doc)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("marshal materials document: %w", err))
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".materials-*.yaml.tmp")
	if err != nil {
		return errors.NewInternal(fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.NewInternal(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return errors.NewInternal(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("close temp file: %w", err))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.NewInternal(fmt.Errorf("finalize write: %w", err))
	}
	success = true

	return s.reload()
}

// reload re-reads the document from disk, invalidating the in-memory copy.
func (s *Store) reload() error {
	fresh, err := Load(s.path)
	if err != nil {
		return err
	}
	s.doc = fresh.doc
	return nil
}
