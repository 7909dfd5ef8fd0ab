// Package media stores uploaded dataset files on the local filesystem,
// laid out as <root>/<owner>/<dataset>/<file>.
package media

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is a filesystem-backed media store.
type Store struct {
	root string
}

// NewStore creates a store rooted at root. The root directory is created on
// first save, not here.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Create makes the dataset directory so an empty dataset is still visible
// on disk.
func (s *Store) Create(owner, dataset string) error {
	if err := os.MkdirAll(filepath.Join(s.root, owner, dataset), 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}
	return nil
}

// Save writes one uploaded file under the owner's dataset directory. The
// file name is reduced to its base component so client-supplied paths cannot
// escape the dataset directory.
func (s *Store) Save(owner, dataset, name string, data []byte) error {
	dir := filepath.Join(s.root, owner, dataset)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}

// Rename moves a dataset directory to a new name. A dataset that never
// received files has no directory; that is not an error.
func (s *Store) Rename(owner, oldName, newName string) error {
	oldPath := filepath.Join(s.root, owner, oldName)
	if _, err := os.Stat(oldPath); os.IsNotExist(err) {
		return nil
	}

	newPath := filepath.Join(s.root, owner, newName)
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename dataset directory: %w", err)
	}
	return nil
}

// Remove deletes a dataset directory and everything under it.
func (s *Store) Remove(owner, dataset string) error {
	path := filepath.Join(s.root, owner, dataset)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove dataset directory: %w", err)
	}
	return nil
}
