package templates

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore abstracts template file storage so services can be tested
// without touching the real template directory.
type FileStore interface {
	WriteFile(dir, name string, data []byte) error
	ReadFile(dir, name string) ([]byte, error)
	Exists(dir, name string) bool
	CopyAll(srcDir, dstDir string) error
	Path(dir, name string) string
}

// DiskStore keeps template files under a root directory, one subdirectory
// per template.
type DiskStore struct {
	root string
}

// NewDiskStore constructs a DiskStore rooted at root.
func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

// WriteFile stores data under dir/name, creating the directory if needed.
func (s *DiskStore) WriteFile(dir, name string, data []byte) error {
	target := filepath.Join(s.root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("templates: mkdir %s: %w", target, err)
	}
	if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
		return fmt.Errorf("templates: write %s/%s: %w", dir, name, err)
	}
	return nil
}

// ReadFile loads dir/name.
func (s *DiskStore) ReadFile(dir, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, dir, name))
	if err != nil {
		return nil, fmt.Errorf("templates: read %s/%s: %w", dir, name, err)
	}
	return data, nil
}

// Exists reports whether dir/name is present.
func (s *DiskStore) Exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(s.root, dir, name))
	return err == nil
}

// CopyAll copies every regular file from srcDir into dstDir. Used when a
// template is renamed without re-uploading its files.
func (s *DiskStore) CopyAll(srcDir, dstDir string) error {
	src := filepath.Join(s.root, srcDir)
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("templates: read dir %s: %w", srcDir, err)
	}
	if err := os.MkdirAll(filepath.Join(s.root, dstDir), 0o755); err != nil {
		return fmt.Errorf("templates: mkdir %s: %w", dstDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, entry.Name()))
		if err != nil {
			return fmt.Errorf("templates: copy %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(s.root, dstDir, entry.Name()), data, 0o644); err != nil {
			return fmt.Errorf("templates: copy %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Path returns the absolute location of dir/name.
func (s *DiskStore) Path(dir, name string) string {
	return filepath.Join(s.root, dir, name)
}
