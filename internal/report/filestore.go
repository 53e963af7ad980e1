package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/carebase/carebase/internal/id"
)

// DiskStore writes report files under a base directory, one
// subdirectory per tenant. Stored names are random so an uploaded
// filename can never traverse outside the tenant directory.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates the base directory if needed.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (d *DiskStore) Save(tenantID, fileName string, data []byte) (string, error) {
	dir := filepath.Join(d.baseDir, tenantID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create tenant directory: %w", err)
	}

	stored := id.NewUUIDv7() + filepath.Ext(filepath.Base(fileName))
	path := filepath.Join(dir, stored)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

func (d *DiskStore) Open(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (d *DiskStore) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
