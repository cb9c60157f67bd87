package billing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Artifact file names inside an invoice directory.
const (
	RenderedFileName = "rendered.html"
	PDFFileName      = "invoice.pdf"
	logoBaseName     = "uploaded_logo"
)

// logoExtensions is the probe order when looking for a previously
// uploaded logo.
var logoExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg"}

// ArtifactStore persists the files produced for one invoice: the copied
// stylesheet, the payment slip, an optional logo, the rendered HTML and
// the final PDF.
type ArtifactStore interface {
	Dir(invoiceID int64) string
	Write(invoiceID int64, name string, data []byte) error
	Read(invoiceID int64, name string) ([]byte, error)
	Exists(invoiceID int64, name string) bool
	Path(invoiceID int64, name string) string
	RemoveAll(invoiceID int64) error
}

// DiskArtifacts stores invoice artifacts under root/invoice_<id>/.
type DiskArtifacts struct {
	root string
}

// NewDiskArtifacts constructs a store rooted at dir, creating it if
// needed.
func NewDiskArtifacts(dir string) (*DiskArtifacts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("billing: create artifact root: %w", err)
	}
	return &DiskArtifacts{root: dir}, nil
}

func (d *DiskArtifacts) Dir(invoiceID int64) string {
	return filepath.Join(d.root, fmt.Sprintf("invoice_%d", invoiceID))
}

func (d *DiskArtifacts) Path(invoiceID int64, name string) string {
	return filepath.Join(d.Dir(invoiceID), name)
}

// Write stages the file under a random name and renames it into place so
// a crash never leaves a half-written artifact behind.
func (d *DiskArtifacts) Write(invoiceID int64, name string, data []byte) error {
	dir := d.Dir(invoiceID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("billing: create invoice dir: %w", err)
	}
	staging := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(staging, data, 0o644); err != nil {
		return fmt.Errorf("billing: stage artifact %s: %w", name, err)
	}
	if err := os.Rename(staging, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(staging)
		return fmt.Errorf("billing: store artifact %s: %w", name, err)
	}
	return nil
}

func (d *DiskArtifacts) Read(invoiceID int64, name string) ([]byte, error) {
	data, err := os.ReadFile(d.Path(invoiceID, name))
	if err != nil {
		return nil, fmt.Errorf("billing: read artifact %s: %w", name, err)
	}
	return data, nil
}

func (d *DiskArtifacts) Exists(invoiceID int64, name string) bool {
	info, err := os.Stat(d.Path(invoiceID, name))
	return err == nil && !info.IsDir()
}

// RemoveAll drops the whole invoice directory.
func (d *DiskArtifacts) RemoveAll(invoiceID int64) error {
	if err := os.RemoveAll(d.Dir(invoiceID)); err != nil {
		return fmt.Errorf("billing: remove invoice dir: %w", err)
	}
	return nil
}

// findLogo probes the known image extensions and returns the stored logo
// file name, or empty when none was uploaded.
func findLogo(store ArtifactStore, invoiceID int64) string {
	for _, ext := range logoExtensions {
		name := logoBaseName + ext
		if store.Exists(invoiceID, name) {
			return name
		}
	}
	return ""
}
