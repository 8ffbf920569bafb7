// Package docs describes local files before they are handed to the
// backend: which extensions the service accepts and a short preview.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ledongthuc/pdf"
)

// AcceptedExtensions is the client-side upload filter. The service does its
// own validation; this only keeps the picker focused.
var AcceptedExtensions = []string{".pdf", ".txt", ".docx", ".csv", ".md"}

// AcceptedHint is shown next to the upload affordance.
const AcceptedHint = "Supported: PDF, TXT, DOCX, CSV, MD"

// Accepted reports whether path carries one of AcceptedExtensions.
func Accepted(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range AcceptedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// DisplayName is the name recorded in the Document Set.
func DisplayName(path string) string {
	return filepath.Base(path)
}

// Info is a local preview of a candidate upload.
type Info struct {
	Path  string
	Name  string
	Ext   string
	Size  int64
	Pages int
}

// Summary renders the preview as a single line, e.g. "notes.pdf · 2.1 MB · 12 pages".
func (i Info) Summary() string {
	parts := []string{i.Name, humanize.Bytes(uint64(i.Size))}
	if i.Pages > 0 {
		unit := "pages"
		if i.Pages == 1 {
			unit = "page"
		}
		parts = append(parts, fmt.Sprintf("%d %s", i.Pages, unit))
	}
	return strings.Join(parts, " · ")
}

// Inspect stats path and, for PDFs, counts pages. A PDF that cannot be
// parsed still yields an Info; the service gets the final say.
func Inspect(path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	if stat.IsDir() {
		return Info{}, fmt.Errorf("%s is a directory", path)
	}
	info := Info{
		Path: path,
		Name: DisplayName(path),
		Ext:  strings.ToLower(filepath.Ext(path)),
		Size: stat.Size(),
	}
	if info.Ext == ".pdf" {
		if pages, err := countPDFPages(path); err == nil {
			info.Pages = pages
		}
	}
	return info, nil
}

func countPDFPages(path string) (pages int, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()
	file, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()
	return reader.NumPage(), nil
}
