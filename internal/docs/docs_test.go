package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccepted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"notes.pdf", true},
		{"NOTES.PDF", true},
		{"/tmp/report.docx", true},
		{"data.csv", true},
		{"readme.md", true},
		{"plain.txt", true},
		{"image.png", false},
		{"archive.tar.gz", false},
		{"noext", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Accepted(tt.path), tt.path)
	}
}

func TestInspectPlainFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", info.Name)
	assert.Equal(t, ".txt", info.Ext)
	assert.EqualValues(t, 11, info.Size)
	assert.Zero(t, info.Pages)
	assert.Equal(t, "notes.txt · 11 B", info.Summary())
}

func TestInspectMalformedPDFStillReturnsInfo(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not really a pdf"), 0o644))

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "broken.pdf", info.Name)
	assert.Zero(t, info.Pages)
}

func TestInspectRejectsDirectoriesAndMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Inspect(dir)
	assert.Error(t, err)

	_, err = Inspect(filepath.Join(dir, "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSummaryPages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a.pdf · 2.0 kB · 1 page", Info{Name: "a.pdf", Size: 2000, Pages: 1}.Summary())
	assert.Equal(t, "a.pdf · 2.0 kB · 3 pages", Info{Name: "a.pdf", Size: 2000, Pages: 3}.Summary())
}
