package summary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathForDerivesFromDocumentName(t *testing.T) {
	store := NewStore("/tmp/out")

	assert.Equal(t, filepath.Join("/tmp/out", "report_summary.md"),
		store.PathFor("/docs/report.pdf"))
	assert.Equal(t, filepath.Join("/tmp/out", "no-extension_summary.md"),
		store.PathFor("no-extension"))
}

func TestSaveCreatesDirectoryAndWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "summaries")
	store := NewStore(dir)

	path, err := store.Save("/docs/report.pdf", "# Summary\n\ncontent")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_summary.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Summary\n\ncontent", string(data))
}

func TestSaveOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Save("/docs/report.pdf", "first version")
	require.NoError(t, err)
	path, err := store.Save("/docs/report.pdf", "second version")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second version", string(data))
}

func TestDefaultDir(t *testing.T) {
	store := NewStore("")
	assert.Equal(t, filepath.Join(DefaultDir, "doc_summary.md"), store.PathFor("doc.pdf"))
}
