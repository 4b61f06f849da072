package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
}

func TestResolveNoCollision(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "2024-05-01_doc.pdf", Resolve(dir, "2024-05-01_doc.pdf"))
}

func TestResolveCollision(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2024-05-01_doc.pdf")
	assert.Equal(t, "2024-05-01_doc_1.pdf", Resolve(dir, "2024-05-01_doc.pdf"))

	touch(t, dir, "2024-05-01_doc_1.pdf")
	assert.Equal(t, "2024-05-01_doc_2.pdf", Resolve(dir, "2024-05-01_doc.pdf"))
}

func TestResolveNoExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "report")
	assert.Equal(t, "report_1", Resolve(dir, "report"))
}

func TestResolveDeterministic(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.txt")
	first := Resolve(dir, "a.txt")
	second := Resolve(dir, "a.txt")
	assert.Equal(t, first, second)
}
