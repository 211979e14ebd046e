package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDisk_Put(t *testing.T) {
	root := t.TempDir()
	disk, err := NewLocalDisk(root, "/files/")
	require.NoError(t, err)

	url, err := disk.Put(context.Background(), "p1/tax-registration/doc.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "/files/p1/tax-registration/doc.pdf", url)

	data, err := os.ReadFile(filepath.Join(root, "p1", "tax-registration", "doc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLocalDisk_KeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	disk, err := NewLocalDisk(filepath.Join(root, "store"), "/files")
	require.NoError(t, err)

	url, err := disk.Put(context.Background(), "../../etc/passwd", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/files/etc/passwd", url)
	_, err = os.Stat(filepath.Join(root, "store", "etc", "passwd"))
	assert.NoError(t, err)
}

func TestMemory_Put(t *testing.T) {
	mem := NewMemory("/files")
	url, err := mem.Put(context.Background(), "a/b.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "/files/a/b.png", url)

	obj, ok := mem.Get("a/b.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, []byte("png"), obj.Data)

	_, err = mem.Put(context.Background(), "", "image/png", strings.NewReader("png"))
	assert.Error(t, err)
}

func TestPut_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory("").Put(ctx, "k", "", strings.NewReader(""))
	assert.ErrorIs(t, err, context.Canceled)
}
