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

func TestLocal_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads/")
	ctx := context.Background()

	res, err := l.Put(ctx, strings.NewReader("png-bytes"), PutInput{Filename: "Tomato.PNG", Folder: "products"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "products/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "/uploads/"+res.Key, res.URL)

	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.Key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	require.NoError(t, l.Delete(ctx, res.Key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(res.Key)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocal_RejectsNonImages(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")
	_, err := l.Put(context.Background(), strings.NewReader("x"), PutInput{Filename: "run.sh"})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocal_FolderCannotEscapeBaseDir(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads")
	res, err := l.Put(context.Background(), strings.NewReader("x"), PutInput{Filename: "a.jpg", Folder: "../../etc"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "etc/"))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(res.Key)))
	assert.NoError(t, err)
}
