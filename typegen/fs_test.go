package typegen_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/typegen"
)

func sampleFS(t *testing.T) *typegen.FS {
	t.Helper()
	fs := typegen.NewFS()
	require.NoError(t, fs.Add("test",
		typegen.File{RelativePath: "b/two.txt", Data: []byte("two\n")},
		typegen.File{RelativePath: "one.txt", Data: []byte("one\n")},
	))
	return fs
}

func TestFSAdd(t *testing.T) {
	fs := sampleFS(t)
	assert.Equal(t, 2, fs.Len())

	files := fs.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "b/two.txt", files[0].RelativePath)
	assert.Equal(t, "one.txt", files[1].RelativePath)

	err := fs.Add("other", typegen.File{RelativePath: "one.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `already created for "test"`)

	err = fs.Add("other", typegen.File{RelativePath: "/abs.txt"})
	require.Error(t, err)
	assert.Equal(t, 2, fs.Len())
}

func TestFSWriteAndVerify(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	fs := sampleFS(t)

	// Nothing written yet
	err := fs.Verify(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.IsOutOfDateError(err))
	assert.Len(t, errors.Flatten(err), 2)

	require.NoError(t, fs.Write(context.Background(), root))

	data, err := os.ReadFile(filepath.Join(root, "b", "two.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(data))

	require.NoError(t, fs.Verify(context.Background(), root))

	// No staging directory is left behind
	entries, err := os.ReadDir(filepath.Dir(root))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out", entries[0].Name())
}

func TestFSVerifyReportsDiff(t *testing.T) {
	root := t.TempDir()
	fs := sampleFS(t)
	require.NoError(t, fs.Write(context.Background(), root))
	require.NoError(t, os.WriteFile(filepath.Join(root, "one.txt"), []byte("changed\n"), 0o644))

	err := fs.Verify(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.IsOutOfDateError(err))
	assert.Contains(t, err.Error(), "one.txt would have changed")
	assert.NotContains(t, err.Error(), "two.txt")
}

func TestFSWriteKeepsUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("mine"), 0o644))

	require.NoError(t, sampleFS(t).Write(context.Background(), root))

	data, err := os.ReadFile(filepath.Join(root, "keep.txt"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}
