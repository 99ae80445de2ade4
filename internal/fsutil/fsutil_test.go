package fsutil

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, WriteFile(fs, "a/b/c.txt", []byte("hello")))

	data, err := util.ReadFile(fs, "a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteFileOverwrites(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, WriteFile(fs, "f.txt", []byte("first")))
	require.NoError(t, WriteFile(fs, "f.txt", []byte("second")))

	data, err := util.ReadFile(fs, "f.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteFileLeavesNoTemp(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, WriteFile(fs, "dir/f.txt", []byte("x")))

	entries, err := fs.ReadDir("dir")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f.txt", entries[0].Name())
}

func TestWriteJSON(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, WriteJSON(fs, "out.json", map[string]int{"n": 1}))

	data, err := util.ReadFile(fs, "out.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"n\": 1\n}\n", string(data), "indented with a trailing newline")
}
