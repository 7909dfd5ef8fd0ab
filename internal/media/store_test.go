package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Create(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Create("alice", "empty"))

	info, err := os.Stat(filepath.Join(root, "alice", "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_Save(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	err := store.Save("alice", "traffic", "cam01.png", []byte("png-bytes"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "alice", "traffic", "cam01.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestStore_Save_StripsClientPath(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	err := store.Save("alice", "traffic", "../../escape.png", []byte("x"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "alice", "traffic", "escape.png"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "escape.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_Rename(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Save("alice", "traffic", "a.png", []byte("x")))
	require.NoError(t, store.Rename("alice", "traffic", "roads"))

	_, err := os.Stat(filepath.Join(root, "alice", "roads", "a.png"))
	assert.NoError(t, err)
}

func TestStore_Rename_NoDirectory(t *testing.T) {
	store := NewStore(t.TempDir())

	assert.NoError(t, store.Rename("alice", "empty", "renamed"))
}

func TestStore_Remove(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Save("alice", "traffic", "a.png", []byte("x")))
	require.NoError(t, store.Remove("alice", "traffic"))

	_, err := os.Stat(filepath.Join(root, "alice", "traffic"))
	assert.True(t, os.IsNotExist(err))
}
