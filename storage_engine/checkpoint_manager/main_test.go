package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadCheckpoint(t *testing.T) {
	cm := NewCheckpointManager(filepath.Join(t.TempDir(), "users.db"))

	cp, err := cm.LoadCheckpoint()
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, cm.SaveCheckpoint(Checkpoint{Index: "users", Addr: 0x40, Entries: 3, Height: 1}))
	require.NoError(t, cm.SaveCheckpoint(Checkpoint{Index: "users", Addr: 0x90, Entries: 7, Height: 2}))

	cp, err = cm.LoadCheckpoint()
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, uint64(0x90), cp.Addr)
	assert.Equal(t, int64(7), cp.Entries)
	assert.NotZero(t, cp.Timestamp)

	_, err = os.Stat(cm.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, cm.DeleteCheckpoint())
	require.NoError(t, cm.DeleteCheckpoint())
	cp, err = cm.LoadCheckpoint()
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestCorruptedCheckpoint(t *testing.T) {
	cm := NewCheckpointManager(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, os.WriteFile(cm.Path(), []byte("{not json"), 0644))
	_, err := cm.LoadCheckpoint()
	assert.Error(t, err)
}
