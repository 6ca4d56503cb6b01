package cache

import (
	"os"
	"path/filepath"
	"testing"

	"rtmigrate/internal/ipam"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	s := NewStore(dir, true)

	in := map[int64]ipam.VLANRef{
		7: {GroupName: "dc1", Name: "mgmt", ID: 42},
	}
	require.NoError(t, s.Save(NetworkVLANs, in))
	_, err := os.Stat(filepath.Join(dir, NetworkVLANs+".json"))
	require.NoError(t, err)

	var out map[int64]ipam.VLANRef
	ok, err := s.Load(NetworkVLANs, &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)
}

func TestStoreDisabledDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, false)
	assert.False(t, s.Enabled())

	require.NoError(t, s.Save("anything", []int{1}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(t.TempDir(), false)
	var out map[int64]ipam.VLANRef
	ok, err := s.Load(NetworkVLANs, &out)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	var out map[string]string
	_, err := NewStore(dir, false).Load("broken", &out)
	assert.Error(t, err)
}

func TestStoreRejectsPathNames(t *testing.T) {
	s := NewStore(t.TempDir(), true)
	assert.Error(t, s.Save("../escape", 1))
	_, err := s.Load("a/b", new(int))
	assert.Error(t, err)
}
