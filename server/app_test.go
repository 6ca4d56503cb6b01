package server

import (
	"testing"

	"rtmigrate/config"
	"rtmigrate/internal/cache"
	"rtmigrate/internal/ipam"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationOptions(t *testing.T) {
	opts := MigrationOptions(config.Migration{
		Site:             "DC1",
		Tenant:           "ops",
		IPv4:             true,
		Networks:         true,
		AvailableSubnets: true,
		IPv4Tag:          "IPv4",
		IPv6Tag:          "IPv6",
		AvailableMarkers: []string{"unused"},
		AvailableStatus:  "reserved",
	})
	assert.Equal(t, "DC1", opts.Site)
	assert.Equal(t, "ops", opts.Tenant)
	assert.True(t, opts.IPv4)
	assert.False(t, opts.IPv6)
	assert.True(t, opts.Networks)
	assert.False(t, opts.Allocated)
	assert.True(t, opts.AvailableSubnets)
	assert.Equal(t, "reserved", opts.AvailableStatus)
	require.NotNil(t, opts.Available)
	assert.True(t, opts.Available("LAN", "UNUSED since 2019"))
	assert.False(t, opts.Available("LAN", "core"))
}

func TestLoadVLANs(t *testing.T) {
	dir := t.TempDir()

	vlans, err := LoadVLANs(cache.NewStore(dir, true))
	require.NoError(t, err)
	assert.Empty(t, vlans)

	store := cache.NewStore(dir, true)
	want := map[int64]ipam.VLANRef{7: {ID: 42, Name: "mgmt"}}
	require.NoError(t, store.Save(cache.NetworkVLANs, want))

	vlans, err = LoadVLANs(store)
	require.NoError(t, err)
	assert.Equal(t, want, vlans)
}

func TestRunNotInitialized(t *testing.T) {
	a := &App{}
	report, err := a.Run()
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
