package repo

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"testing"

	"rtmigrate/internal/errs"
	"rtmigrate/internal/ipam"
	"rtmigrate/internal/models"
	"rtmigrate/internal/repo/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworks(t *testing.T) {
	g := repotest.Open(t)
	repotest.Seed(t, g,
		&[]models.IPv4Network{
			{ID: 2, IP: repotest.V4("10.0.0.0"), Mask: 8, Name: "ten", Comment: "rfc1918"},
			{ID: 1, IP: 3232235520, Mask: 24, Name: "LAN-A", Comment: "core"},
		},
		&models.IPv6Network{ID: 5, IP: repotest.V6("2001:db8::"), Mask: 48, Name: "doc"},
	)
	require.NoError(t, g.Exec("INSERT INTO IPv4Network (id, ip, mask, name, comment) VALUES (3, 1, 32, NULL, NULL)").Error)

	r := NewRacktables(g)
	ctx := context.Background()

	nets, err := r.Networks(ctx, ipam.V4)
	require.NoError(t, err)
	require.Len(t, nets, 3)
	assert.Equal(t, NetworkRecord{ID: 1, IP: []byte{192, 168, 0, 0}, Mask: 24, Name: "LAN-A", Comment: "core"}, nets[0])
	assert.Equal(t, int64(2), nets[1].ID)
	assert.Equal(t, NetworkRecord{ID: 3, IP: []byte{0, 0, 0, 1}, Mask: 32}, nets[2])

	nets6, err := r.Networks(ctx, ipam.V6)
	require.NoError(t, err)
	require.Len(t, nets6, 1)
	assert.Equal(t, repotest.V6("2001:db8::"), nets6[0].IP)
	assert.Equal(t, 48, nets6[0].Mask)
}

func TestAddresses(t *testing.T) {
	g := repotest.Open(t)
	repotest.Seed(t, g,
		&models.IPv4Address{IP: repotest.V4("192.168.1.1"), Name: "gw", Comment: "vrrp"},
		&models.IPv6Address{IP: repotest.V6("2001:db8::1"), Name: "gw6"},
	)
	r := NewRacktables(g)

	addrs, err := r.Addresses(context.Background(), ipam.V4)
	require.NoError(t, err)
	assert.Equal(t, []AddressRecord{{IP: []byte{192, 168, 1, 1}, Name: "gw", Comment: "vrrp"}}, addrs)

	addrs6, err := r.Addresses(context.Background(), ipam.V6)
	require.NoError(t, err)
	require.Len(t, addrs6, 1)
	assert.Equal(t, "gw6", addrs6[0].Name)
}

func TestAllocations(t *testing.T) {
	g := repotest.Open(t)
	repotest.Seed(t, g,
		&[]models.Object{
			{ID: 10, ObjtypeID: 8, Name: "sw1 "},
			{ID: 11, ObjtypeID: 1504, Name: "vm1"},
		},
		&[]models.IPv4Allocation{
			{ObjectID: 10, IP: repotest.V4("192.168.1.1"), Name: "Gi0/1", Type: "regular"},
			{ObjectID: 11, IP: repotest.V4("192.168.1.1"), Name: "eth0", Type: "shared"},
			// dangling allocation without an Object is dropped by the join
			{ObjectID: 99, IP: repotest.V4("192.168.1.9"), Name: "x", Type: "regular"},
		},
	)
	r := NewRacktables(g)

	allocs, err := r.Allocations(context.Background(), ipam.V4)
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	assert.Equal(t, AllocationRecord{
		ObjectID: 10, IP: []byte{192, 168, 1, 1}, InterfaceName: "Gi0/1", Type: "regular",
		OwnerObjtypeID: 8, OwnerName: "sw1 ",
	}, allocs[0])
	assert.False(t, allocs[0].Shared())
	assert.True(t, allocs[1].Shared())
	assert.Equal(t, 1504, allocs[1].OwnerObjtypeID)
}

func TestRealmTagsAndTagNames(t *testing.T) {
	g := repotest.Open(t)
	repotest.Seed(t, g,
		&[]models.TagTree{{ID: 1, Tag: "prod"}, {ID: 2, Tag: "dmz"}, {ID: 3, Tag: "lab"}},
		&[]models.TagStorage{
			{EntityRealm: "ipv4net", EntityID: 1, TagID: 2},
			{EntityRealm: "ipv4net", EntityID: 1, TagID: 1},
			{EntityRealm: "ipv6net", EntityID: 1, TagID: 3},
			{EntityRealm: "object", EntityID: 1, TagID: 3},
		},
	)
	r := NewRacktables(g)
	ctx := context.Background()

	tags, err := r.RealmTags(ctx, ipam.V4.Realm())
	require.NoError(t, err)
	assert.Equal(t, map[int64][]ipam.TagRef{1: ipam.TagRefs("prod", "dmz")}, tags)

	names, err := r.TagNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod", "dmz", "lab"}, names)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.True(t, errs.IsConnectivity(classify(driver.ErrBadConn)))
	assert.True(t, errs.IsConnectivity(classify(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})))
	assert.False(t, errs.IsConnectivity(classify(errors.New("no such table: IPv4Network"))))
}

func TestClosedDatabaseIsConnectivity(t *testing.T) {
	g := repotest.Open(t)
	sqlDB, err := g.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = NewRacktables(g).Networks(context.Background(), ipam.V4)
	require.Error(t, err)
	assert.True(t, errs.IsConnectivity(err))
}
