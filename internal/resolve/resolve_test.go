package resolve_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"rtmigrate/internal/index"
	"rtmigrate/internal/ipam"
	"rtmigrate/internal/netbox/netboxtest"
	"rtmigrate/internal/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		raw     string
		objtype int
		want    string
	}{
		{"Gi0/1", resolve.ObjtypeNetworkSwitch, "GigabitEthernet0/1"},
		{"  Te1/0/1 ", resolve.ObjtypeRouter, "TenGigE1/0/1"},
		{"Eth1/1", resolve.ObjtypeRouter, "Ethernet1/1"},
		{"eth-0", resolve.ObjtypeRouter, "Ethernet-0"},
		{"Po10", resolve.ObjtypeNetworkSwitch, "Port-Channel10"},
		{"Port-channel10", resolve.ObjtypeNetworkSwitch, "Port-Channel10"},
		{"BE1", resolve.ObjtypeRouter, "Bundle-Ether1"},
		{"Lo0", resolve.ObjtypeRouter, "Loopback0"},
		{"Loop0", resolve.ObjtypeRouter, "Loopback0"},
		{"Vl100", resolve.ObjtypeNetworkSwitch, "VLAN100"},
		{"Vlan100", resolve.ObjtypeNetworkSwitch, "VLAN100"},
		{"Hu0/0/0/1", resolve.ObjtypeRouter, "HundredGigE0/0/0/1"},
		// already long-form names are left alone
		{"GigabitEthernet0/1", resolve.ObjtypeNetworkSwitch, "GigabitEthernet0/1"},
		{"Loopback0", resolve.ObjtypeRouter, "Loopback0"},
		{"Mgmt0", resolve.ObjtypeRouter, "Mgmt0"},
		// prefix must be followed by a digit, dash or space
		{"Gi", resolve.ObjtypeNetworkSwitch, "Gi"},
		{"Giga1", resolve.ObjtypeNetworkSwitch, "Giga1"},
		// other object types keep their names
		{"Gi0/1", 4, "Gi0/1"},
		{"eth0", resolve.ObjtypeVirtualMachine, "eth0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resolve.NormalizeName(tc.raw, tc.objtype), "%q objtype %d", tc.raw, tc.objtype)
	}
}

func TestOwnerKindFor(t *testing.T) {
	assert.Equal(t, ipam.OwnerVirtualMachine, resolve.OwnerKindFor(resolve.ObjtypeVirtualMachine))
	for _, objtype := range []int{0, 4, 7, 8, 1503, 1505} {
		assert.Equal(t, ipam.OwnerDevice, resolve.OwnerKindFor(objtype))
	}
}

type fixture struct {
	srv      *netboxtest.Server
	resolver *resolve.Resolver
	sw1      int
	vm1      int
}

func setup(t *testing.T) fixture {
	t.Helper()
	srv := netboxtest.New(t)
	site := srv.AddSite("DC1")
	sw1 := srv.AddDevice("sw1", site)
	srv.AddInterface(sw1, "GigabitEthernet0/1")
	vm1 := srv.AddVM("vm1", srv.AddCluster("c1", site))

	c := srv.Client(t)
	x, err := index.Build(context.Background(), c)
	require.NoError(t, err)
	n := 0
	r := resolve.New(c, x, resolve.WithSuffix(func() string {
		n++
		return strings.Repeat("x", n)
	}))
	return fixture{srv: srv, resolver: r, sw1: sw1, vm1: vm1}
}

func TestResolveReusesExisting(t *testing.T) {
	f := setup(t)
	ref, err := f.resolver.Resolve(context.Background(), ipam.OwnerDevice, "sw1", "Gi0/1", resolve.ObjtypeNetworkSwitch)
	require.NoError(t, err)

	assert.False(t, ref.Created)
	assert.Equal(t, "GigabitEthernet0/1", ref.InterfaceName)
	assert.Equal(t, f.sw1, ref.OwnerID)
	assert.Len(t, f.srv.Interfaces(), 1)
	assert.Zero(t, f.srv.Calls(http.MethodPost, "/api/dcim/interfaces/"))
}

func TestResolveCreatesOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ref, err := f.resolver.Resolve(ctx, ipam.OwnerDevice, "sw1", "Te1/1", resolve.ObjtypeNetworkSwitch)
	require.NoError(t, err)
	assert.True(t, ref.Created)
	assert.Equal(t, "TenGigE1/1", ref.InterfaceName)

	again, err := f.resolver.Resolve(ctx, ipam.OwnerDevice, "sw1", "Te1/1", resolve.ObjtypeNetworkSwitch)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, ref.InterfaceID, again.InterfaceID)

	ifaces := f.srv.Interfaces()
	require.Len(t, ifaces, 2)
	created := ifaces[1]
	assert.Equal(t, "TenGigE1/1", created.Name)
	assert.Equal(t, "virtual", created.Type)
	assert.Equal(t, map[string]any{"Device_Interface_Type": "Virtual"}, created.CustomFields)
	assert.Equal(t, 1, f.srv.Calls(http.MethodPost, "/api/dcim/interfaces/"))
}

func TestResolveVM(t *testing.T) {
	f := setup(t)
	ref, err := f.resolver.Resolve(context.Background(), ipam.OwnerVirtualMachine, "vm1", "eth0", resolve.ObjtypeVirtualMachine)
	require.NoError(t, err)
	assert.True(t, ref.Created)
	assert.Equal(t, "virtualization.vminterface", ref.OwnerKind.AssignedObjectType())

	ifaces := f.srv.VMInterfaces()
	require.Len(t, ifaces, 1)
	assert.Equal(t, f.vm1, ifaces[0].VMID)
	assert.Equal(t, map[string]any{"VM_Interface_Type": "Virtual"}, ifaces[0].CustomFields)
}

func TestResolvePlaceholder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.resolver.Resolve(ctx, ipam.OwnerDevice, "sw1", "", resolve.ObjtypeNetworkSwitch)
	require.NoError(t, err)
	b, err := f.resolver.Resolve(ctx, ipam.OwnerDevice, "sw1", "  ", resolve.ObjtypeNetworkSwitch)
	require.NoError(t, err)

	assert.Equal(t, "no_source_namex", a.InterfaceName)
	assert.Equal(t, "no_source_namexx", b.InterfaceName)
	assert.NotEqual(t, a.InterfaceID, b.InterfaceID)
	assert.True(t, a.Created && b.Created)
}

func TestResolveOwnerNotFound(t *testing.T) {
	f := setup(t)
	_, err := f.resolver.Resolve(context.Background(), ipam.OwnerDevice, "ghost", "Gi0/1", resolve.ObjtypeNetworkSwitch)
	assert.ErrorIs(t, err, resolve.ErrOwnerNotFound)
}

func TestResolveCreateFailure(t *testing.T) {
	f := setup(t)
	f.srv.Fail(http.MethodPost, "/api/dcim/interfaces/", http.StatusBadRequest)

	_, err := f.resolver.Resolve(context.Background(), ipam.OwnerDevice, "sw1", "Gi0/2", resolve.ObjtypeNetworkSwitch)
	require.Error(t, err)
	assert.NotErrorIs(t, err, resolve.ErrOwnerNotFound)

	// nothing was recorded, so a later attempt tries again
	f.srv.ClearFailures()
	ref, err := f.resolver.Resolve(context.Background(), ipam.OwnerDevice, "sw1", "Gi0/2", resolve.ObjtypeNetworkSwitch)
	require.NoError(t, err)
	assert.True(t, ref.Created)
}
