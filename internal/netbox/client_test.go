package netbox_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"rtmigrate/internal/errs"
	"rtmigrate/internal/netbox"
	"rtmigrate/internal/netbox/netboxtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesOptions(t *testing.T) {
	_, err := netbox.New(netbox.Options{URL: "not a url", Token: "x"})
	assert.Error(t, err)

	_, err = netbox.New(netbox.Options{URL: "http://netbox.local"})
	assert.Error(t, err)

	c, err := netbox.New(netbox.Options{URL: "http://netbox.local/", Token: "x"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestListWalksAllPages(t *testing.T) {
	srv := netboxtest.New(t)
	for i := range 5 {
		srv.AddPrefix("10.0." + strconv.Itoa(i) + ".0/24")
	}
	c := srv.Client(t)

	got, err := c.ListPrefixes(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, "10.0.4.0/24", got[4].Prefix)
	assert.Equal(t, 3, srv.Calls(http.MethodGet, "/api/ipam/prefixes/"))
}

func TestListEmpty(t *testing.T) {
	srv := netboxtest.New(t)
	got, err := srv.Client(t).ListIPAddresses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListFilters(t *testing.T) {
	srv := netboxtest.New(t)
	dc1 := srv.AddSite("DC1")
	dc2 := srv.AddSite("DC2")
	srv.AddDevice("sw1", dc1)
	srv.AddDevice("sw2", dc2)
	c := srv.Client(t)
	ctx := context.Background()

	sites, err := c.ListSites(ctx, "DC2")
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, dc2, sites[0].ID)

	devices, err := c.ListDevices(ctx, url.Values{"site_id": {strconv.Itoa(dc1)}})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "sw1", devices[0].Name)
}

func TestCreateAddressStoresHostMask(t *testing.T) {
	srv := netboxtest.New(t)
	c := srv.Client(t)

	got, err := c.CreateIPAddress(context.Background(), netbox.IPAddressRequest{Address: "2001:db8::1"})
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1/128", got.Address)
}

func TestCreateTagSlug(t *testing.T) {
	srv := netboxtest.New(t)
	tag, err := srv.Client(t).CreateTag(context.Background(), "IPv4 Migration")
	require.NoError(t, err)
	assert.Equal(t, "ipv4-migration", tag.Slug)
	assert.Len(t, srv.Tags(), 1)
}

func TestRejectedCreateIsAPIError(t *testing.T) {
	srv := netboxtest.New(t)
	c := srv.Client(t)

	_, err := c.CreatePrefix(context.Background(), netbox.PrefixRequest{
		Prefix: "10.0.0.0/24",
		Tags:   []netbox.NestedTag{{Name: "missing"}},
	})
	require.Error(t, err)

	var apiErr *netbox.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "missing")
	assert.False(t, errs.IsConnectivity(err))
}

func TestBadTokenIsAPIError(t *testing.T) {
	srv := netboxtest.New(t)
	c, err := netbox.New(netbox.Options{URL: srv.URL, Token: "wrong"})
	require.NoError(t, err)

	err = c.Status(context.Background())
	var apiErr *netbox.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestGatewayErrorIsConnectivity(t *testing.T) {
	srv := netboxtest.New(t)
	srv.Fail(http.MethodGet, "/api/status/", http.StatusServiceUnavailable)

	err := srv.Client(t).Status(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsConnectivity(err))

	var apiErr *netbox.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestUnreachableIsConnectivity(t *testing.T) {
	srv := netboxtest.New(t)
	c := srv.Client(t)
	srv.Close()

	err := c.Status(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsConnectivity(err))
}

func TestCancelledContext(t *testing.T) {
	srv := netboxtest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Client(t).Status(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errs.IsConnectivity(err))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "ipv6", netbox.Slugify("IPv6"))
	assert.Equal(t, "core-routers", netbox.Slugify("Core Routers"))
}
