package netbox

import "context"

func (c *Client) ListPrefixes(ctx context.Context) ([]Prefix, error) {
	return list[Prefix](ctx, c, "/api/ipam/prefixes/", nil)
}

func (c *Client) CreatePrefix(ctx context.Context, in PrefixRequest) (*Prefix, error) {
	return create[Prefix](ctx, c, "/api/ipam/prefixes/", in)
}

func (c *Client) ListIPAddresses(ctx context.Context) ([]IPAddress, error) {
	return list[IPAddress](ctx, c, "/api/ipam/ip-addresses/", nil)
}

func (c *Client) CreateIPAddress(ctx context.Context, in IPAddressRequest) (*IPAddress, error) {
	return create[IPAddress](ctx, c, "/api/ipam/ip-addresses/", in)
}
