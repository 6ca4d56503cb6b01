package netbox

import (
	"context"
	"net/url"
)

// ListSites returns the sites named name, or every site when name is empty.
func (c *Client) ListSites(ctx context.Context, name string) ([]Site, error) {
	var q url.Values
	if name != "" {
		q = url.Values{"name": {name}}
	}
	return list[Site](ctx, c, "/api/dcim/sites/", q)
}

func (c *Client) ListDevices(ctx context.Context, filter url.Values) ([]Device, error) {
	return list[Device](ctx, c, "/api/dcim/devices/", filter)
}

func (c *Client) ListInterfaces(ctx context.Context, filter url.Values) ([]Interface, error) {
	return list[Interface](ctx, c, "/api/dcim/interfaces/", filter)
}

func (c *Client) CreateInterface(ctx context.Context, in InterfaceRequest) (*Interface, error) {
	return create[Interface](ctx, c, "/api/dcim/interfaces/", in)
}
