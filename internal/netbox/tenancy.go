package netbox

import (
	"context"
	"net/url"
)

func (c *Client) ListTenants(ctx context.Context, name string) ([]Tenant, error) {
	var q url.Values
	if name != "" {
		q = url.Values{"name": {name}}
	}
	return list[Tenant](ctx, c, "/api/tenancy/tenants/", q)
}

func (c *Client) CreateTenant(ctx context.Context, name string) (*Tenant, error) {
	return create[Tenant](ctx, c, "/api/tenancy/tenants/", TenantRequest{Name: name, Slug: Slugify(name)})
}
