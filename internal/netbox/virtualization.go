package netbox

import (
	"context"
	"net/url"
)

func (c *Client) ListClusters(ctx context.Context, filter url.Values) ([]Cluster, error) {
	return list[Cluster](ctx, c, "/api/virtualization/clusters/", filter)
}

func (c *Client) ListVirtualMachines(ctx context.Context, filter url.Values) ([]VirtualMachine, error) {
	return list[VirtualMachine](ctx, c, "/api/virtualization/virtual-machines/", filter)
}

func (c *Client) ListVMInterfaces(ctx context.Context, filter url.Values) ([]VMInterface, error) {
	return list[VMInterface](ctx, c, "/api/virtualization/interfaces/", filter)
}

func (c *Client) CreateVMInterface(ctx context.Context, in VMInterfaceRequest) (*VMInterface, error) {
	return create[VMInterface](ctx, c, "/api/virtualization/interfaces/", in)
}
