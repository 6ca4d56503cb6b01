// Package index keeps what already exists in NetBox so a run can skip it.
//
// Prefixes, addresses and tags are fetched once when the index is built.
// Owners (devices and virtual machines) and their interfaces are fetched the
// first time a record refers to them. Every successful create is recorded
// here, so duplicates are caught within a run as well as across runs.
package index

import (
	"context"
	"fmt"
	"net/netip"
	"net/url"
	"slices"
	"strconv"

	"rtmigrate/internal/ipam"
	"rtmigrate/internal/netbox"

	"github.com/samber/lo"
)

// Destination is the part of the NetBox API the index reads.
type Destination interface {
	ListPrefixes(ctx context.Context) ([]netbox.Prefix, error)
	ListIPAddresses(ctx context.Context) ([]netbox.IPAddress, error)
	ListTags(ctx context.Context) ([]netbox.Tag, error)
	ListDevices(ctx context.Context, filter url.Values) ([]netbox.Device, error)
	ListVirtualMachines(ctx context.Context, filter url.Values) ([]netbox.VirtualMachine, error)
	ListInterfaces(ctx context.Context, filter url.Values) ([]netbox.Interface, error)
	ListVMInterfaces(ctx context.Context, filter url.Values) ([]netbox.VMInterface, error)
}

type OwnerKey struct {
	Kind ipam.OwnerKind
	Name string
}

// Owner is a device or virtual machine with its interfaces by name.
type Owner struct {
	Kind       ipam.OwnerKind
	Name       string
	ID         int
	interfaces map[string]int
}

func (o *Owner) Interface(name string) (int, bool) {
	id, ok := o.interfaces[name]
	return id, ok
}

func (o *Owner) AddInterface(name string, id int) { o.interfaces[name] = id }

func (o *Owner) InterfaceCount() int { return len(o.interfaces) }

// Scope limits owner lookups to one site. Virtual machines belong to the
// site through their cluster.
type Scope struct {
	SiteID     int
	ClusterIDs []int
}

type Index struct {
	dest  Destination
	scope *Scope

	prefixes  map[string]netip.Prefix
	addresses map[string]struct{}
	tags      map[string]ipam.TagRef
	// a nil entry remembers an owner NetBox does not have
	owners map[OwnerKey]*Owner
}

// Build snapshots the prefixes, addresses and tags NetBox has right now.
func Build(ctx context.Context, dest Destination) (*Index, error) {
	prefixes, err := dest.ListPrefixes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prefixes: %w", err)
	}
	addresses, err := dest.ListIPAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ip addresses: %w", err)
	}
	tags, err := dest.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	x := &Index{
		dest:      dest,
		prefixes:  make(map[string]netip.Prefix, len(prefixes)),
		addresses: make(map[string]struct{}, len(addresses)),
		owners:    map[OwnerKey]*Owner{},
	}
	for _, p := range prefixes {
		x.AddPrefix(p.Prefix)
	}
	for _, a := range addresses {
		x.AddAddress(a.Address)
	}
	x.tags = lo.SliceToMap(TagRefs(tags), func(t ipam.TagRef) (string, ipam.TagRef) { return t.Name, t })
	return x, nil
}

// TagRefs normalises NetBox tag objects into tag references.
func TagRefs[T netbox.Tag | netbox.NestedTag](tags []T) []ipam.TagRef {
	return lo.Map(tags, func(t T, _ int) ipam.TagRef {
		switch v := any(t).(type) {
		case netbox.Tag:
			return ipam.TagRef{Name: v.Name}
		case netbox.NestedTag:
			return ipam.TagRef{Name: v.Name}
		}
		return ipam.TagRef{}
	})
}

func (x *Index) HasPrefix(cidr string) bool {
	_, ok := x.prefixes[ipam.PrefixKey(cidr)]
	return ok
}

func (x *Index) AddPrefix(cidr string) {
	key := ipam.PrefixKey(cidr)
	p, err := netip.ParsePrefix(key)
	if err != nil {
		// keep it for membership even when it cannot take part in gap math
		p = netip.Prefix{}
	}
	x.prefixes[key] = p
}

// Prefixes returns the parseable prefixes in address order.
func (x *Index) Prefixes() []netip.Prefix {
	out := lo.Filter(lo.Values(x.prefixes), func(p netip.Prefix, _ int) bool { return p.IsValid() })
	slices.SortFunc(out, func(a, b netip.Prefix) int {
		if c := a.Addr().Compare(b.Addr()); c != 0 {
			return c
		}
		return a.Bits() - b.Bits()
	})
	return out
}

func (x *Index) HasAddress(cidr string) bool {
	_, ok := x.addresses[ipam.AddressKey(cidr)]
	return ok
}

func (x *Index) AddAddress(cidr string) { x.addresses[ipam.AddressKey(cidr)] = struct{}{} }

func (x *Index) HasTag(name string) bool {
	_, ok := x.tags[name]
	return ok
}

func (x *Index) AddTag(name string) { x.tags[name] = ipam.TagRef{Name: name} }

func (x *Index) Len() (prefixes, addresses, tags int) {
	return len(x.prefixes), len(x.addresses), len(x.tags)
}

// SetScope restricts later owner lookups to s and forgets owners found so far.
func (x *Index) SetScope(s Scope) {
	x.scope = &s
	clear(x.owners)
}

// Owner returns the device or virtual machine named name with its
// interfaces, or nil when NetBox has none. Results are kept for the run.
func (x *Index) Owner(ctx context.Context, kind ipam.OwnerKind, name string) (*Owner, error) {
	key := OwnerKey{Kind: kind, Name: name}
	if o, ok := x.owners[key]; ok {
		return o, nil
	}
	o, err := x.fetchOwner(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	x.owners[key] = o
	return o, nil
}

func (x *Index) fetchOwner(ctx context.Context, kind ipam.OwnerKind, name string) (*Owner, error) {
	o := &Owner{Kind: kind, Name: name, interfaces: map[string]int{}}

	switch kind {
	case ipam.OwnerVirtualMachine:
		vms, err := x.dest.ListVirtualMachines(ctx, url.Values{"name": {name}})
		if err != nil {
			return nil, fmt.Errorf("look up virtual machine %q: %w", name, err)
		}
		if x.scope != nil {
			vms = lo.Filter(vms, func(v netbox.VirtualMachine, _ int) bool {
				return v.Cluster != nil && slices.Contains(x.scope.ClusterIDs, v.Cluster.ID)
			})
		}
		if len(vms) == 0 {
			return nil, nil
		}
		o.ID = vms[0].ID
		ifaces, err := x.dest.ListVMInterfaces(ctx, url.Values{"virtual_machine_id": {strconv.Itoa(o.ID)}})
		if err != nil {
			return nil, fmt.Errorf("list interfaces of virtual machine %q: %w", name, err)
		}
		for _, i := range ifaces {
			o.interfaces[i.Name] = i.ID
		}
	default:
		filter := url.Values{"name": {name}}
		if x.scope != nil {
			filter.Set("site_id", strconv.Itoa(x.scope.SiteID))
		}
		devices, err := x.dest.ListDevices(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("look up device %q: %w", name, err)
		}
		if len(devices) == 0 {
			return nil, nil
		}
		o.ID = devices[0].ID
		ifaces, err := x.dest.ListInterfaces(ctx, url.Values{"device_id": {strconv.Itoa(o.ID)}})
		if err != nil {
			return nil, fmt.Errorf("list interfaces of device %q: %w", name, err)
		}
		for _, i := range ifaces {
			o.interfaces[i.Name] = i.ID
		}
	}
	return o, nil
}
