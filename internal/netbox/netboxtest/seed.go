package netboxtest

import (
	"rtmigrate/internal/netbox"
)

func (s *Server) AddSite(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.sites = append(s.sites, netbox.Site{ID: id, Name: name, Slug: netbox.Slugify(name)})
	return id
}

func (s *Server) AddTenant(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.tenants = append(s.tenants, netbox.Tenant{ID: id, Name: name, Slug: netbox.Slugify(name)})
	return id
}

func (s *Server) AddTag(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.tags = append(s.tags, netbox.Tag{ID: id, Name: name, Slug: netbox.Slugify(name)})
	return id
}

func (s *Server) AddDevice(name string, siteID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.devices = append(s.devices, device{ID: id, Name: name, SiteID: siteID})
	return id
}

func (s *Server) AddCluster(name string, siteID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.clusters = append(s.clusters, cluster{ID: id, Name: name, SiteID: siteID})
	return id
}

func (s *Server) AddVM(name string, clusterID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.vms = append(s.vms, vm{ID: id, Name: name, ClusterID: clusterID})
	return id
}

func (s *Server) AddInterface(deviceID int, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.interfaces = append(s.interfaces, InterfaceRecord{ID: id, DeviceID: deviceID, Name: name, Type: "1000base-t"})
	return id
}

func (s *Server) AddVMInterface(vmID int, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.vmInterfaces = append(s.vmInterfaces, VMInterfaceRecord{ID: id, VMID: vmID, Name: name})
	return id
}

func (s *Server) AddPrefix(cidr string, tags ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.prefixes = append(s.prefixes, PrefixRecord{ID: id, PrefixRequest: netbox.PrefixRequest{
		Prefix: cidr, Status: "active", Tags: nestedTags(tags),
	}})
	return id
}

func (s *Server) AddAddress(address string, tags ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	if norm, _, err := normalizeAddress(address); err == nil {
		address = norm
	}
	s.addresses = append(s.addresses, AddressRecord{ID: id, IPAddressRequest: netbox.IPAddressRequest{
		Address: address, Tags: nestedTags(tags),
	}})
	return id
}

func nestedTags(names []string) []netbox.NestedTag {
	out := make([]netbox.NestedTag, 0, len(names))
	for _, n := range names {
		out = append(out, netbox.NestedTag{Name: n})
	}
	return out
}

func (s *Server) Prefixes() []PrefixRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PrefixRecord{}, s.prefixes...)
}

func (s *Server) Addresses() []AddressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AddressRecord{}, s.addresses...)
}

func (s *Server) Interfaces() []InterfaceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]InterfaceRecord{}, s.interfaces...)
}

func (s *Server) VMInterfaces() []VMInterfaceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VMInterfaceRecord{}, s.vmInterfaces...)
}

func (s *Server) Tags() []netbox.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]netbox.Tag{}, s.tags...)
}

func (s *Server) Tenants() []netbox.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]netbox.Tenant{}, s.tenants...)
}

// Client returns a netbox client bound to the fake server.
func (s *Server) Client(t interface{ Fatalf(string, ...any) }) *netbox.Client {
	c, err := netbox.New(netbox.Options{URL: s.URL, Token: Token, PageSize: 2})
	if err != nil {
		t.Fatalf("netbox client: %v", err)
	}
	return c
}
