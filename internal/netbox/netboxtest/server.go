// Package netboxtest runs an in-memory NetBox API for tests.
package netboxtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"strings"
	"sync"

	"rtmigrate/internal/netbox"

	"github.com/gorilla/mux"
)

const Token = "f5a1c3e7d9b2468ace13579bdf02468ace13579b"

type PrefixRecord struct {
	ID int
	netbox.PrefixRequest
}

type AddressRecord struct {
	ID int
	netbox.IPAddressRequest
}

type InterfaceRecord struct {
	ID           int
	DeviceID     int
	Name         string
	Type         string
	CustomFields map[string]any
}

type VMInterfaceRecord struct {
	ID           int
	VMID         int
	Name         string
	CustomFields map[string]any
}

type device struct {
	ID     int
	Name   string
	SiteID int
}

type cluster struct {
	ID     int
	Name   string
	SiteID int
}

type vm struct {
	ID        int
	Name      string
	ClusterID int
}

// Server is a fake NetBox. Duplicate prefixes and duplicate non-shared
// addresses are rejected the way NetBox does with ENFORCE_GLOBAL_UNIQUE.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	nextID       int
	sites        []netbox.Site
	tenants      []netbox.Tenant
	tags         []netbox.Tag
	devices      []device
	clusters     []cluster
	vms          []vm
	interfaces   []InterfaceRecord
	vmInterfaces []VMInterfaceRecord
	prefixes     []PrefixRecord
	addresses    []AddressRecord
	failures     map[string]int
	calls        map[string]int
}

// New starts a fake NetBox; it is closed when the test ends.
func New(t interface {
	Helper()
	Cleanup(func())
}) *Server {
	t.Helper()
	s := &Server{failures: map[string]int{}, calls: map[string]int{}}
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Use(s.authenticate, s.record)
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/status/", s.status).Methods(http.MethodGet)

	api.HandleFunc("/ipam/prefixes/", s.listPrefixes).Methods(http.MethodGet)
	api.HandleFunc("/ipam/prefixes/", s.createPrefix).Methods(http.MethodPost)
	api.HandleFunc("/ipam/ip-addresses/", s.listAddresses).Methods(http.MethodGet)
	api.HandleFunc("/ipam/ip-addresses/", s.createAddress).Methods(http.MethodPost)

	api.HandleFunc("/dcim/sites/", s.listSites).Methods(http.MethodGet)
	api.HandleFunc("/dcim/devices/", s.listDevices).Methods(http.MethodGet)
	api.HandleFunc("/dcim/interfaces/", s.listInterfaces).Methods(http.MethodGet)
	api.HandleFunc("/dcim/interfaces/", s.createInterface).Methods(http.MethodPost)

	api.HandleFunc("/virtualization/clusters/", s.listClusters).Methods(http.MethodGet)
	api.HandleFunc("/virtualization/virtual-machines/", s.listVMs).Methods(http.MethodGet)
	api.HandleFunc("/virtualization/interfaces/", s.listVMInterfaces).Methods(http.MethodGet)
	api.HandleFunc("/virtualization/interfaces/", s.createVMInterface).Methods(http.MethodPost)

	api.HandleFunc("/extras/tags/", s.listTags).Methods(http.MethodGet)
	api.HandleFunc("/extras/tags/", s.createTag).Methods(http.MethodPost)

	api.HandleFunc("/tenancy/tenants/", s.listTenants).Methods(http.MethodGet)
	api.HandleFunc("/tenancy/tenants/", s.createTenant).Methods(http.MethodPost)
}

// Fail makes every METHOD path request answer with status until cleared.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
}

// Calls counts the requests seen for METHOD path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token "+Token {
			writeError(w, http.StatusForbidden, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		status, failing := s.failures[key]
		s.mu.Unlock()
		if failing {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return false
	}
	return true
}

// page answers a list request with NetBox limit/offset pagination.
func page[T any](w http.ResponseWriter, r *http.Request, items []T) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	offset = min(max(offset, 0), len(items))
	end := min(offset+limit, len(items))

	resp := netbox.ListResponse[T]{Count: len(items), Results: append([]T{}, items[offset:end]...)}
	if end < len(items) {
		next := *r.URL
		nq := next.Query()
		nq.Set("offset", strconv.Itoa(end))
		nq.Set("limit", strconv.Itoa(limit))
		next.RawQuery = nq.Encode()
		resp.Next = "http://" + r.Host + next.RequestURI()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

func intParam(r *http.Request, key string) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1, true
	}
	return n, true
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"netbox-version": "4.1.0"})
}

// checkTags rejects references to tags that do not exist, as NetBox does.
func (s *Server) checkTags(refs []netbox.NestedTag) error {
	for _, ref := range refs {
		found := false
		for _, t := range s.tags {
			if t.Name == ref.Name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("Related object not found using the provided attributes: {'name': '%s'}", ref.Name)
		}
	}
	return nil
}

// viewTags renders nested tags, keeping names of seeded tags that were never created.
func (s *Server) viewTags(refs []netbox.NestedTag) []netbox.Tag {
	out := make([]netbox.Tag, 0, len(refs))
	for _, ref := range refs {
		tag := netbox.Tag{Name: ref.Name, Slug: netbox.Slugify(ref.Name)}
		for _, t := range s.tags {
			if t.Name == ref.Name {
				tag = t
				break
			}
		}
		out = append(out, tag)
	}
	return out
}

func (s *Server) prefixView(p PrefixRecord) netbox.Prefix {
	tags := s.viewTags(p.Tags)
	return netbox.Prefix{
		ID:          p.ID,
		Prefix:      p.Prefix,
		Status:      &netbox.Choice{Value: p.Status},
		Description: p.Description,
		Tags:        tags,
	}
}

func (s *Server) listPrefixes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]netbox.Prefix, 0, len(s.prefixes))
	for _, p := range s.prefixes {
		out = append(out, s.prefixView(p))
	}
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) createPrefix(w http.ResponseWriter, r *http.Request) {
	var in netbox.PrefixRequest
	if !decode(w, r, &in) {
		return
	}
	p, err := netip.ParsePrefix(in.Prefix)
	if err != nil {
		writeError(w, http.StatusBadRequest, "prefix: "+err.Error())
		return
	}
	in.Prefix = p.Masked().String()
	if in.Status == "" {
		in.Status = "active"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.prefixes {
		if existing.Prefix == in.Prefix {
			writeError(w, http.StatusBadRequest, "Duplicate prefix found in global table: "+in.Prefix)
			return
		}
	}
	if err := s.checkTags(in.Tags); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := PrefixRecord{ID: s.id(), PrefixRequest: in}
	s.prefixes = append(s.prefixes, rec)
	writeJSON(w, http.StatusCreated, s.prefixView(rec))
}

func (s *Server) addressView(a AddressRecord) netbox.IPAddress {
	tags := s.viewTags(a.Tags)
	out := netbox.IPAddress{
		ID:                 a.ID,
		Address:            a.Address,
		AssignedObjectType: a.AssignedObjectType,
		AssignedObjectID:   a.AssignedObjectID,
		Description:        a.Description,
		Tags:               tags,
	}
	if a.Role != "" {
		out.Role = &netbox.Choice{Value: a.Role}
	}
	return out
}

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]netbox.IPAddress, 0, len(s.addresses))
	for _, a := range s.addresses {
		out = append(out, s.addressView(a))
	}
	s.mu.Unlock()
	page(w, r, out)
}

// normalizeAddress stores bare hosts with a full-length mask like NetBox does.
func normalizeAddress(v string) (string, netip.Addr, error) {
	if !strings.Contains(v, "/") {
		a, err := netip.ParseAddr(v)
		if err != nil {
			return "", netip.Addr{}, err
		}
		return netip.PrefixFrom(a, a.BitLen()).String(), a, nil
	}
	p, err := netip.ParsePrefix(v)
	if err != nil {
		return "", netip.Addr{}, err
	}
	return p.String(), p.Addr(), nil
}

// uniqueExempt are roles NetBox lets share an address.
var uniqueExempt = map[string]bool{"vip": true, "vrrp": true, "hsrp": true, "glbp": true, "carp": true, "anycast": true}

func (s *Server) createAddress(w http.ResponseWriter, r *http.Request) {
	var in netbox.IPAddressRequest
	if !decode(w, r, &in) {
		return
	}
	norm, addr, err := normalizeAddress(in.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, "address: "+err.Error())
		return
	}
	in.Address = norm

	s.mu.Lock()
	defer s.mu.Unlock()
	if !uniqueExempt[in.Role] {
		for _, existing := range s.addresses {
			_, other, _ := normalizeAddress(existing.Address)
			if other == addr && !uniqueExempt[existing.Role] {
				writeError(w, http.StatusBadRequest, "Duplicate IP address found in global table: "+in.Address)
				return
			}
		}
	}
	if err := s.checkTags(in.Tags); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.AssignedObjectID != nil && !s.assignable(in.AssignedObjectType, *in.AssignedObjectID) {
		writeError(w, http.StatusBadRequest, "assigned object not found")
		return
	}
	rec := AddressRecord{ID: s.id(), IPAddressRequest: in}
	s.addresses = append(s.addresses, rec)
	writeJSON(w, http.StatusCreated, s.addressView(rec))
}

func (s *Server) assignable(objType string, id int) bool {
	switch objType {
	case "dcim.interface":
		for _, i := range s.interfaces {
			if i.ID == id {
				return true
			}
		}
	case "virtualization.vminterface":
		for _, i := range s.vmInterfaces {
			if i.ID == id {
				return true
			}
		}
	}
	return false
}

func (s *Server) listSites(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	s.mu.Lock()
	var out []netbox.Site
	for _, site := range s.sites {
		if name == "" || site.Name == name {
			out = append(out, site)
		}
	}
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	siteID, bySite := intParam(r, "site_id")
	name := r.URL.Query().Get("name")
	s.mu.Lock()
	var out []netbox.Device
	for _, d := range s.devices {
		if bySite && d.SiteID != siteID {
			continue
		}
		if name != "" && d.Name != name {
			continue
		}
		out = append(out, netbox.Device{ID: d.ID, Name: d.Name, Site: &netbox.NestedRef{ID: d.SiteID}})
	}
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) deviceName(id int) string {
	for _, d := range s.devices {
		if d.ID == id {
			return d.Name
		}
	}
	return ""
}

func (s *Server) listInterfaces(w http.ResponseWriter, r *http.Request) {
	deviceID, byID := intParam(r, "device_id")
	device := r.URL.Query().Get("device")
	s.mu.Lock()
	var out []netbox.Interface
	for _, i := range s.interfaces {
		name := s.deviceName(i.DeviceID)
		if byID && i.DeviceID != deviceID {
			continue
		}
		if device != "" && name != device {
			continue
		}
		out = append(out, netbox.Interface{
			ID:     i.ID,
			Name:   i.Name,
			Device: &netbox.NestedRef{ID: i.DeviceID, Name: name},
			Type:   &netbox.Choice{Value: i.Type},
		})
	}
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) createInterface(w http.ResponseWriter, r *http.Request) {
	var in netbox.InterfaceRequest
	if !decode(w, r, &in) {
		return
	}
	if in.Name == "" || in.Type == "" {
		writeError(w, http.StatusBadRequest, "name and type are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.deviceName(in.Device)
	if name == "" {
		writeError(w, http.StatusBadRequest, "device not found")
		return
	}
	for _, i := range s.interfaces {
		if i.DeviceID == in.Device && i.Name == in.Name {
			writeError(w, http.StatusBadRequest, "Interface with this Device and Name already exists.")
			return
		}
	}
	rec := InterfaceRecord{ID: s.id(), DeviceID: in.Device, Name: in.Name, Type: in.Type, CustomFields: in.CustomFields}
	s.interfaces = append(s.interfaces, rec)
	writeJSON(w, http.StatusCreated, netbox.Interface{
		ID:     rec.ID,
		Name:   rec.Name,
		Device: &netbox.NestedRef{ID: rec.DeviceID, Name: name},
		Type:   &netbox.Choice{Value: rec.Type},
	})
}

func (s *Server) listClusters(w http.ResponseWriter, r *http.Request) {
	siteID, bySite := intParam(r, "site_id")
	s.mu.Lock()
	var out []netbox.Cluster
	for _, c := range s.clusters {
		if bySite && c.SiteID != siteID {
			continue
		}
		out = append(out, netbox.Cluster{ID: c.ID, Name: c.Name})
	}
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) listVMs(w http.ResponseWriter, r *http.Request) {
	clusterID, byCluster := intParam(r, "cluster_id")
	name := r.URL.Query().Get("name")
	s.mu.Lock()
	var out []netbox.VirtualMachine
	for _, v := range s.vms {
		if byCluster && v.ClusterID != clusterID {
			continue
		}
		if name != "" && v.Name != name {
			continue
		}
		out = append(out, netbox.VirtualMachine{ID: v.ID, Name: v.Name, Cluster: &netbox.NestedRef{ID: v.ClusterID}})
	}
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) vmName(id int) string {
	for _, v := range s.vms {
		if v.ID == id {
			return v.Name
		}
	}
	return ""
}

func (s *Server) listVMInterfaces(w http.ResponseWriter, r *http.Request) {
	vmID, byID := intParam(r, "virtual_machine_id")
	vmName := r.URL.Query().Get("virtual_machine")
	s.mu.Lock()
	var out []netbox.VMInterface
	for _, i := range s.vmInterfaces {
		name := s.vmName(i.VMID)
		if byID && i.VMID != vmID {
			continue
		}
		if vmName != "" && name != vmName {
			continue
		}
		out = append(out, netbox.VMInterface{ID: i.ID, Name: i.Name, VirtualMachine: &netbox.NestedRef{ID: i.VMID, Name: name}})
	}
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) createVMInterface(w http.ResponseWriter, r *http.Request) {
	var in netbox.VMInterfaceRequest
	if !decode(w, r, &in) {
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.vmName(in.VirtualMachine)
	if name == "" {
		writeError(w, http.StatusBadRequest, "virtual machine not found")
		return
	}
	for _, i := range s.vmInterfaces {
		if i.VMID == in.VirtualMachine && i.Name == in.Name {
			writeError(w, http.StatusBadRequest, "VM interface with this Virtual machine and Name already exists.")
			return
		}
	}
	rec := VMInterfaceRecord{ID: s.id(), VMID: in.VirtualMachine, Name: in.Name, CustomFields: in.CustomFields}
	s.vmInterfaces = append(s.vmInterfaces, rec)
	writeJSON(w, http.StatusCreated, netbox.VMInterface{ID: rec.ID, Name: rec.Name, VirtualMachine: &netbox.NestedRef{ID: rec.VMID, Name: name}})
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]netbox.Tag{}, s.tags...)
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var in netbox.TagRequest
	if !decode(w, r, &in) {
		return
	}
	if in.Name == "" || in.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.Name == in.Name || t.Slug == in.Slug {
			writeError(w, http.StatusBadRequest, "tag with this name already exists.")
			return
		}
	}
	t := netbox.Tag{ID: s.id(), Name: in.Name, Slug: in.Slug}
	s.tags = append(s.tags, t)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) listTenants(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	s.mu.Lock()
	var out []netbox.Tenant
	for _, t := range s.tenants {
		if name == "" || t.Name == name {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	page(w, r, out)
}

func (s *Server) createTenant(w http.ResponseWriter, r *http.Request) {
	var in netbox.TenantRequest
	if !decode(w, r, &in) {
		return
	}
	if in.Name == "" || in.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Name == in.Name {
			writeError(w, http.StatusBadRequest, "tenant with this name already exists.")
			return
		}
	}
	t := netbox.Tenant{ID: s.id(), Name: in.Name, Slug: in.Slug}
	s.tenants = append(s.tenants, t)
	writeJSON(w, http.StatusCreated, t)
}
