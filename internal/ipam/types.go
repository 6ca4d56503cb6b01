package ipam

// TagRef names a NetBox tag. Tags are unique by name.
type TagRef struct {
	Name string `json:"name"`
}

func TagRefs(names ...string) []TagRef {
	out := make([]TagRef, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, TagRef{Name: n})
		}
	}
	return out
}

func TagNames(tags []TagRef) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

// VLANRef is what a previous VLAN migration recorded for a Racktables network.
type VLANRef struct {
	GroupName string `json:"group_name"`
	Name      string `json:"name"`
	ID        int    `json:"id"`
}

type CanonicalPrefix struct {
	CIDR        string
	VLAN        *VLANRef
	Status      Status
	Name        string
	Description string
	Tags        []TagRef
}

type OwnerKind int

const (
	OwnerDevice OwnerKind = iota
	OwnerVirtualMachine
)

func (k OwnerKind) String() string {
	if k == OwnerVirtualMachine {
		return "virtual_machine"
	}
	return "device"
}

// AssignedObjectType is the NetBox content type of interfaces of this owner kind.
func (k OwnerKind) AssignedObjectType() string {
	if k == OwnerVirtualMachine {
		return "virtualization.vminterface"
	}
	return "dcim.interface"
}

type InterfaceRef struct {
	OwnerKind     OwnerKind
	OwnerName     string
	OwnerID       int
	InterfaceName string
	InterfaceID   int
	Created       bool
}

type CanonicalAddress struct {
	CIDR        string
	Name        string
	Description string
	Tags        []TagRef
	Shared      bool
	Interface   *InterfaceRef
}
