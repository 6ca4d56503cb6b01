package resolve

import (
	"strings"

	"rtmigrate/internal/ipam"
)

// Racktables object types.
const (
	ObjtypeRouter         = 7
	ObjtypeNetworkSwitch  = 8
	ObjtypeVirtualMachine = 1504
)

// OwnerKindFor classifies a Racktables object: virtual machines are one
// object type, everything else is a device.
func OwnerKindFor(objtype int) ipam.OwnerKind {
	if objtype == ObjtypeVirtualMachine {
		return ipam.OwnerVirtualMachine
	}
	return ipam.OwnerDevice
}

type rename struct{ from, to string }

// Abbreviated vendor prefixes, applied in order. Each rule only fires when
// the prefix is followed by a digit, dash or space.
var networkGearRules = []rename{
	{"Eth", "Ethernet"},
	{"eth", "Ethernet"},
	{"ethernet", "Ethernet"},
	{"Po", "Port-Channel"},
	{"Port-channel", "Port-Channel"},
	{"BE", "Bundle-Ether"},
	{"Lo", "Loopback"},
	{"Loop", "Loopback"},
	{"Vl", "VLAN"},
	{"Vlan", "VLAN"},
	{"Mg", "MgmtEth"},
	{"Se", "Serial"},
	{"Gi", "GigabitEthernet"},
	{"Te", "TenGigE"},
	{"Tw", "TwentyFiveGigE"},
	{"Fo", "FortyGigE"},
	{"Hu", "HundredGigE"},
}

var rulesByObjtype = map[int][]rename{
	ObjtypeRouter:        networkGearRules,
	ObjtypeNetworkSwitch: networkGearRules,
}

// NormalizeName rewrites a Racktables interface name into the NetBox naming
// used for objects of this type. Surrounding space is always trimmed.
func NormalizeName(raw string, objtype int) string {
	name := strings.TrimSpace(raw)
	for _, r := range rulesByObjtype[objtype] {
		if len(name) > len(r.from) && strings.HasPrefix(name, r.from) &&
			strings.ContainsRune("0123456789- ", rune(name[len(r.from)])) {
			name = r.to + name[len(r.from):]
		}
	}
	return name
}
