package ipam

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Version is the IP family of a Racktables table set (IPv4* or IPv6*).
type Version int

const (
	V4 Version = 4
	V6 Version = 6
)

func (v Version) String() string { return "IPv" + strconv.Itoa(int(v)) }

// HostBits is the mask length of a single host: 32 or 128.
func (v Version) HostBits() int {
	if v == V6 {
		return 128
	}
	return 32
}

// Realm is the TagStorage entity_realm of networks of this version.
func (v Version) Realm() string {
	return fmt.Sprintf("ipv%dnet", int(v))
}

// IsHostRoute reports whether a network of this mask is a single address.
// Those belong to the address path, not to prefixes.
func (v Version) IsHostRoute(mask int) bool { return mask >= v.HostBits() }

// Uint32ToRaw converts an IPv4 `int unsigned` column into raw bytes.
func Uint32ToRaw(u uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, u)
	return b
}

// AddrFromRaw decodes a big-endian raw address of the given version.
func AddrFromRaw(v Version, raw []byte) (netip.Addr, error) {
	switch {
	case v == V4 && len(raw) == 4:
		return netip.AddrFrom4([4]byte(raw)), nil
	case v == V6 && len(raw) == 16:
		return netip.AddrFrom16([16]byte(raw)), nil
	default:
		return netip.Addr{}, fmt.Errorf("invalid %s raw address of %d bytes", v, len(raw))
	}
}

// PrefixString formats "addr/mask" the way NetBox stores prefixes.
func PrefixString(v Version, raw []byte, mask int) (string, error) {
	addr, err := AddrFromRaw(v, raw)
	if err != nil {
		return "", err
	}
	if mask < 0 || mask > v.HostBits() {
		return "", fmt.Errorf("invalid %s mask %d", v, mask)
	}
	return addr.String() + "/" + strconv.Itoa(mask), nil
}

// AddressString formats a host address: "/32" appended for IPv4, IPv6 left bare.
func AddressString(v Version, raw []byte) (string, error) {
	addr, err := AddrFromRaw(v, raw)
	if err != nil {
		return "", err
	}
	if v == V4 {
		return addr.String() + "/32", nil
	}
	return addr.String(), nil
}

// AddressKey canonicalises an address as returned by NetBox ("2001:db8::1/128")
// or as built by AddressString ("2001:db8::1") into one comparable key.
// Non-host masks are kept, so "10.0.0.1/24" and "10.0.0.1/32" stay distinct.
func AddressKey(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return s
		}
		return hostKey(addr)
	}
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return s
	}
	if p.Bits() == p.Addr().BitLen() {
		return hostKey(p.Addr())
	}
	return p.String()
}

func hostKey(addr netip.Addr) string {
	addr = addr.Unmap()
	if addr.Is4() {
		return addr.String() + "/32"
	}
	return addr.String()
}

// PrefixKey canonicalises a prefix string for set membership.
func PrefixKey(s string) string {
	p, err := netip.ParsePrefix(strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return p.String()
}
