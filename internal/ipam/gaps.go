package ipam

import (
	"fmt"
	"net/netip"
	"slices"

	"go4.org/netipx"
)

// Gap size limits: longer gaps are too small to be worth a prefix.
const (
	MaxGapBitsV4 = 30
	MaxGapBitsV6 = 126
)

// Gaps returns the parts of parent not covered by any of children, as the
// minimal list of prefixes. Children outside parent are ignored.
func Gaps(parent netip.Prefix, children []netip.Prefix) ([]netip.Prefix, error) {
	var b netipx.IPSetBuilder
	b.AddPrefix(parent.Masked())
	for _, c := range children {
		if parent.Overlaps(c) {
			b.RemovePrefix(c.Masked())
		}
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("gaps of %s: %w", parent, err)
	}
	out := set.Prefixes()
	maxBits := MaxGapBitsV4
	if parent.Addr().Is6() {
		maxBits = MaxGapBitsV6
	}
	return slices.DeleteFunc(out, func(p netip.Prefix) bool { return p.Bits() > maxBits }), nil
}

// Containers groups prefixes by their closest strict supernet within the same list.
// Prefixes without a supernet in the list are not keys.
func Containers(prefixes []netip.Prefix) map[netip.Prefix][]netip.Prefix {
	out := map[netip.Prefix][]netip.Prefix{}
	for _, p := range prefixes {
		p = p.Masked()
		var parent netip.Prefix
		found := false
		for _, q := range prefixes {
			q = q.Masked()
			if q.Bits() >= p.Bits() || !q.Contains(p.Addr()) {
				continue
			}
			if !found || q.Bits() > parent.Bits() {
				parent, found = q, true
			}
		}
		if found {
			out[parent] = append(out[parent], p)
		}
	}
	return out
}
