package migrate

import (
	"context"
	"net/netip"
	"slices"

	"rtmigrate/internal/ipam"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Tags put on generated available subnets.
var subnetTags = ipam.TagRefs("Available", "Auto-Generated")

// migrateAvailableSubnets fills the unused space of every prefix that has
// child prefixes with prefixes in the available status.
func (m *Migrator) migrateAvailableSubnets(ctx context.Context, st *Stats) error {
	versions := m.opts.versions()
	prefixes := lo.Filter(m.index.Prefixes(), func(p netip.Prefix, _ int) bool {
		v := ipam.V4
		if p.Addr().Is6() {
			v = ipam.V6
		}
		return slices.Contains(versions, v)
	})

	containers := ipam.Containers(prefixes)
	parents := lo.Keys(containers)
	slices.SortFunc(parents, func(a, b netip.Prefix) int { return a.Addr().Compare(b.Addr()) })

	for _, parent := range parents {
		gaps, err := ipam.Gaps(parent, containers[parent])
		if err != nil {
			if err := m.recordFailed(st, parent.String(), "gap computation failed", err); err != nil {
				return err
			}
			continue
		}
		for _, gap := range gaps {
			cidr := gap.String()
			if m.index.HasPrefix(cidr) {
				st.Skipped++
				continue
			}
			p := ipam.CanonicalPrefix{
				CIDR:        cidr,
				Status:      ipam.StatusAvailable,
				Description: "Available subnet in " + parent.String(),
				Tags:        subnetTags,
			}
			if err := m.createPrefix(ctx, p); err != nil {
				if err := m.recordFailed(st, cidr, "available subnet not created", err); err != nil {
					return err
				}
				continue
			}
			st.Created++
			m.log.WithFields(logrus.Fields{"prefix": cidr, "parent": parent.String()}).Debug("created available subnet")
		}
	}
	return nil
}
