package migrate

import (
	"context"
	"fmt"

	"rtmigrate/internal/ipam"
	"rtmigrate/internal/netbox"
	"rtmigrate/internal/repo"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

func (m *Migrator) statusValue(s ipam.Status) string {
	if s == ipam.StatusAvailable {
		return m.opts.AvailableStatus
	}
	return s.String()
}

// canonicalPrefix maps a network onto a NetBox prefix. ok is false for host
// routes, which are migrated as addresses.
func (m *Migrator) canonicalPrefix(v ipam.Version, n repo.NetworkRecord, realmTags []ipam.TagRef) (ipam.CanonicalPrefix, bool, error) {
	if v.IsHostRoute(n.Mask) {
		return ipam.CanonicalPrefix{}, false, nil
	}
	cidr, err := ipam.PrefixString(v, n.IP, n.Mask)
	if err != nil {
		return ipam.CanonicalPrefix{}, false, err
	}
	p := ipam.CanonicalPrefix{
		CIDR:        cidr,
		Status:      ipam.Classify(m.opts.Available, n.Name, n.Comment),
		Name:        n.Name,
		Description: ipam.FormatDescription(n.Name, realmTags, n.Comment),
		Tags:        append(ipam.TagRefs(m.opts.versionTag(v)), realmTags...),
	}
	if vlan, ok := m.opts.VLANs[n.ID]; ok && vlan.ID != 0 {
		p.VLAN = &vlan
	}
	return p, true, nil
}

func (m *Migrator) prefixRequest(p ipam.CanonicalPrefix) netbox.PrefixRequest {
	req := netbox.PrefixRequest{
		Prefix:      p.CIDR,
		Status:      m.statusValue(p.Status),
		Description: p.Description,
		Tenant:      m.tenantID,
		Tags:        nestedTags(p.Tags),
	}
	if p.Name != "" {
		req.CustomFields = map[string]any{"Prefix_Name": p.Name}
	}
	if p.VLAN != nil {
		id := p.VLAN.ID
		req.VLAN = &id
	}
	return req
}

func (m *Migrator) migrateNetworks(ctx context.Context, v ipam.Version, st *Stats) error {
	networks, err := m.src.Networks(ctx, v)
	if err != nil {
		return fmt.Errorf("read networks: %w", err)
	}
	realmTags, err := m.src.RealmTags(ctx, v.Realm())
	if err != nil {
		return fmt.Errorf("read network tags: %w", err)
	}
	m.log.WithField("version", v.String()).Infof("%s networks to check", humanize.Comma(int64(len(networks))))

	for _, n := range networks {
		key := fmt.Sprintf("network %d", n.ID)
		p, ok, err := m.canonicalPrefix(v, n, realmTags[n.ID])
		if err != nil {
			if err := m.recordFailed(st, key, "invalid network", err); err != nil {
				return err
			}
			continue
		}
		if !ok || m.index.HasPrefix(p.CIDR) {
			st.Skipped++
			continue
		}
		if err := m.createPrefix(ctx, p); err != nil {
			if err := m.recordFailed(st, p.CIDR, "prefix not created", err); err != nil {
				return err
			}
			continue
		}
		st.Created++
		m.log.WithFields(logrus.Fields{"prefix": p.CIDR, "name": p.Name, "status": m.statusValue(p.Status)}).Debug("created prefix")
	}
	return nil
}

// createPrefix submits p and records it in the index on success.
func (m *Migrator) createPrefix(ctx context.Context, p ipam.CanonicalPrefix) error {
	if err := m.ensureTags(ctx, p.Tags); err != nil {
		return err
	}
	if _, err := m.dest.CreatePrefix(ctx, m.prefixRequest(p)); err != nil {
		return err
	}
	m.index.AddPrefix(p.CIDR)
	return nil
}
