package migrate

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"rtmigrate/internal/index"
	"rtmigrate/internal/ipam"
	"rtmigrate/internal/netbox"

	"github.com/maruel/natural"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

func (m *Migrator) lookupSite(ctx context.Context) (int, error) {
	sites, err := m.dest.ListSites(ctx, m.opts.Site)
	if err != nil {
		return 0, fmt.Errorf("look up site %q: %w", m.opts.Site, err)
	}
	if len(sites) == 0 {
		return 0, fmt.Errorf("%q: %w", m.opts.Site, ErrSiteNotFound)
	}
	return sites[0].ID, nil
}

func (m *Migrator) ensureTenant(ctx context.Context) (int, error) {
	tenants, err := m.dest.ListTenants(ctx, m.opts.Tenant)
	if err != nil {
		return 0, fmt.Errorf("look up tenant %q: %w", m.opts.Tenant, err)
	}
	if len(tenants) > 0 {
		return tenants[0].ID, nil
	}
	t, err := m.dest.CreateTenant(ctx, m.opts.Tenant)
	if err != nil {
		return 0, fmt.Errorf("create tenant %q: %w", m.opts.Tenant, err)
	}
	m.log.WithField("tenant", t.Name).Info("created tenant")
	return t.ID, nil
}

// ensureTags creates the tags NetBox does not have yet.
func (m *Migrator) ensureTags(ctx context.Context, tags []ipam.TagRef) error {
	for _, t := range tags {
		if t.Name == "" || m.index.HasTag(t.Name) {
			continue
		}
		if _, err := m.dest.CreateTag(ctx, t.Name); err != nil {
			return fmt.Errorf("create tag %q: %w", t.Name, err)
		}
		m.index.AddTag(t.Name)
		m.log.WithField("tag", t.Name).Debug("created tag")
	}
	return nil
}

func nestedTags(tags []ipam.TagRef) []netbox.NestedTag {
	return lo.Map(tags, func(t ipam.TagRef, _ int) netbox.NestedTag { return netbox.NestedTag{Name: t.Name} })
}

// migrateTags makes sure the version tags and every Racktables tag exist.
func (m *Migrator) migrateTags(ctx context.Context, st *Stats) error {
	names, err := m.src.TagNames(ctx)
	if err != nil {
		return fmt.Errorf("read tags: %w", err)
	}
	for _, v := range m.opts.versions() {
		names = append(names, m.opts.versionTag(v))
	}
	for _, name := range lo.Uniq(names) {
		if name == "" || m.index.HasTag(name) {
			st.Skipped++
			continue
		}
		if err := m.ensureTags(ctx, ipam.TagRefs(name)); err != nil {
			if err := m.recordFailed(st, name, "tag not created", err); err != nil {
				return err
			}
			continue
		}
		st.Created++
	}
	return nil
}

func siteCacheName(site string) string { return "site_owners_" + netbox.Slugify(site) }

// siteInventory is what the target site holds in NetBox.
type siteInventory struct {
	Owners     []string `json:"owners"`
	ClusterIDs []int    `json:"cluster_ids"`
}

// siteOwners returns the names of the devices and virtual machines of the
// target site. Virtual machines belong to a site through their cluster.
// Owner lookups are scoped to the site from then on.
func (m *Migrator) siteOwners(ctx context.Context) (map[string]struct{}, error) {
	if m.ownersAtSite != nil {
		return m.ownersAtSite, nil
	}

	var inv siteInventory
	cached := false
	if m.cache != nil && m.cache.Enabled() {
		ok, err := m.cache.Load(siteCacheName(m.opts.Site), &inv)
		if err != nil {
			m.log.WithError(err).Warn("ignoring unreadable site cache")
		}
		cached = ok && err == nil
	}
	if !cached {
		var err error
		if inv, err = m.fetchSiteInventory(ctx); err != nil {
			return nil, err
		}
		if m.cache != nil {
			if err := m.cache.Save(siteCacheName(m.opts.Site), inv); err != nil {
				m.log.WithError(err).Warn("site cache not saved")
			}
		}
	}

	m.index.SetScope(index.Scope{SiteID: m.siteID, ClusterIDs: inv.ClusterIDs})
	m.ownersAtSite = lo.SliceToMap(inv.Owners, func(n string) (string, struct{}) { return n, struct{}{} })
	m.log.WithFields(logrus.Fields{"site": m.opts.Site, "owners": len(inv.Owners), "cached": cached}).Info("site owners")
	return m.ownersAtSite, nil
}

func (m *Migrator) fetchSiteInventory(ctx context.Context) (siteInventory, error) {
	bySite := url.Values{"site_id": {strconv.Itoa(m.siteID)}}

	devices, err := m.dest.ListDevices(ctx, bySite)
	if err != nil {
		return siteInventory{}, fmt.Errorf("list devices of site %q: %w", m.opts.Site, err)
	}
	names := lo.Map(devices, func(d netbox.Device, _ int) string { return d.Name })

	clusters, err := m.dest.ListClusters(ctx, bySite)
	if err != nil {
		return siteInventory{}, fmt.Errorf("list clusters of site %q: %w", m.opts.Site, err)
	}
	for _, c := range clusters {
		vms, err := m.dest.ListVirtualMachines(ctx, url.Values{"cluster_id": {strconv.Itoa(c.ID)}})
		if err != nil {
			return siteInventory{}, fmt.Errorf("list virtual machines of cluster %q: %w", c.Name, err)
		}
		names = append(names, lo.Map(vms, func(v netbox.VirtualMachine, _ int) string { return v.Name })...)
	}

	names = lo.Uniq(lo.Compact(names))
	slices.SortFunc(names, compareNatural)
	return siteInventory{
		Owners:     names,
		ClusterIDs: lo.Map(clusters, func(c netbox.Cluster, _ int) int { return c.ID }),
	}, nil
}

func compareNatural(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	}
	return 1
}
