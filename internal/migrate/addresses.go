package migrate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"rtmigrate/internal/ipam"
	"rtmigrate/internal/netbox"
	"rtmigrate/internal/repo"
	"rtmigrate/internal/resolve"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const roleVRRP = "vrrp"

func (m *Migrator) addressRequest(a ipam.CanonicalAddress, fields map[string]any) netbox.IPAddressRequest {
	req := netbox.IPAddressRequest{
		Address:      a.CIDR,
		Description:  a.Description,
		Tenant:       m.tenantID,
		Tags:         nestedTags(a.Tags),
		CustomFields: fields,
	}
	if a.Shared {
		req.Role = roleVRRP
	}
	if a.Interface != nil {
		id := a.Interface.InterfaceID
		req.AssignedObjectType = a.Interface.OwnerKind.AssignedObjectType()
		req.AssignedObjectID = &id
	}
	return req
}

// createAddress submits a and records it in the index on success.
func (m *Migrator) createAddress(ctx context.Context, a ipam.CanonicalAddress, fields map[string]any) error {
	if err := m.ensureTags(ctx, a.Tags); err != nil {
		return err
	}
	if _, err := m.dest.CreateIPAddress(ctx, m.addressRequest(a, fields)); err != nil {
		return err
	}
	m.index.AddAddress(a.CIDR)
	return nil
}

// filterSite keeps the allocations owned by a device or VM of the target site.
func (m *Migrator) filterSite(ctx context.Context, allocs []repo.AllocationRecord) ([]repo.AllocationRecord, error) {
	if m.opts.Site == "" {
		return allocs, nil
	}
	owners, err := m.siteOwners(ctx)
	if err != nil {
		return nil, err
	}
	kept := lo.Filter(allocs, func(a repo.AllocationRecord, _ int) bool {
		_, ok := owners[strings.TrimSpace(a.OwnerName)]
		return ok
	})
	m.log.WithField("site", m.opts.Site).Infof("%s of %s allocations belong to the site",
		humanize.Comma(int64(len(kept))), humanize.Comma(int64(len(allocs))))
	return kept, nil
}

func (m *Migrator) migrateAllocated(ctx context.Context, v ipam.Version, st *Stats) error {
	allocs, err := m.src.Allocations(ctx, v)
	if err != nil {
		return fmt.Errorf("read allocations: %w", err)
	}
	addrs, err := m.src.Addresses(ctx, v)
	if err != nil {
		return fmt.Errorf("read addresses: %w", err)
	}
	info := lo.SliceToMap(addrs, func(a repo.AddressRecord) (string, repo.AddressRecord) { return string(a.IP), a })

	if allocs, err = m.filterSite(ctx, allocs); err != nil {
		return err
	}
	// group work per owner; records of one owner keep their source order
	slices.SortStableFunc(allocs, func(a, b repo.AllocationRecord) int {
		return compareNatural(strings.TrimSpace(a.OwnerName), strings.TrimSpace(b.OwnerName))
	})

	for _, a := range allocs {
		if err := m.migrateAllocation(ctx, v, a, info[string(a.IP)], st); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) migrateAllocation(ctx context.Context, v ipam.Version, a repo.AllocationRecord, meta repo.AddressRecord, st *Stats) error {
	owner := strings.TrimSpace(a.OwnerName)
	cidr, err := ipam.AddressString(v, a.IP)
	if err != nil {
		return m.recordFailed(st, fmt.Sprintf("allocation of object %d", a.ObjectID), "invalid address", err)
	}
	if owner == "" || (!a.Shared() && m.index.HasAddress(cidr)) {
		st.Skipped++
		return nil
	}

	tags := ipam.TagRefs(m.opts.versionTag(v))
	if err := m.ensureTags(ctx, tags); err != nil {
		return m.recordFailed(st, cidr, "address not created", err)
	}

	kind := resolve.OwnerKindFor(a.OwnerObjtypeID)
	ref, err := m.resolver.Resolve(ctx, kind, owner, a.InterfaceName, a.OwnerObjtypeID)
	if errors.Is(err, resolve.ErrOwnerNotFound) {
		st.Skipped++
		m.log.WithFields(logrus.Fields{"address": cidr, "owner": owner}).Warn("owner not in netbox, address skipped")
		return nil
	}
	if err != nil {
		return m.recordFailed(st, cidr, "interface not resolved, address skipped", err)
	}

	addr := ipam.CanonicalAddress{
		CIDR:        cidr,
		Name:        meta.Name,
		Description: ipam.Truncate(meta.Comment, ipam.MaxDescription),
		Tags:        tags,
		Shared:      a.Shared(),
		Interface:   &ref,
	}
	fields := map[string]any{"IP_Name": meta.Name, "Interface_Name": ref.InterfaceName, "IP_Type": a.Type}
	if err := m.createAddress(ctx, addr, fields); err != nil {
		return m.recordFailed(st, cidr, "address not created", err)
	}
	st.Created++
	m.log.WithFields(logrus.Fields{"address": cidr, "owner": owner, "interface": ref.InterfaceName}).Debug("created address")
	return nil
}

func (m *Migrator) migrateNotAllocated(ctx context.Context, v ipam.Version, st *Stats) error {
	addrs, err := m.src.Addresses(ctx, v)
	if err != nil {
		return fmt.Errorf("read addresses: %w", err)
	}
	m.log.WithField("version", v.String()).Infof("%s addresses to check", humanize.Comma(int64(len(addrs))))

	tags := ipam.TagRefs(m.opts.versionTag(v))
	for _, a := range addrs {
		cidr, err := ipam.AddressString(v, a.IP)
		if err != nil {
			if err := m.recordFailed(st, fmt.Sprintf("address %x", a.IP), "invalid address", err); err != nil {
				return err
			}
			continue
		}
		if m.index.HasAddress(cidr) {
			st.Skipped++
			continue
		}
		addr := ipam.CanonicalAddress{
			CIDR:        cidr,
			Name:        a.Name,
			Description: ipam.Truncate(a.Comment, ipam.MaxDescription),
			Tags:        tags,
		}
		if err := m.createAddress(ctx, addr, map[string]any{"IP_Name": a.Name}); err != nil {
			if err := m.recordFailed(st, cidr, "address not created", err); err != nil {
				return err
			}
			continue
		}
		st.Created++
		m.log.WithField("address", cidr).Debug("created unallocated address")
	}
	return nil
}
