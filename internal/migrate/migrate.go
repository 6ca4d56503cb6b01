// Package migrate copies Racktables networks and addresses into NetBox.
//
// A run builds one destination index, then drives a fixed, ordered set of
// steps. Each step walks its source records and creates what NetBox lacks.
// A failing record is logged and counted; only connectivity errors and
// source read failures stop the run.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"rtmigrate/internal/errs"
	"rtmigrate/internal/index"
	"rtmigrate/internal/ipam"
	"rtmigrate/internal/netbox"
	"rtmigrate/internal/repo"
	"rtmigrate/internal/resolve"

	"github.com/sirupsen/logrus"
)

// ErrSiteNotFound means the configured target site does not exist in NetBox.
var ErrSiteNotFound = errors.New("site not found")

// Source is the Racktables side of a run.
type Source interface {
	Networks(ctx context.Context, v ipam.Version) ([]repo.NetworkRecord, error)
	Addresses(ctx context.Context, v ipam.Version) ([]repo.AddressRecord, error)
	Allocations(ctx context.Context, v ipam.Version) ([]repo.AllocationRecord, error)
	RealmTags(ctx context.Context, realm string) (map[int64][]ipam.TagRef, error)
	TagNames(ctx context.Context) ([]string, error)
}

// Destination is the NetBox side of a run.
type Destination interface {
	index.Destination
	resolve.Destination
	CreatePrefix(ctx context.Context, in netbox.PrefixRequest) (*netbox.Prefix, error)
	CreateIPAddress(ctx context.Context, in netbox.IPAddressRequest) (*netbox.IPAddress, error)
	CreateTag(ctx context.Context, name string) (*netbox.Tag, error)
	ListSites(ctx context.Context, name string) ([]netbox.Site, error)
	ListClusters(ctx context.Context, filter url.Values) ([]netbox.Cluster, error)
	ListTenants(ctx context.Context, name string) ([]netbox.Tenant, error)
	CreateTenant(ctx context.Context, name string) (*netbox.Tenant, error)
}

// Cache keeps lookups between runs.
type Cache interface {
	Enabled() bool
	Load(name string, v any) (bool, error)
	Save(name string, v any) error
}

type Options struct {
	// Site restricts allocations to devices and VMs of this NetBox site.
	Site string
	// Tenant is attached to every created prefix and address; created if missing.
	Tenant string

	IPv4 bool
	IPv6 bool

	Tags             bool
	Networks         bool
	Allocated        bool
	NotAllocated     bool
	AvailableSubnets bool

	IPv4Tag string
	IPv6Tag string

	Available       ipam.StatusPredicate
	AvailableStatus string

	// VLANs maps Racktables network ids to VLANs created by a VLAN migration.
	VLANs map[int64]ipam.VLANRef

	// PlaceholderSuffix overrides the random part of made-up interface names.
	PlaceholderSuffix func() string
}

func (o Options) versions() []ipam.Version {
	var out []ipam.Version
	if o.IPv4 {
		out = append(out, ipam.V4)
	}
	if o.IPv6 {
		out = append(out, ipam.V6)
	}
	return out
}

func (o Options) versionTag(v ipam.Version) string {
	if v == ipam.V6 {
		return o.IPv6Tag
	}
	return o.IPv4Tag
}

type Migrator struct {
	src   Source
	dest  Destination
	cache Cache
	opts  Options
	log   logrus.FieldLogger

	index    *index.Index
	resolver *resolve.Resolver
	tenantID *int
	siteID   int
	// owner names of the target site, nil until computed
	ownersAtSite map[string]struct{}
}

func New(src Source, dest Destination, cache Cache, opts Options, log logrus.FieldLogger) *Migrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.AvailableStatus == "" {
		opts.AvailableStatus = "container"
	}
	return &Migrator{src: src, dest: dest, cache: cache, opts: opts, log: log}
}

// Run migrates everything enabled in the options. The report is returned
// even when the run stops early.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{Started: time.Now()}
	defer func() { report.Duration = time.Since(report.Started) }()

	if err := m.prepare(ctx); err != nil {
		return report, err
	}

	for _, s := range m.Plan() {
		st := report.add(s.Name)
		m.log.WithField("step", s.Name).Info("starting")
		if err := s.Run(ctx, st); err != nil {
			return report, fmt.Errorf("%s: %w", s.Name, err)
		}
		m.log.WithFields(st.fields()).Info("finished")
	}
	return report, nil
}

func (m *Migrator) prepare(ctx context.Context) error {
	x, err := index.Build(ctx, m.dest)
	if err != nil {
		return fmt.Errorf("build destination index: %w", err)
	}
	m.index = x
	prefixes, addresses, tags := x.Len()
	m.log.WithFields(logrus.Fields{"prefixes": prefixes, "addresses": addresses, "tags": tags}).Info("destination index built")

	opts := []resolve.Option{resolve.WithLogger(m.log)}
	if m.opts.PlaceholderSuffix != nil {
		opts = append(opts, resolve.WithSuffix(m.opts.PlaceholderSuffix))
	}
	m.resolver = resolve.New(m.dest, x, opts...)

	if m.opts.Site != "" {
		if m.siteID, err = m.lookupSite(ctx); err != nil {
			return err
		}
		if _, err := m.siteOwners(ctx); err != nil {
			return err
		}
	}
	if m.opts.Tenant != "" {
		id, err := m.ensureTenant(ctx)
		if err != nil {
			return err
		}
		m.tenantID = &id
	}
	return nil
}

// fatal reports errors that must stop the whole run.
func fatal(err error) bool {
	return errs.IsConnectivity(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// recordFailed logs a per-record failure to the error log and counts it.
// It returns err when the failure must stop the run.
func (m *Migrator) recordFailed(st *Stats, key, msg string, err error) error {
	if fatal(err) {
		return err
	}
	st.Failed++
	m.log.WithFields(logrus.Fields{"step": st.Step, "record": key}).WithError(err).Error(msg)
	return nil
}
