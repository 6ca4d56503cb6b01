package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rtmigrate/config"
	"rtmigrate/internal/cache"
	"rtmigrate/internal/db"
	"rtmigrate/internal/ipam"
	"rtmigrate/internal/logs"
	"rtmigrate/internal/migrate"
	"rtmigrate/internal/netbox"
	"rtmigrate/internal/repo"

	"gorm.io/gorm"
)

// App wires the Racktables database, the NetBox client and the migrator
// for one run.
type App struct {
	cfg      *config.Config
	db       *gorm.DB
	netbox   *netbox.Client
	store    *cache.Store
	migrator *migrate.Migrator

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	// 1) logs
	if err := logs.Init(logs.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		ErrorFile: cfg.Logging.ErrorFile,
	}); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	// 2) source database
	openCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	d, err := db.Open(openCtx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("racktables database: %w", err)
	}
	a.db = d

	// 3) destination
	nb, err := netbox.New(netbox.Options{
		URL:         cfg.NetBox.URL,
		Token:       cfg.NetBox.Token,
		InsecureTLS: cfg.NetBox.InsecureTLS,
		Timeout:     cfg.NetBox.Timeout,
		Retries:     cfg.NetBox.Retries,
		PageSize:    cfg.NetBox.PageSize,
		Logger:      logs.Logger,
	})
	if err != nil {
		a.Close()
		return err
	}
	if err := nb.Status(openCtx); err != nil {
		a.Close()
		return fmt.Errorf("netbox: %w", err)
	}
	a.netbox = nb

	// 4) intermediate lookups
	a.store = cache.NewStore(cfg.Cache.Dir, cfg.Cache.Store)
	vlans, err := LoadVLANs(a.store)
	if err != nil {
		logs.Logger.Warnf("vlan cache ignored: %v", err)
	}

	// 5) migrator
	opts := MigrationOptions(cfg.Migration)
	opts.VLANs = vlans
	a.migrator = migrate.New(repo.NewRacktables(a.db), a.netbox, a.store, opts, logs.Logger)
	return nil
}

// MigrationOptions maps the migration config section onto migrator options.
func MigrationOptions(m config.Migration) migrate.Options {
	return migrate.Options{
		Site:             m.Site,
		Tenant:           m.Tenant,
		IPv4:             m.IPv4,
		IPv6:             m.IPv6,
		Tags:             m.Tags,
		Networks:         m.Networks,
		Allocated:        m.Allocated,
		NotAllocated:     m.NotAllocated,
		AvailableSubnets: m.AvailableSubnets,
		IPv4Tag:          m.IPv4Tag,
		IPv6Tag:          m.IPv6Tag,
		Available:        ipam.MarkerPredicate(m.AvailableMarkers),
		AvailableStatus:  m.AvailableStatus,
	}
}

// LoadVLANs reads the network to VLAN mapping left by a VLAN migration.
// A missing entry yields an empty mapping.
func LoadVLANs(s *cache.Store) (map[int64]ipam.VLANRef, error) {
	vlans := map[int64]ipam.VLANRef{}
	if _, err := s.Load(cache.NetworkVLANs, &vlans); err != nil {
		return map[int64]ipam.VLANRef{}, err
	}
	return vlans, nil
}

// Run migrates once. SIGINT or SIGTERM cancels the run between requests.
func (a *App) Run() (*migrate.Report, error) {
	if a.migrator == nil || a.cfg == nil {
		return nil, ErrNotInitialized
	}
	defer a.Close()

	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			logs.Logger.Warn("interrupted, stopping")
			a.cancel()
		case <-a.ctx.Done():
		}
	}()

	logs.Logger.WithField("site", a.cfg.Migration.Site).Info("migration started")
	report, err := a.migrator.Run(a.ctx)
	if err != nil {
		logs.Logger.WithError(err).Error("migration aborted")
		return report, err
	}
	t := report.Totals()
	logs.Logger.Infof("migration finished in %s: %d created, %d skipped, %d failed",
		report.Duration.Round(time.Millisecond), t.Created, t.Skipped, t.Failed)
	return report, nil
}

func (a *App) Close() {
	if a.db != nil {
		if err := db.Close(a.db); err != nil {
			logs.Logger.Warnf("close database: %v", err)
		}
		a.db = nil
	}
}

var ErrNotInitialized = &initError{"app not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
