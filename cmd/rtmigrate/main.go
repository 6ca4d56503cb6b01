package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"rtmigrate/config"
	"rtmigrate/server"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	defer func() {
		if err := recover(); err != nil {
			logrus.WithField("stack", string(debug.Stack())).Errorf("panic: %v", err)
			os.Exit(1)
		}
	}()

	var configPath string
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "config file (yaml, json or toml); RTMIGRATE_* env vars override it",
		EnvVars:     []string{"RTMIGRATE_CONFIG"},
		Destination: &configPath,
	}

	var verbose bool
	verboseFlag := &cli.BoolFlag{
		Name:        "verbose",
		Aliases:     []string{"v"},
		Usage:       "verbose output (includes debug)",
		Destination: &verbose,
	}

	var site, tenant, availableStatus string
	var skipV4, skipV6, skipTags, skipNetworks, skipAllocated, skipNotAllocated, availableSubnets bool
	migrateFlags := []cli.Flag{
		configFlag,
		verboseFlag,
		&cli.StringFlag{Name: "site", Usage: "only migrate allocations of devices and VMs in this NetBox site", Destination: &site},
		&cli.StringFlag{Name: "tenant", Usage: "assign this tenant to created prefixes and addresses", Destination: &tenant},
		&cli.BoolFlag{Name: "skip-ipv4", Usage: "do not migrate IPv4", Destination: &skipV4},
		&cli.BoolFlag{Name: "skip-ipv6", Usage: "do not migrate IPv6", Destination: &skipV6},
		&cli.BoolFlag{Name: "skip-tags", Usage: "do not create tags for Racktables tags", Destination: &skipTags},
		&cli.BoolFlag{Name: "skip-networks", Usage: "do not create prefixes", Destination: &skipNetworks},
		&cli.BoolFlag{Name: "skip-allocated", Usage: "do not create allocated addresses", Destination: &skipAllocated},
		&cli.BoolFlag{Name: "skip-not-allocated", Usage: "do not create unallocated addresses", Destination: &skipNotAllocated},
		&cli.StringFlag{
			Name:        "available-status",
			Usage:       "prefix status for networks marked available; NetBox prefixes have no \"available\" status (" + strings.Join(config.PrefixStatuses, ", ") + ")",
			Value:       "container",
			Destination: &availableStatus,
		},
		&cli.BoolFlag{Name: "available-subnets", Usage: "fill unused space of parent prefixes with available prefixes", Destination: &availableSubnets},
	}

	load := func(c *cli.Context) (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		m := &cfg.Migration
		if c.IsSet("site") {
			m.Site = site
		}
		if c.IsSet("tenant") {
			m.Tenant = tenant
		}
		if c.IsSet("available-status") {
			m.AvailableStatus = availableStatus
		}
		m.IPv4 = m.IPv4 && !skipV4
		m.IPv6 = m.IPv6 && !skipV6
		m.Tags = m.Tags && !skipTags
		m.Networks = m.Networks && !skipNetworks
		m.Allocated = m.Allocated && !skipAllocated
		m.NotAllocated = m.NotAllocated && !skipNotAllocated
		m.AvailableSubnets = m.AvailableSubnets || availableSubnets
		return cfg, cfg.Validate()
	}

	cli.VersionFlag.(*cli.BoolFlag).Aliases = []string{"V"}
	app := &cli.App{
		Name:                   "rtmigrate",
		Usage:                  "migrate Racktables IP networks and addresses into NetBox",
		Version:                version,
		Suggest:                true,
		UseShortOptionHandling: true,
		EnableBashCompletion:   true,
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "run the migration",
				Flags: migrateFlags,
				Action: func(c *cli.Context) error {
					cfg, err := load(c)
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					a := &server.App{}
					if err := a.Initialize(cfg); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					report, err := a.Run()
					if report != nil {
						if rerr := report.Render(os.Stdout); rerr != nil {
							logrus.WithError(rerr).Warn("render report")
						}
					}
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					return nil
				},
			},
			{
				Name:  "check-config",
				Usage: "load and validate the configuration without migrating",
				Flags: migrateFlags,
				Action: func(c *cli.Context) error {
					cfg, err := load(c)
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					fmt.Printf("netbox: %s\ndatabase: %s\nsite: %q\n", cfg.NetBox.URL, cfg.Database.Driver, cfg.Migration.Site)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
