package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultToken is the placeholder token shipped in sample configs. A run
// with it would only produce 403s, so Validate rejects it.
const DefaultToken = "0123456789abcdef0123456789abcdef01234567"

// PrefixStatuses are the statuses NetBox accepts on a prefix.
var PrefixStatuses = []string{"active", "container", "reserved", "deprecated"}

type Config struct {
	Logging   Logging   `mapstructure:"logging"`
	Database  Database  `mapstructure:"database"`
	NetBox    NetBox    `mapstructure:"netbox"`
	Migration Migration `mapstructure:"migration"`
	Cache     Cache     `mapstructure:"cache"`
}

type Logging struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	File      string `mapstructure:"file"`
	ErrorFile string `mapstructure:"error_file"`
}

// Database points at the Racktables schema (read-only).
type Database struct {
	Driver string `mapstructure:"driver"` // mysql | postgres
	DSN    string `mapstructure:"dsn"`
}

type NetBox struct {
	URL         string        `mapstructure:"url"`
	Token       string        `mapstructure:"token"`
	InsecureTLS bool          `mapstructure:"insecure_tls"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	PageSize    int           `mapstructure:"page_size"`
}

type Migration struct {
	Site   string `mapstructure:"site"`
	Tenant string `mapstructure:"tenant"`

	IPv4             bool `mapstructure:"ipv4"`
	IPv6             bool `mapstructure:"ipv6"`
	Tags             bool `mapstructure:"tags"`
	Networks         bool `mapstructure:"networks"`
	Allocated        bool `mapstructure:"allocated"`
	NotAllocated     bool `mapstructure:"not_allocated"`
	AvailableSubnets bool `mapstructure:"available_subnets"`

	IPv4Tag string `mapstructure:"ipv4_tag"`
	IPv6Tag string `mapstructure:"ipv6_tag"`

	// AvailableMarkers are matched case-insensitively against a network's
	// name and comment; any hit classifies it as available.
	AvailableMarkers []string `mapstructure:"available_markers"`
	// AvailableStatus is the NetBox prefix status written for available
	// networks. NetBox prefixes have no "available" status, so the default
	// is container.
	AvailableStatus string `mapstructure:"available_status"`
}

type Cache struct {
	Dir   string `mapstructure:"dir"`
	Store bool   `mapstructure:"store"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.error_file", "errors")

	v.SetDefault("logging.file", "")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")

	v.SetDefault("netbox.url", "")
	v.SetDefault("netbox.token", "")
	v.SetDefault("netbox.insecure_tls", false)

	v.SetDefault("netbox.timeout", 30*time.Second)
	v.SetDefault("netbox.retries", 0)
	v.SetDefault("netbox.page_size", 1000)

	// every key needs a default so AutomaticEnv can see it during Unmarshal
	v.SetDefault("migration.site", "")
	v.SetDefault("migration.tenant", "")
	v.SetDefault("migration.ipv4", true)
	v.SetDefault("migration.ipv6", true)
	v.SetDefault("migration.tags", true)
	v.SetDefault("migration.networks", true)
	v.SetDefault("migration.allocated", true)
	v.SetDefault("migration.not_allocated", true)
	v.SetDefault("migration.available_subnets", false)
	v.SetDefault("migration.ipv4_tag", "IPv4")
	v.SetDefault("migration.ipv6_tag", "IPv6")
	v.SetDefault("migration.available_markers", []string{
		"available", "unused", "free", "unallocated", "[here be dragons", "[create network here]",
	})
	v.SetDefault("migration.available_status", "container")

	v.SetDefault("cache.dir", ".")
	v.SetDefault("cache.store", false)
}

// Load reads defaults, then the optional file at path, then RTMIGRATE_* env vars.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RTMIGRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}
	if c.NetBox.URL == "" {
		errs = append(errs, errors.New("netbox.url is required"))
	}
	switch c.NetBox.Token {
	case "":
		errs = append(errs, errors.New("netbox.token is required"))
	case DefaultToken:
		errs = append(errs, errors.New("netbox.token is the sample placeholder, set a real API token"))
	}
	if !c.Migration.IPv4 && !c.Migration.IPv6 {
		errs = append(errs, errors.New("both ipv4 and ipv6 migration are disabled"))
	}
	if !slices.Contains(PrefixStatuses, c.Migration.AvailableStatus) {
		errs = append(errs, fmt.Errorf("migration.available_status %q is not a netbox prefix status (one of %s)",
			c.Migration.AvailableStatus, strings.Join(PrefixStatuses, ", ")))
	}
	if c.Migration.IPv4Tag == "" || c.Migration.IPv6Tag == "" {
		errs = append(errs, errors.New("migration.ipv4_tag and migration.ipv6_tag must be set"))
	}
	return errors.Join(errs...)
}
