// Package repotest provides an in-memory Racktables schema for tests.
package repotest

import (
	"net/netip"
	"testing"

	"rtmigrate/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a gorm handle on a fresh, empty Racktables schema.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	g, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := g.DB()
	require.NoError(t, err)
	// every pooled connection to :memory: would see its own empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, g.AutoMigrate(models.All()...))
	return g
}

// Seed inserts rows (model values, pointers or slices of them).
func Seed(t testing.TB, g *gorm.DB, rows ...any) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, g.Create(r).Error)
	}
}

// V4 converts a dotted IPv4 address into the Racktables integer column value.
func V4(s string) uint32 {
	b := netip.MustParseAddr(s).As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// V6 converts an IPv6 address into the Racktables binary(16) column value.
func V6(s string) []byte {
	b := netip.MustParseAddr(s).As16()
	return b[:]
}
