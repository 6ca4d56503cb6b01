package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"rtmigrate/internal/errs"
	"rtmigrate/internal/ipam"
	"rtmigrate/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// NetworkRecord is one row of IPv{4,6}Network. IP is the raw big-endian address.
type NetworkRecord struct {
	ID      int64
	IP      []byte
	Mask    int
	Name    string
	Comment string
}

type AddressRecord struct {
	IP      []byte
	Name    string
	Comment string
}

// AllocationShared marks a floating (VRRP-style) address that may be bound
// to several objects.
const AllocationShared = "shared"

// AllocationRecord binds an address to its owning Object.
type AllocationRecord struct {
	ObjectID       int64
	IP             []byte
	InterfaceName  string
	Type           string
	OwnerObjtypeID int
	OwnerName      string
}

func (a AllocationRecord) Shared() bool { return a.Type == AllocationShared }

// Racktables is a read-only view over the Racktables schema.
type Racktables struct{ db *gorm.DB }

func NewRacktables(db *gorm.DB) *Racktables { return &Racktables{db: db} }

// ipColumn is how Racktables stores an address: int unsigned for IPv4,
// binary(16) for IPv6.
type ipColumn interface{ uint32 | []byte }

func rawIP[T ipColumn](ip T) []byte {
	switch x := any(ip).(type) {
	case uint32:
		return ipam.Uint32ToRaw(x)
	case []byte:
		return append([]byte(nil), x...)
	}
	return nil
}

// allocationRow is an allocation joined with its owning Object.
type allocationRow[T ipColumn] struct {
	ObjectID  int64
	IP        T
	Name      string
	Type      string
	ObjtypeID int
	OwnerName string
}

func (a allocationRow[T]) record() AllocationRecord {
	return AllocationRecord{
		ObjectID:       a.ObjectID,
		IP:             rawIP(a.IP),
		InterfaceName:  a.Name,
		Type:           a.Type,
		OwnerObjtypeID: a.ObjtypeID,
		OwnerName:      a.OwnerName,
	}
}

// Networks returns every IPv{v}Network row ordered by id.
func (r *Racktables) Networks(ctx context.Context, v ipam.Version) ([]NetworkRecord, error) {
	var out []NetworkRecord
	var err error
	if v == ipam.V6 {
		var rows []models.IPv6Network
		err = r.find(ctx, &rows, "id")
		out = lo.Map(rows, func(n models.IPv6Network, _ int) NetworkRecord {
			return NetworkRecord{ID: n.ID, IP: rawIP(n.IP), Mask: n.Mask, Name: n.Name, Comment: n.Comment}
		})
	} else {
		var rows []models.IPv4Network
		err = r.find(ctx, &rows, "id")
		out = lo.Map(rows, func(n models.IPv4Network, _ int) NetworkRecord {
			return NetworkRecord{ID: n.ID, IP: rawIP(n.IP), Mask: n.Mask, Name: n.Name, Comment: n.Comment}
		})
	}
	if err != nil {
		return nil, fmt.Errorf("load %s networks: %w", v, err)
	}
	return out, nil
}

// Addresses returns every IPv{v}Address row: named or commented addresses.
func (r *Racktables) Addresses(ctx context.Context, v ipam.Version) ([]AddressRecord, error) {
	var out []AddressRecord
	var err error
	if v == ipam.V6 {
		var rows []models.IPv6Address
		err = r.find(ctx, &rows, "ip")
		out = lo.Map(rows, func(a models.IPv6Address, _ int) AddressRecord {
			return AddressRecord{IP: rawIP(a.IP), Name: a.Name, Comment: a.Comment}
		})
	} else {
		var rows []models.IPv4Address
		err = r.find(ctx, &rows, "ip")
		out = lo.Map(rows, func(a models.IPv4Address, _ int) AddressRecord {
			return AddressRecord{IP: rawIP(a.IP), Name: a.Name, Comment: a.Comment}
		})
	}
	if err != nil {
		return nil, fmt.Errorf("load %s addresses: %w", v, err)
	}
	return out, nil
}

// Allocations returns IPv{v}Allocation rows joined with their owning Object.
// Allocations of a missing Object are dropped.
func (r *Racktables) Allocations(ctx context.Context, v ipam.Version) ([]AllocationRecord, error) {
	var out []AllocationRecord
	var err error
	if v == ipam.V6 {
		var rows []allocationRow[[]byte]
		err = r.allocations(ctx, models.IPv6Allocation{}.TableName(), &rows)
		out = lo.Map(rows, func(a allocationRow[[]byte], _ int) AllocationRecord { return a.record() })
	} else {
		var rows []allocationRow[uint32]
		err = r.allocations(ctx, models.IPv4Allocation{}.TableName(), &rows)
		out = lo.Map(rows, func(a allocationRow[uint32], _ int) AllocationRecord { return a.record() })
	}
	if err != nil {
		return nil, fmt.Errorf("load %s allocations: %w", v, err)
	}
	return out, nil
}

func (r *Racktables) allocations(ctx context.Context, table string, dest any) error {
	err := r.db.WithContext(ctx).
		Table(table + " AS a").
		Select("a.object_id, a.ip, a.name, a.type, o.objtype_id, o.name AS owner_name").
		Joins("JOIN " + models.Object{}.TableName() + " o ON o.id = a.object_id").
		Order("a.object_id, a.ip").
		Scan(dest).Error
	return classify(err)
}

// RealmTags returns the tags of every entity of realm ("ipv4net", "ipv6net", ...),
// keyed by entity id, in tag id order.
func (r *Racktables) RealmTags(ctx context.Context, realm string) (map[int64][]ipam.TagRef, error) {
	var rows []struct {
		EntityID int64
		Tag      string
	}
	err := r.db.WithContext(ctx).
		Table(models.TagStorage{}.TableName()+" AS s").
		Select("s.entity_id, t.tag").
		Joins("JOIN "+models.TagTree{}.TableName()+" t ON t.id = s.tag_id").
		Where("s.entity_realm = ?", realm).
		Order("s.entity_id, t.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load %s tags: %w", realm, classify(err))
	}

	out := map[int64][]ipam.TagRef{}
	for _, row := range rows {
		out[row.EntityID] = append(out[row.EntityID], ipam.TagRef{Name: row.Tag})
	}
	return out, nil
}

// TagNames lists every tag defined in TagTree.
func (r *Racktables) TagNames(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.TagTree{}).Order("id").Pluck("tag", &out).Error
	if err != nil {
		return nil, fmt.Errorf("load tag tree: %w", classify(err))
	}
	return out, nil
}

func (r *Racktables) find(ctx context.Context, dest any, order string) error {
	return classify(r.db.WithContext(ctx).Order(order).Find(dest).Error)
}

// classify marks lost or refused connections as connectivity errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var nerr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &nerr) ||
		// database/sql does not export this one
		strings.Contains(err.Error(), "sql: database is closed") {
		return errs.Connectivity("racktables", err)
	}
	return err
}
