// Package resolve finds or creates the NetBox interface an address is attached to.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rtmigrate/internal/index"
	"rtmigrate/internal/ipam"
	"rtmigrate/internal/netbox"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlaceholderPrefix names interfaces made up for allocations without one.
const PlaceholderPrefix = "no_source_name"

// ErrOwnerNotFound means the allocation's device or VM is not in NetBox.
var ErrOwnerNotFound = errors.New("owner not found")

// Destination is the part of the NetBox API the resolver writes to.
type Destination interface {
	CreateInterface(ctx context.Context, in netbox.InterfaceRequest) (*netbox.Interface, error)
	CreateVMInterface(ctx context.Context, in netbox.VMInterfaceRequest) (*netbox.VMInterface, error)
}

type Resolver struct {
	dest   Destination
	index  *index.Index
	suffix func() string
	log    logrus.FieldLogger
}

type Option func(*Resolver)

// WithSuffix replaces the random part of placeholder names.
func WithSuffix(fn func() string) Option { return func(r *Resolver) { r.suffix = fn } }

func WithLogger(l logrus.FieldLogger) Option { return func(r *Resolver) { r.log = l } }

func New(dest Destination, idx *index.Index, opts ...Option) *Resolver {
	r := &Resolver{
		dest:   dest,
		index:  idx,
		suffix: randomSuffix,
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// InterfaceName is the NetBox name for a raw Racktables interface name.
// Empty names get a unique placeholder.
func (r *Resolver) InterfaceName(raw string, objtype int) string {
	if strings.TrimSpace(raw) == "" {
		return PlaceholderPrefix + r.suffix()
	}
	return NormalizeName(raw, objtype)
}

// Resolve returns the interface named after raw on the owner, creating a
// virtual one when the owner has no such interface.
func (r *Resolver) Resolve(ctx context.Context, kind ipam.OwnerKind, ownerName, raw string, objtype int) (ipam.InterfaceRef, error) {
	name := r.InterfaceName(raw, objtype)
	ref := ipam.InterfaceRef{OwnerKind: kind, OwnerName: ownerName, InterfaceName: name}

	owner, err := r.index.Owner(ctx, kind, ownerName)
	if err != nil {
		return ref, err
	}
	if owner == nil {
		return ref, fmt.Errorf("%s %q: %w", kind, ownerName, ErrOwnerNotFound)
	}
	ref.OwnerID = owner.ID

	if id, ok := owner.Interface(name); ok {
		ref.InterfaceID = id
		return ref, nil
	}

	id, err := r.create(ctx, kind, owner.ID, name)
	if err != nil {
		return ref, fmt.Errorf("create interface %s on %s %q: %w", name, kind, ownerName, err)
	}
	owner.AddInterface(name, id)
	ref.InterfaceID = id
	ref.Created = true
	r.log.WithFields(logrus.Fields{"owner": ownerName, "interface": name}).Debug("created virtual interface")
	return ref, nil
}

func (r *Resolver) create(ctx context.Context, kind ipam.OwnerKind, ownerID int, name string) (int, error) {
	if kind == ipam.OwnerVirtualMachine {
		iface, err := r.dest.CreateVMInterface(ctx, netbox.VMInterfaceRequest{
			VirtualMachine: ownerID,
			Name:           name,
			CustomFields:   map[string]any{"VM_Interface_Type": "Virtual"},
		})
		if err != nil {
			return 0, err
		}
		return iface.ID, nil
	}
	iface, err := r.dest.CreateInterface(ctx, netbox.InterfaceRequest{
		Device:       ownerID,
		Name:         name,
		Type:         "virtual",
		CustomFields: map[string]any{"Device_Interface_Type": "Virtual"},
	})
	if err != nil {
		return 0, err
	}
	return iface.ID, nil
}
