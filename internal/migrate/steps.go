package migrate

import (
	"context"
	"fmt"
)

// Kind is a family of source records a step migrates.
type Kind string

const (
	KindTags             Kind = "tags"
	KindNetworks         Kind = "networks"
	KindAllocated        Kind = "allocated"
	KindNotAllocated     Kind = "not_allocated"
	KindAvailableSubnets Kind = "available_subnets"
)

// Step is one unit of the run, reported on its own.
type Step struct {
	Name string
	Kind Kind
	Run  func(ctx context.Context, st *Stats) error
}

// Plan lists the enabled steps in run order: tags first, then networks,
// allocated and unallocated addresses per IP version, then available subnets.
// Allocated addresses go before unallocated ones so the bound form wins.
func (m *Migrator) Plan() []Step {
	var steps []Step
	if m.opts.Tags {
		steps = append(steps, Step{Name: string(KindTags), Kind: KindTags, Run: m.migrateTags})
	}
	for _, v := range m.opts.versions() {
		if m.opts.Networks {
			steps = append(steps, Step{
				Name: fmt.Sprintf("%s %s", v, KindNetworks), Kind: KindNetworks,
				Run: func(ctx context.Context, st *Stats) error { return m.migrateNetworks(ctx, v, st) },
			})
		}
		if m.opts.Allocated {
			steps = append(steps, Step{
				Name: fmt.Sprintf("%s %s", v, KindAllocated), Kind: KindAllocated,
				Run: func(ctx context.Context, st *Stats) error { return m.migrateAllocated(ctx, v, st) },
			})
		}
		if m.opts.NotAllocated {
			steps = append(steps, Step{
				Name: fmt.Sprintf("%s %s", v, KindNotAllocated), Kind: KindNotAllocated,
				Run: func(ctx context.Context, st *Stats) error { return m.migrateNotAllocated(ctx, v, st) },
			})
		}
	}
	if m.opts.AvailableSubnets {
		steps = append(steps, Step{Name: string(KindAvailableSubnets), Kind: KindAvailableSubnets, Run: m.migrateAvailableSubnets})
	}
	return steps
}
