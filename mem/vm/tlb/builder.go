package tlb

import (
	"github.com/sarchlab/vmmgr/mem/vm/tlb/internal"
	"github.com/sarchlab/vmmgr/sim"
)

// A Builder can build TLBs
type Builder struct {
	numEntries int
}

// MakeBuilder returns a Builder
func MakeBuilder() Builder {
	return Builder{
		numEntries: 16,
	}
}

// WithNumEntries sets the number of slots of the TLB. The capacity never
// changes after the TLB is built.
func (b Builder) WithNumEntries(n int) Builder {
	b.numEntries = n
	return b
}

// Build creates a new TLB
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		Set:          internal.NewSet(b.numEntries),
	}

	return c
}
