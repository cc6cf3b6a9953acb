package addresstranslator

import (
	"github.com/sarchlab/vmmgr/mem/mem"
	"github.com/sarchlab/vmmgr/mem/vm"
	"github.com/sarchlab/vmmgr/mem/vm/mmu"
	"github.com/sarchlab/vmmgr/mem/vm/stats"
	"github.com/sarchlab/vmmgr/mem/vm/tlb"
	"github.com/sarchlab/vmmgr/sim"
)

// A Builder can create address translators
type Builder struct {
	backingStore  mem.BackingStore
	numTLBEntries int
	idGenerator   sim.IDGenerator
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{
		numTLBEntries: 16,
	}
}

// WithBackingStore sets where the content of faulting pages comes from.
func (b Builder) WithBackingStore(s mem.BackingStore) Builder {
	b.backingStore = s
	return b
}

// WithNumTLBEntries sets the capacity of the TLB.
func (b Builder) WithNumTLBEntries(n int) Builder {
	b.numTLBEntries = n
	return b
}

// WithIDGenerator sets the generator of translation IDs. By default, the
// process-wide generator is used.
func (b Builder) WithIDGenerator(g sim.IDGenerator) Builder {
	b.idGenerator = g
	return b
}

// Build creates a translator with an empty TLB, an empty page table, and
// every frame free.
func (b Builder) Build(name string) *Comp {
	if b.backingStore == nil {
		panic("address translator requires a backing store")
	}

	c := &Comp{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		backingStore: b.backingStore,
		memory:       mem.NewPhysicalMemory(),
		pageTable:    vm.NewPageTable(),
		stats:        stats.NewCollector(),
		idGenerator:  b.idGenerator,
	}

	if c.idGenerator == nil {
		c.idGenerator = sim.GetIDGenerator()
	}

	c.tlb = tlb.MakeBuilder().
		WithNumEntries(b.numTLBEntries).
		Build(name + ".TLB")

	c.frameAllocator = mmu.MakeBuilder().
		WithPageTable(c.pageTable).
		WithTLB(c.tlb).
		Build(name + ".FrameAllocator")

	return c
}
