// Package addresstranslator turns logical addresses into physical addresses
// and the values stored there.
package addresstranslator

import (
	"fmt"

	"github.com/sarchlab/vmmgr/mem/mem"
	"github.com/sarchlab/vmmgr/mem/vm"
	"github.com/sarchlab/vmmgr/mem/vm/mmu"
	"github.com/sarchlab/vmmgr/mem/vm/stats"
	"github.com/sarchlab/vmmgr/mem/vm/tlb"
	"github.com/sarchlab/vmmgr/sim"
)

// Hook positions of the translator. HookPosTranslated carries the
// Translation as the item. HookPosPageFault is invoked after the faulting
// page is loaded and carries the Translation so far; HookPosEviction carries
// the *mmu.Eviction.
var (
	HookPosTranslated = &sim.HookPos{Name: "Translated"}
	HookPosPageFault  = &sim.HookPos{Name: "PageFault"}
	HookPosEviction   = &sim.HookPos{Name: "Eviction"}
)

// Comp is an AddressTranslator. It owns the TLB, the page table, the frame
// allocator, and the physical memory of a single address space.
type Comp struct {
	*sim.HookableBase

	name  string
	clock uint64

	tlb            *tlb.Comp
	pageTable      vm.PageTable
	frameAllocator *mmu.FrameAllocator
	memory         *mem.PhysicalMemory
	backingStore   mem.BackingStore
	stats          *stats.Collector
	idGenerator    sim.IDGenerator
}

// Name returns the name of the translator.
func (c *Comp) Name() string {
	return c.name
}

// Now returns the logical clock, which is the number of addresses that have
// started translation.
func (c *Comp) Now() uint64 {
	return c.clock
}

// Translate resolves the logical address. The only failure is a backing store
// that cannot supply a faulting page, in which case no mapping is changed.
func (c *Comp) Translate(addr vm.LogicalAddress) (Translation, error) {
	c.clock++
	c.stats.RecordAccess()

	page, offset := addr.Split()
	t := Translation{
		ID:      c.idGenerator.Generate(),
		Tick:    c.clock,
		Logical: addr,
		Page:    page,
		Offset:  offset,
	}

	frame, found := c.tlb.Lookup(page, c.clock).Get()
	if found {
		t.Outcome = TLBHit
		c.stats.RecordTLBHit()
	} else {
		var err error

		frame, err = c.walkPageTable(&t)
		if err != nil {
			return t, err
		}

		c.tlb.Insert(page, frame, c.clock)
	}

	t.Frame = frame
	t.Physical = vm.PhysicalAddressOf(frame, offset)
	t.Value = c.memory.ReadByte(t.Physical)

	c.invokeHook(HookPosTranslated, t)

	return t, nil
}

func (c *Comp) walkPageTable(t *Translation) (vm.FrameNumber, error) {
	frame, found := c.pageTable.Lookup(t.Page).Get()
	if found {
		t.Outcome = PageTableHit
		return frame, nil
	}

	t.Outcome = PageFault

	return c.handlePageFault(t)
}

func (c *Comp) handlePageFault(t *Translation) (vm.FrameNumber, error) {
	data, err := c.backingStore.ReadPage(t.Page)
	if err != nil {
		return 0, fmt.Errorf("page fault at address %d: %w", t.Logical, err)
	}

	c.stats.RecordPageFault()

	frame, eviction := c.frameAllocator.Allocate(t.Page)
	if eviction != nil {
		t.Eviction = eviction
		c.invokeHook(HookPosEviction, eviction)
	}

	c.memory.WriteFrame(frame, data)
	c.pageTable.Map(t.Page, frame)

	t.Frame = frame
	c.invokeHook(HookPosPageFault, *t)

	return frame, nil
}

func (c *Comp) invokeHook(pos *sim.HookPos, item any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   item,
	})
}

// Stats returns the statistics collector.
func (c *Comp) Stats() *stats.Collector {
	return c.stats
}

// TLB returns the TLB.
func (c *Comp) TLB() *tlb.Comp {
	return c.tlb
}

// PageTable returns the page table.
func (c *Comp) PageTable() vm.PageTable {
	return c.pageTable
}

// FrameAllocator returns the frame allocator.
func (c *Comp) FrameAllocator() *mmu.FrameAllocator {
	return c.frameAllocator
}

// Memory returns the physical memory.
func (c *Comp) Memory() *mem.PhysicalMemory {
	return c.memory
}
