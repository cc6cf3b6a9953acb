package mmu

import "github.com/sarchlab/vmmgr/mem/vm"

// A Builder can build FrameAllocator
type Builder struct {
	pageTable vm.PageTable
	tlb       TLBInvalidator
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{}
}

// WithPageTable sets the page table that evicted pages are removed from.
func (b Builder) WithPageTable(pageTable vm.PageTable) Builder {
	b.pageTable = pageTable
	return b
}

// WithTLB sets the TLB that evicted pages are invalidated in.
func (b Builder) WithTLB(tlb TLBInvalidator) Builder {
	b.tlb = tlb
	return b
}

// Build returns a newly created FrameAllocator
func (b Builder) Build(name string) *FrameAllocator {
	if b.pageTable == nil {
		panic("frame allocator requires a page table")
	}

	if b.tlb == nil {
		panic("frame allocator requires a TLB")
	}

	return &FrameAllocator{
		name:      name,
		pageTable: b.pageTable,
		tlb:       b.tlb,
	}
}
