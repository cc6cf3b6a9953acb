// Package mmu manages physical frames on behalf of the address translator.
package mmu

import (
	"fmt"

	"github.com/sarchlab/vmmgr/mem/vm"
)

// An Eviction describes a page that lost its frame.
type Eviction struct {
	Frame vm.FrameNumber
	Page  vm.PageNumber
}

// FrameAllocator hands out frames in increasing order. Once every frame is
// in use, it evicts frames in the order they were first allocated.
type FrameAllocator struct {
	name string

	pageTable vm.PageTable
	tlb       TLBInvalidator

	occupancy     [vm.NumFrames]vm.Page
	numOccupied   int
	nextFreeFrame int
	fifoCursor    int
}

// Name returns the name of the allocator.
func (a *FrameAllocator) Name() string {
	return a.name
}

// Allocate returns a frame for the page and records that the page occupies
// it. If a resident page has to be evicted, the page is removed from the page
// table and from the TLB, and the eviction is returned.
func (a *FrameAllocator) Allocate(
	page vm.PageNumber,
) (frame vm.FrameNumber, eviction *Eviction) {
	if a.nextFreeFrame < vm.NumFrames {
		frame = vm.FrameNumber(a.nextFreeFrame)
		a.nextFreeFrame++
		a.numOccupied++
	} else {
		frame = vm.FrameNumber(a.fifoCursor)
		a.fifoCursor = (a.fifoCursor + 1) % vm.NumFrames
		eviction = a.evict(frame)
	}

	a.occupancy[frame] = vm.PageOf(page)

	return frame, eviction
}

func (a *FrameAllocator) evict(frame vm.FrameNumber) *Eviction {
	victim, ok := a.occupancy[frame].Get()
	if !ok {
		panic(fmt.Sprintf("frame %d is allocated but empty", frame))
	}

	a.pageTable.Unmap(victim)
	a.tlb.Invalidate(victim)

	return &Eviction{Frame: frame, Page: victim}
}

// Occupant returns the page that resides in the frame.
func (a *FrameAllocator) Occupant(frame vm.FrameNumber) vm.Page {
	return a.occupancy[frame]
}

// NumOccupied returns the number of frames holding a page.
func (a *FrameAllocator) NumOccupied() int {
	return a.numOccupied
}

// FIFOCursor returns the frame that the next eviction will pick.
func (a *FrameAllocator) FIFOCursor() vm.FrameNumber {
	return vm.FrameNumber(a.fifoCursor)
}
