package addresstranslator

import (
	"github.com/sarchlab/vmmgr/mem/vm"
	"github.com/sarchlab/vmmgr/mem/vm/mmu"
)

// Outcome tells how a logical address was resolved.
type Outcome int

// The three ways a translation can be resolved.
const (
	TLBHit Outcome = iota
	PageTableHit
	PageFault
)

func (o Outcome) String() string {
	switch o {
	case TLBHit:
		return "tlb-hit"
	case PageTableHit:
		return "page-table-hit"
	case PageFault:
		return "page-fault"
	default:
		return "unknown"
	}
}

// A Translation is the result of translating one logical address.
type Translation struct {
	ID       string
	Tick     uint64
	Logical  vm.LogicalAddress
	Page     vm.PageNumber
	Offset   uint8
	Frame    vm.FrameNumber
	Physical vm.PhysicalAddress
	Value    int8
	Outcome  Outcome

	// Eviction is set when servicing a page fault displaced a resident page.
	Eviction *mmu.Eviction
}
