package mmu

import "github.com/sarchlab/vmmgr/mem/vm"

// A TLBInvalidator drops cached translations of pages that leave memory.
type TLBInvalidator interface {
	Invalidate(page vm.PageNumber) bool
}
