// Package internal provides the definition required for defining TLB.
package internal

import (
	"github.com/sarchlab/vmmgr/mem/vm"
)

// A Block is one way of the set. It holds one page-to-frame mapping.
type Block struct {
	Page      vm.PageNumber
	Frame     vm.FrameNumber
	LastVisit uint64
	Valid     bool
}

// A Set holds a certain number of blocks and tracks which one to replace.
type Set interface {
	Lookup(page vm.PageNumber) (wayID int, found bool)
	Block(wayID int) Block
	Update(wayID int, block Block)
	Visit(wayID int, now uint64)
	Invalidate(wayID int)
	FindVictim() (wayID int)
	NumWays() int
	NumValid() int
}

// NewSet creates a new TLB set with all the blocks invalid.
func NewSet(numWays int) Set {
	if numWays <= 0 {
		panic("a set must have at least one way")
	}

	s := &SetImpl{}
	s.blocks = make([]Block, numWays)
	s.pageWayIDMap = make(map[vm.PageNumber]int)

	return s
}

// SetImpl is a fully associative set. Pages are located through a map and
// victims are found with a left-to-right scan.
type SetImpl struct {
	blocks       []Block
	pageWayIDMap map[vm.PageNumber]int
}

// Lookup finds the way that holds a valid mapping of the page.
func (s *SetImpl) Lookup(page vm.PageNumber) (wayID int, found bool) {
	wayID, found = s.pageWayIDMap[page]

	return wayID, found
}

// Block returns a copy of the block at the way.
func (s *SetImpl) Block(wayID int) Block {
	return s.blocks[wayID]
}

// Update overwrites the way with a valid block.
func (s *SetImpl) Update(wayID int, block Block) {
	old := s.blocks[wayID]
	if old.Valid {
		delete(s.pageWayIDMap, old.Page)
	}

	if otherWayID, found := s.pageWayIDMap[block.Page]; found &&
		otherWayID != wayID {
		panic("page is already cached in another way")
	}

	block.Valid = true
	s.blocks[wayID] = block
	s.pageWayIDMap[block.Page] = wayID
}

// Visit records that the way is used at time now.
func (s *SetImpl) Visit(wayID int, now uint64) {
	s.blocks[wayID].LastVisit = now
}

// Invalidate drops the mapping held by the way.
func (s *SetImpl) Invalidate(wayID int) {
	block := s.blocks[wayID]
	if !block.Valid {
		return
	}

	delete(s.pageWayIDMap, block.Page)
	s.blocks[wayID] = Block{}
}

// FindVictim returns the first invalid way. If every way is valid, it returns
// the way visited the longest time ago, preferring the lowest way on ties.
func (s *SetImpl) FindVictim() (wayID int) {
	for i, b := range s.blocks {
		if !b.Valid {
			return i
		}
	}

	wayID = 0
	for i, b := range s.blocks {
		if b.LastVisit < s.blocks[wayID].LastVisit {
			wayID = i
		}
	}

	return wayID
}

// NumWays returns the capacity of the set.
func (s *SetImpl) NumWays() int {
	return len(s.blocks)
}

// NumValid returns the number of ways holding a mapping.
func (s *SetImpl) NumValid() int {
	return len(s.pageWayIDMap)
}
