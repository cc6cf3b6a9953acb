// Package tlb provides a fully associative translation lookaside buffer with
// least-recently-used replacement.
package tlb

import (
	"github.com/sarchlab/vmmgr/mem/vm"
	"github.com/sarchlab/vmmgr/mem/vm/tlb/internal"
	"github.com/sarchlab/vmmgr/sim"
)

// HookPosTLBEvent marks a hook site inside the TLB. The hook item is one of
// the Event* names and the detail is the page involved.
var HookPosTLBEvent = &sim.HookPos{Name: "TLBEvent"}

// Names of the TLB events reported to hooks.
const (
	EventHit        = "hit"
	EventMiss       = "miss"
	EventInsert     = "insert"
	EventEvict      = "evict"
	EventInvalidate = "invalidate"
)

// An Entry is a valid mapping held by the TLB.
type Entry struct {
	Slot     int
	Page     vm.PageNumber
	Frame    vm.FrameNumber
	LastUsed uint64
}

// Comp is a TLB. Recency is measured by the logical clock passed in by the
// caller rather than by the number of accesses.
type Comp struct {
	*sim.HookableBase

	name string
	Set  internal.Set
}

// Name returns the name of the TLB.
func (c *Comp) Name() string {
	return c.name
}

// Lookup returns the frame that the page is cached to. A hit refreshes the
// recency of the entry to now.
func (c *Comp) Lookup(page vm.PageNumber, now uint64) vm.Frame {
	wayID, found := c.Set.Lookup(page)
	if !found {
		c.invokeHook(EventMiss, page)
		return vm.NoFrame
	}

	c.Set.Visit(wayID, now)
	c.invokeHook(EventHit, page)

	return vm.FrameOf(c.Set.Block(wayID).Frame)
}

// Insert caches the mapping. If the page is already cached, the entry is
// updated in place. Otherwise an invalid slot is used, or the least recently
// used entry is replaced. The replaced page, if any, is returned.
func (c *Comp) Insert(
	page vm.PageNumber,
	frame vm.FrameNumber,
	now uint64,
) (evicted vm.Page) {
	evicted = vm.NoPage

	wayID, found := c.Set.Lookup(page)
	if !found {
		wayID = c.Set.FindVictim()

		victim := c.Set.Block(wayID)
		if victim.Valid {
			evicted = vm.PageOf(victim.Page)
			c.invokeHook(EventEvict, victim.Page)
		}
	}

	c.Set.Update(wayID, internal.Block{
		Page:      page,
		Frame:     frame,
		LastVisit: now,
	})
	c.invokeHook(EventInsert, page)

	return evicted
}

// Invalidate removes the entry of the page. It returns false if the page is
// not cached.
func (c *Comp) Invalidate(page vm.PageNumber) bool {
	wayID, found := c.Set.Lookup(page)
	if !found {
		return false
	}

	c.Set.Invalidate(wayID)
	c.invokeHook(EventInvalidate, page)

	return true
}

// Entries lists the valid entries in slot order.
func (c *Comp) Entries() []Entry {
	entries := make([]Entry, 0, c.Set.NumValid())

	for i := 0; i < c.Set.NumWays(); i++ {
		b := c.Set.Block(i)
		if !b.Valid {
			continue
		}

		entries = append(entries, Entry{
			Slot:     i,
			Page:     b.Page,
			Frame:    b.Frame,
			LastUsed: b.LastVisit,
		})
	}

	return entries
}

// NumValid returns the number of cached mappings.
func (c *Comp) NumValid() int {
	return c.Set.NumValid()
}

// Capacity returns the number of slots.
func (c *Comp) Capacity() int {
	return c.Set.NumWays()
}

func (c *Comp) invokeHook(what string, page vm.PageNumber) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTLBEvent,
		Item:   what,
		Detail: page,
	})
}
