// Package stats accumulates the counters of a translation run.
package stats

import "errors"

// ErrNoAddresses is returned when rates are requested before any address has
// been processed.
var ErrNoAddresses = errors.New("no addresses processed")

// A Summary is a snapshot of the counters and the derived rates, in percent.
type Summary struct {
	Count     uint64  `json:"count"`
	Hits      uint64  `json:"tlb_hits"`
	Faults    uint64  `json:"page_faults"`
	HitRate   float64 `json:"tlb_hit_rate"`
	FaultRate float64 `json:"page_fault_rate"`
}

// Collector counts processed addresses, TLB hits, and page faults.
type Collector struct {
	addressesProcessed uint64
	tlbHits            uint64
	pageFaults         uint64
}

// NewCollector creates a Collector with every counter at zero.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordAccess counts one processed address.
func (c *Collector) RecordAccess() {
	c.addressesProcessed++
}

// RecordTLBHit counts one TLB hit.
func (c *Collector) RecordTLBHit() {
	c.tlbHits++
}

// RecordPageFault counts one page fault.
func (c *Collector) RecordPageFault() {
	c.pageFaults++
}

// AddressesProcessed returns the number of processed addresses.
func (c *Collector) AddressesProcessed() uint64 {
	return c.addressesProcessed
}

// TLBHits returns the number of TLB hits.
func (c *Collector) TLBHits() uint64 {
	return c.tlbHits
}

// PageFaults returns the number of page faults.
func (c *Collector) PageFaults() uint64 {
	return c.pageFaults
}

// Rates returns the TLB hit rate and the page fault rate in percent.
func (c *Collector) Rates() (hitRate, faultRate float64, err error) {
	if c.addressesProcessed == 0 {
		return 0, 0, ErrNoAddresses
	}

	total := float64(c.addressesProcessed)
	hitRate = 100 * float64(c.tlbHits) / total
	faultRate = 100 * float64(c.pageFaults) / total

	return hitRate, faultRate, nil
}

// Summary returns the counters and rates. Rates of an empty run are 0.
func (c *Collector) Summary() Summary {
	hitRate, faultRate, _ := c.Rates()

	return Summary{
		Count:     c.addressesProcessed,
		Hits:      c.tlbHits,
		Faults:    c.pageFaults,
		HitRate:   hitRate,
		FaultRate: faultRate,
	}
}
