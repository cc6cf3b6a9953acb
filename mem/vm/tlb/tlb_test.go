package tlb_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmmgr/mem/vm"
	tlbpkg "github.com/sarchlab/vmmgr/mem/vm/tlb"
	"github.com/sarchlab/vmmgr/sim"
)

type event struct {
	what string
	page vm.PageNumber
}

var _ = Describe("TLB", func() {
	var (
		tlb    *tlbpkg.Comp
		events []event
	)

	fill := func(n int) {
		for i := 0; i < n; i++ {
			tlb.Insert(vm.PageNumber(i), vm.FrameNumber(i), uint64(i+1))
		}
	}

	BeforeEach(func() {
		tlb = tlbpkg.MakeBuilder().Build("TLB")
		events = nil
		tlb.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			events = append(events, event{
				what: ctx.Item.(string),
				page: ctx.Detail.(vm.PageNumber),
			})
		}))
	})

	It("should have 16 slots by default", func() {
		Expect(tlb.Capacity()).To(Equal(16))
		Expect(tlb.NumValid()).To(Equal(0))
		Expect(tlb.Name()).To(Equal("TLB"))
	})

	It("should miss on an empty TLB", func() {
		Expect(tlb.Lookup(3, 1)).To(Equal(vm.NoFrame))
		Expect(events).To(Equal([]event{{tlbpkg.EventMiss, 3}}))
	})

	Context("hit", func() {
		BeforeEach(func() {
			tlb.Insert(3, 7, 1)
		})

		It("should return the cached frame", func() {
			Expect(tlb.Lookup(3, 2)).To(Equal(vm.FrameOf(7)))
		})

		It("should refresh the recency of the entry", func() {
			tlb.Lookup(3, 9)

			Expect(tlb.Entries()).To(Equal([]tlbpkg.Entry{
				{Slot: 0, Page: 3, Frame: 7, LastUsed: 9},
			}))
		})

		It("should report the hit", func() {
			tlb.Lookup(3, 2)

			Expect(events).To(Equal([]event{
				{tlbpkg.EventInsert, 3},
				{tlbpkg.EventHit, 3},
			}))
		})
	})

	It("should update an existing entry in place", func() {
		tlb.Insert(3, 7, 1)
		evicted := tlb.Insert(3, 8, 2)

		Expect(evicted).To(Equal(vm.NoPage))
		Expect(tlb.Entries()).To(Equal([]tlbpkg.Entry{
			{Slot: 0, Page: 3, Frame: 8, LastUsed: 2},
		}))
	})

	It("should never hold more than its capacity", func() {
		fill(40)

		Expect(tlb.NumValid()).To(Equal(16))
	})

	It("should evict the least recently used entry", func() {
		fill(16)

		evicted := tlb.Insert(16, 16, 17)

		Expect(evicted).To(Equal(vm.PageOf(0)))
		Expect(tlb.Lookup(0, 18)).To(Equal(vm.NoFrame))
		Expect(tlb.Lookup(16, 18)).To(Equal(vm.FrameOf(16)))
		Expect(tlb.Entries()[0].Page).To(Equal(vm.PageNumber(16)))
	})

	It("should keep recently looked up entries", func() {
		fill(16)
		tlb.Lookup(0, 17)

		evicted := tlb.Insert(16, 16, 18)

		Expect(evicted).To(Equal(vm.PageOf(1)))
		Expect(tlb.Lookup(0, 19).Valid()).To(BeTrue())
	})

	It("should break ties by the lowest slot", func() {
		for i := 0; i < 16; i++ {
			tlb.Insert(vm.PageNumber(i), vm.FrameNumber(i), 1)
		}

		evicted := tlb.Insert(100, 100, 2)

		Expect(evicted).To(Equal(vm.PageOf(0)))
	})

	Context("invalidate", func() {
		It("should remove the entry of the page", func() {
			fill(3)

			Expect(tlb.Invalidate(1)).To(BeTrue())
			Expect(tlb.NumValid()).To(Equal(2))
			Expect(tlb.Lookup(1, 4)).To(Equal(vm.NoFrame))
		})

		It("should report pages that are not cached", func() {
			Expect(tlb.Invalidate(1)).To(BeFalse())
		})

		It("should fill the freed slot before evicting", func() {
			fill(16)
			tlb.Invalidate(5)

			evicted := tlb.Insert(50, 50, 100)

			Expect(evicted).To(Equal(vm.NoPage))
			Expect(tlb.Entries()[5].Page).To(Equal(vm.PageNumber(50)))
			Expect(tlb.Lookup(0, 101).Valid()).To(BeTrue())
		})
	})

	It("should support other capacities", func() {
		small := tlbpkg.MakeBuilder().WithNumEntries(2).Build("Small")

		small.Insert(1, 1, 1)
		small.Insert(2, 2, 2)
		small.Insert(3, 3, 3)

		Expect(small.Capacity()).To(Equal(2))
		Expect(small.Lookup(1, 4)).To(Equal(vm.NoFrame))
	})
})
