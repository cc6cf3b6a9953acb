package mmu

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/vmmgr/mem/vm"
)

var _ = Describe("FrameAllocator", func() {
	var (
		mockCtrl  *gomock.Controller
		pageTable *MockPageTable
		tlb       *MockTLBInvalidator
		allocator *FrameAllocator
	)

	fillAllFrames := func() {
		for i := 0; i < vm.NumFrames; i++ {
			allocator.Allocate(vm.PageNumber(i))
		}
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		pageTable = NewMockPageTable(mockCtrl)
		tlb = NewMockTLBInvalidator(mockCtrl)

		allocator = MakeBuilder().
			WithPageTable(pageTable).
			WithTLB(tlb).
			Build("FrameAllocator")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should hand out free frames in increasing order", func() {
		for i := 0; i < vm.NumFrames; i++ {
			frame, eviction := allocator.Allocate(vm.PageNumber(255 - i))

			Expect(frame).To(Equal(vm.FrameNumber(i)))
			Expect(eviction).To(BeNil())
			Expect(allocator.Occupant(frame)).To(Equal(vm.PageOf(vm.PageNumber(255 - i))))
		}

		Expect(allocator.NumOccupied()).To(Equal(vm.NumFrames))
	})

	It("should not move the cursor while frames are free", func() {
		allocator.Allocate(0)
		allocator.Allocate(1)

		Expect(allocator.FIFOCursor()).To(Equal(vm.FrameNumber(0)))
	})

	Context("when every frame is in use", func() {
		BeforeEach(func() {
			fillAllFrames()
		})

		It("should evict the first allocated frame", func() {
			pageTable.EXPECT().Unmap(vm.PageNumber(0))
			tlb.EXPECT().Invalidate(vm.PageNumber(0)).Return(true)

			frame, eviction := allocator.Allocate(200)

			Expect(frame).To(Equal(vm.FrameNumber(0)))
			Expect(eviction).To(Equal(&Eviction{Frame: 0, Page: 0}))
			Expect(allocator.Occupant(0)).To(Equal(vm.PageOf(200)))
			Expect(allocator.NumOccupied()).To(Equal(vm.NumFrames))
			Expect(allocator.FIFOCursor()).To(Equal(vm.FrameNumber(1)))
		})

		It("should invalidate even if the TLB does not cache the page", func() {
			pageTable.EXPECT().Unmap(vm.PageNumber(0))
			tlb.EXPECT().Invalidate(vm.PageNumber(0)).Return(false)

			allocator.Allocate(200)
		})

		It("should cycle through the frames in allocation order", func() {
			pageTable.EXPECT().Unmap(gomock.Any()).AnyTimes()
			tlb.EXPECT().Invalidate(gomock.Any()).AnyTimes()

			for n := 0; n < 2*vm.NumFrames+3; n++ {
				frame, eviction := allocator.Allocate(vm.PageNumber(n % 256))

				Expect(frame).To(Equal(vm.FrameNumber(n % vm.NumFrames)))
				Expect(eviction).NotTo(BeNil())
			}
		})

		It("should evict the page that replaced the first occupant", func() {
			pageTable.EXPECT().Unmap(gomock.Any()).AnyTimes()
			tlb.EXPECT().Invalidate(gomock.Any()).AnyTimes()

			for n := 0; n < vm.NumFrames; n++ {
				allocator.Allocate(vm.PageNumber(128 + n))
			}

			_, eviction := allocator.Allocate(0)

			Expect(eviction).To(Equal(&Eviction{Frame: 0, Page: 128}))
		})
	})

	It("should require a page table and a TLB", func() {
		Expect(func() { MakeBuilder().WithTLB(tlb).Build("A") }).To(Panic())
		Expect(func() { MakeBuilder().WithPageTable(pageTable).Build("A") }).
			To(Panic())
	})
})
