// Package vm provides the models for address translations
package vm

import "fmt"

// Geometry of the simulated machine.
const (
	Log2PageSize       = 8
	PageSize           = 1 << Log2PageSize
	FrameSize          = PageSize
	NumPages           = 256
	NumFrames          = 128
	PhysicalMemorySize = NumFrames * FrameSize
	BackingStoreSize   = NumPages * PageSize

	addressMask = 0xffff
	offsetMask  = PageSize - 1
)

// A LogicalAddress is an address presented by the simulated program. Only
// the low 16 bits are meaningful.
type LogicalAddress uint16

// PageNumber is the high byte of a logical address.
type PageNumber uint8

// FrameNumber identifies one of the NumFrames physical frames.
type FrameNumber uint8

// PhysicalAddress is an index into physical memory.
type PhysicalAddress uint16

// MaskAddress drops everything above the low 16 bits of a raw input value.
func MaskAddress(raw int32) LogicalAddress {
	return LogicalAddress(uint32(raw) & addressMask)
}

// Page returns bits [15:8] of the address.
func (a LogicalAddress) Page() PageNumber {
	return PageNumber(a >> Log2PageSize)
}

// Offset returns bits [7:0] of the address.
func (a LogicalAddress) Offset() uint8 {
	return uint8(a & offsetMask)
}

// Split decomposes the address into page number and offset.
func (a LogicalAddress) Split() (PageNumber, uint8) {
	return a.Page(), a.Offset()
}

// PhysicalAddressOf returns the physical address of the given offset in the
// given frame.
func PhysicalAddressOf(frame FrameNumber, offset uint8) PhysicalAddress {
	return PhysicalAddress(uint16(frame)<<Log2PageSize | uint16(offset))
}

// A Frame is either a frame number or nothing. The zero value is NoFrame,
// so a page table slot or a TLB miss can never be confused with frame 0.
type Frame struct {
	number FrameNumber
	ok     bool
}

// NoFrame represents an unmapped page.
var NoFrame = Frame{}

// FrameOf wraps a frame number. It panics if the number is out of range.
func FrameOf(n FrameNumber) Frame {
	if int(n) >= NumFrames {
		panic(fmt.Sprintf("frame %d out of range", n))
	}

	return Frame{number: n, ok: true}
}

// Get returns the frame number and whether there is one.
func (f Frame) Get() (FrameNumber, bool) {
	return f.number, f.ok
}

// Valid tells if the Frame holds a frame number.
func (f Frame) Valid() bool {
	return f.ok
}

// Number returns the frame number. It panics on NoFrame.
func (f Frame) Number() FrameNumber {
	if !f.ok {
		panic("no frame")
	}

	return f.number
}

func (f Frame) String() string {
	if !f.ok {
		return "-"
	}

	return fmt.Sprintf("%d", f.number)
}

// A Page is either a page number or nothing. It is used to describe what
// occupies a frame, and which page an eviction displaced.
type Page struct {
	number PageNumber
	ok     bool
}

// NoPage represents an empty frame.
var NoPage = Page{}

// PageOf wraps a page number.
func PageOf(n PageNumber) Page {
	return Page{number: n, ok: true}
}

// Get returns the page number and whether there is one.
func (p Page) Get() (PageNumber, bool) {
	return p.number, p.ok
}

// Valid tells if the Page holds a page number.
func (p Page) Valid() bool {
	return p.ok
}

// Number returns the page number. It panics on NoPage.
func (p Page) Number() PageNumber {
	if !p.ok {
		panic("no page")
	}

	return p.number
}

func (p Page) String() string {
	if !p.ok {
		return "-"
	}

	return fmt.Sprintf("%d", p.number)
}
