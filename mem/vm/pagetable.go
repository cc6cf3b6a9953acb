package vm

// A PageTable maps page numbers to the frames they are resident in.
type PageTable interface {
	// Lookup returns the frame of the page, or NoFrame.
	Lookup(page PageNumber) Frame

	// Map records that the page now resides in the frame. The page must not
	// be mapped already.
	Map(page PageNumber, frame FrameNumber)

	// Unmap marks the page as not resident. The page must be mapped.
	Unmap(page PageNumber)

	// NumMapped returns the number of resident pages.
	NumMapped() int
}

// NewPageTable creates a new PageTable with every page unmapped.
func NewPageTable() PageTable {
	return &pageTableImpl{}
}

// pageTableImpl is the default implementation of a Page Table
type pageTableImpl struct {
	Entries   [NumPages]Frame
	numMapped int
}

func (pt *pageTableImpl) Lookup(page PageNumber) Frame {
	return pt.Entries[page]
}

func (pt *pageTableImpl) Map(page PageNumber, frame FrameNumber) {
	pt.pageMustNotBeMapped(page)

	pt.Entries[page] = FrameOf(frame)
	pt.numMapped++
}

func (pt *pageTableImpl) Unmap(page PageNumber) {
	pt.pageMustBeMapped(page)

	pt.Entries[page] = NoFrame
	pt.numMapped--
}

func (pt *pageTableImpl) NumMapped() int {
	return pt.numMapped
}

func (pt *pageTableImpl) pageMustBeMapped(page PageNumber) {
	if !pt.Entries[page].Valid() {
		panic("page is not mapped")
	}
}

func (pt *pageTableImpl) pageMustNotBeMapped(page PageNumber) {
	if pt.Entries[page].Valid() {
		panic("page is already mapped")
	}
}
