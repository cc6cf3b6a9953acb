// Package mem provides the byte stores of the simulated machine.
package mem

import (
	"fmt"

	"github.com/sarchlab/vmmgr/mem/vm"
)

// PhysicalMemory keeps the data of the frames. It is managed in units of one
// frame and applies no policy of its own.
type PhysicalMemory struct {
	unitSize uint64
	capacity uint64
	data     []byte
}

// NewPhysicalMemory creates a zeroed memory of vm.NumFrames frames.
func NewPhysicalMemory() *PhysicalMemory {
	m := new(PhysicalMemory)

	m.unitSize = vm.FrameSize
	m.capacity = vm.PhysicalMemorySize
	m.data = make([]byte, m.capacity)

	return m
}

// Capacity returns the number of bytes of the memory.
func (m *PhysicalMemory) Capacity() uint64 {
	return m.capacity
}

// WriteFrame overwrites the whole frame with data, which must be exactly one
// frame long.
func (m *PhysicalMemory) WriteFrame(frame vm.FrameNumber, data []byte) {
	if uint64(len(data)) != m.unitSize {
		panic(fmt.Sprintf("frame data must be %d bytes, got %d",
			m.unitSize, len(data)))
	}

	base := m.frameBase(frame)
	copy(m.data[base:base+m.unitSize], data)
}

// ReadFrame returns a copy of the frame.
func (m *PhysicalMemory) ReadFrame(frame vm.FrameNumber) []byte {
	base := m.frameBase(frame)
	res := make([]byte, m.unitSize)
	copy(res, m.data[base:base+m.unitSize])

	return res
}

// ReadByte returns the byte at the physical address as a signed value.
func (m *PhysicalMemory) ReadByte(addr vm.PhysicalAddress) int8 {
	if uint64(addr) >= m.capacity {
		panic(fmt.Sprintf("physical address %d beyond the capacity", addr))
	}

	return int8(m.data[addr])
}

func (m *PhysicalMemory) frameBase(frame vm.FrameNumber) uint64 {
	base := uint64(frame) * m.unitSize
	if base >= m.capacity {
		panic(fmt.Sprintf("frame %d beyond the capacity", frame))
	}

	return base
}
