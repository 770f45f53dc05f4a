/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package ems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-jonsson/vxtems/emulator/memory"
)

type testRAM struct {
	mem [memory.AddressSpace]byte
}

func (m *testRAM) ReadByte(addr memory.Pointer) byte {
	return m.mem[addr]
}

func (m *testRAM) WriteByte(addr memory.Pointer, data byte) {
	m.mem[addr] = data
}

func newMoveTest(t *testing.T) (*Manager, *memory.Bus, *testRAM, uint16) {
	bus := memory.NewBus()
	ram := &testRAM{}
	require.NoError(t, bus.InstallDevice(ram, 0, memory.AddressSpace-1))

	m := NewManager(Config{Pages: 8}, bus)
	h, st := m.Allocate(3, false)
	require.Equal(t, StatusOK, st)
	return m, bus, ram, h
}

func TestMoveConventionalToExpanded(t *testing.T) {
	m, bus, ram, h := newMoveTest(t)
	copy(ram.mem[0x1000:], "expanded memory")

	// Crosses from logical page 0 into page 1.
	req := MoveRequest{
		Length: 15,
		Source: Region{Type: Conventional, Segment: 0x100},
		Dest:   Region{Type: Expanded, Handle: h, Offset: PageSize - 8, Segment: 0},
	}
	require.Equal(t, StatusOK, m.MoveRegion(bus, req))

	p0, _ := m.PageBytes(h, 0)
	p1, _ := m.PageBytes(h, 1)
	assert.Equal(t, "expanded memory", string(p0[PageSize-8:])+string(p1[:7]))

	back := MoveRequest{Length: 15, Source: req.Dest, Dest: Region{Type: Conventional, Segment: 0x200, Offset: 4}}
	require.Equal(t, StatusOK, m.MoveRegion(bus, back))
	assert.Equal(t, "expanded memory", string(ram.mem[0x2004:0x2004+15]))
}

func TestMoveThroughWindow(t *testing.T) {
	m, bus, ram, h := newMoveTest(t)
	require.Equal(t, StatusOK, m.MapStandard(0, h, 2))
	ram.mem[0x500] = 0x5A

	req := MoveRequest{
		Length: 1,
		Source: Region{Type: Conventional, Offset: 0x500},
		Dest:   Region{Type: Conventional, Segment: PageFrameSegment},
	}
	require.Equal(t, StatusOK, m.MoveRegion(bus, req))

	page, _ := m.PageBytes(h, 2)
	assert.Equal(t, byte(0x5A), page[0])
	assert.Zero(t, ram.mem[memory.SegmentPointer(PageFrameSegment)])
}

func TestMoveOverlap(t *testing.T) {
	m, bus, _, h := newMoveTest(t)
	p0, _ := m.PageBytes(h, 0)
	copy(p0, "0123456789")

	req := MoveRequest{
		Length: 8,
		Source: Region{Type: Expanded, Handle: h},
		Dest:   Region{Type: Expanded, Handle: h, Offset: 2},
	}
	assert.Equal(t, MoveOverlap, m.MoveRegion(bus, req))
	assert.Equal(t, "0101234567", string(p0[:10]))

	assert.Equal(t, ExchangeOverlap, m.ExchangeRegion(bus, req))
}

func TestExchange(t *testing.T) {
	m, bus, ram, h := newMoveTest(t)
	copy(ram.mem[0x100:], "left")
	p1, _ := m.PageBytes(h, 1)
	copy(p1[0x10:], "rite")

	req := MoveRequest{
		Length: 4,
		Source: Region{Type: Conventional, Offset: 0x100},
		Dest:   Region{Type: Expanded, Handle: h, Offset: 0x10, Segment: 1},
	}
	require.Equal(t, StatusOK, m.ExchangeRegion(bus, req))
	assert.Equal(t, "rite", string(ram.mem[0x100:0x104]))
	assert.Equal(t, "left", string(p1[0x10:0x14]))
}

func TestMoveErrors(t *testing.T) {
	m, bus, _, h := newMoveTest(t)
	conv := Region{Type: Conventional}

	tests := []struct {
		name string
		req  MoveRequest
		want Status
	}{
		{"too large", MoveRequest{Length: memory.AddressSpace + 1, Source: conv, Dest: conv}, RegionTooLarge},
		{"wrap", MoveRequest{Length: 0x20, Source: Region{Type: Conventional, Segment: 0xFFFF, Offset: 0x10}, Dest: conv}, AddressWrap},
		{"bad handle", MoveRequest{Length: 1, Source: conv, Dest: Region{Type: Expanded, Handle: 9}}, InvalidHandle},
		{"bad offset", MoveRequest{Length: 1, Source: conv, Dest: Region{Type: Expanded, Handle: h, Offset: PageSize}}, OffsetOutOfRange},
		{"bad page", MoveRequest{Length: 1, Source: conv, Dest: Region{Type: Expanded, Handle: h, Segment: 3}}, LogicalPageOutOfRange},
		{"past end", MoveRequest{Length: PageSize + 1, Source: conv, Dest: Region{Type: Expanded, Handle: h, Segment: 2}}, RegionExceedsHandle},
		{"bad type", MoveRequest{Length: 1, Source: Region{Type: 7}, Dest: conv}, InvalidMemoryType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MoveRegion(bus, tt.req))
		})
	}
}
