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
	"github.com/andreas-jonsson/vxtems/emulator/memory"
)

// MemoryType of a move or exchange region.
type MemoryType byte

const (
	Conventional MemoryType = 0
	Expanded     MemoryType = 1
)

// Region is one side of a move or exchange. Segment holds the logical page
// for expanded memory.
type Region struct {
	Type    MemoryType
	Handle  uint16
	Offset  uint16
	Segment uint16
}

// MoveRequest is the memory region descriptor of function 57h.
type MoveRequest struct {
	Length uint32
	Source Region
	Dest   Region
}

// MoveRequestSize is the size in bytes of an encoded MoveRequest.
const MoveRequestSize = 18

type span struct {
	region Region
	start  uint32
	length uint32
}

func (s span) overlaps(o span) bool {
	if s.region.Type != o.region.Type {
		return false
	}
	if s.region.Type == Expanded && s.region.Handle != o.region.Handle {
		return false
	}
	return s.start < o.start+o.length && o.start < s.start+s.length
}

func (m *Manager) checkRegion(r Region, length uint32) (span, Status) {
	switch r.Type {
	case Conventional:
		start := uint32(memory.SegmentPointer(r.Segment)) + uint32(r.Offset)
		if start+length > memory.AddressSpace {
			return span{}, AddressWrap
		}
		return span{r, start, length}, StatusOK
	case Expanded:
		if !m.validHandle(r.Handle) {
			return span{}, InvalidHandle
		}
		if r.Offset >= PageSize {
			return span{}, OffsetOutOfRange
		}
		pages := uint32(m.handles[r.Handle].pages)
		if uint32(r.Segment) >= pages {
			return span{}, LogicalPageOutOfRange
		}
		start := uint32(r.Segment)*PageSize + uint32(r.Offset)
		if start+length > pages*PageSize {
			return span{}, RegionExceedsHandle
		}
		return span{r, start, length}, StatusOK
	}
	return span{}, InvalidMemoryType
}

func (m *Manager) read(conv memory.Memory, s span, buf []byte) {
	if s.region.Type == Conventional {
		for i := range buf {
			buf[i] = conv.ReadByte(memory.Pointer(s.start + uint32(i)))
		}
		return
	}

	chain := m.handles[s.region.Handle].chain
	for n, pos := 0, s.start; n < len(buf); {
		page := m.pool.Bytes(m.pool.PageAt(chain, int(pos/PageSize)))
		c := copy(buf[n:], page[pos%PageSize:])
		n += c
		pos += uint32(c)
	}
}

func (m *Manager) write(conv memory.Memory, s span, buf []byte) {
	if s.region.Type == Conventional {
		for i, v := range buf {
			conv.WriteByte(memory.Pointer(s.start+uint32(i)), v)
		}
		return
	}

	chain := m.handles[s.region.Handle].chain
	for n, pos := 0, s.start; n < len(buf); {
		page := m.pool.Bytes(m.pool.PageAt(chain, int(pos/PageSize)))
		c := copy(page[pos%PageSize:], buf[n:])
		n += c
		pos += uint32(c)
	}
}

func (m *Manager) prepareMove(req MoveRequest) (src, dst span, st Status) {
	if req.Length > memory.AddressSpace {
		return src, dst, RegionTooLarge
	}
	if src, st = m.checkRegion(req.Source, req.Length); st != StatusOK {
		return
	}
	dst, st = m.checkRegion(req.Dest, req.Length)
	return
}

// MoveRegion copies memory between conventional and expanded memory.
// Conventional memory is accessed through conv so mapped windows and devices
// see the transfer. Overlapping regions are copied as if through a temporary
// buffer and reported with MoveOverlap.
func (m *Manager) MoveRegion(conv memory.Memory, req MoveRequest) Status {
	src, dst, st := m.prepareMove(req)
	if st != StatusOK || req.Length == 0 {
		return st
	}

	buf := make([]byte, req.Length)
	m.read(conv, src, buf)
	m.write(conv, dst, buf)

	if src.overlaps(dst) {
		return MoveOverlap
	}
	return StatusOK
}

// ExchangeRegion swaps two equally sized regions. Overlapping regions are
// rejected.
func (m *Manager) ExchangeRegion(conv memory.Memory, req MoveRequest) Status {
	src, dst, st := m.prepareMove(req)
	if st != StatusOK || req.Length == 0 {
		return st
	}
	if src.overlaps(dst) {
		return ExchangeOverlap
	}

	a := make([]byte, req.Length)
	b := make([]byte, req.Length)
	m.read(conv, src, a)
	m.read(conv, dst, b)
	m.write(conv, src, b)
	m.write(conv, dst, a)
	return StatusOK
}
