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
	"log"

	"github.com/andreas-jonsson/vxtems/emulator/memory"
)

const (
	NumStandardSlots = 4
	NumSegmentSlots  = memory.AddressSpace / PageSize

	// PageFrameSegment is where the standard slots are visible.
	PageFrameSegment = 0xE000

	segmentsPerPage   = PageSize >> 4
	frameFirstWindow  = PageFrameSegment / segmentsPerPage
	pageFrameSegments = NumStandardSlots * segmentsPerPage

	graphicsSegment   = 0xA000
	boardSegmentLimit = 0xF000
)

// Mapping binds a window to a logical page of a handle. The packed form with
// 0xFFFF sentinels is what DOS programs see in saved page maps.
type Mapping struct {
	Handle uint16
	Page   uint16
}

func Unmapped() Mapping {
	return Mapping{Handle: NullHandle, Page: NullPage}
}

func (m Mapping) Mapped() bool {
	return m.Page != NullPage && m.Handle != NullHandle
}

// SegmentMapping is a mapping together with the segment it applies to.
type SegmentMapping struct {
	Segment uint16
	Mapping
}

// PageMapping is one entry of a map multiple request. Target is a standard
// slot or a segment depending on the request.
type PageMapping struct {
	Page   uint16
	Target uint16
}

func inPageFrame(segment uint16) bool {
	return segment >= PageFrameSegment && segment < PageFrameSegment+pageFrameSegments
}

func inGraphics(segment uint16) bool {
	return segment >= graphicsSegment && segment < graphicsSegment+0x1000
}

func (m *Manager) boardMapping() bool {
	return m.mode == ModeBoard || m.mode == ModeMixed
}

// MappableSegment reports if segment can be used with MapSegment.
func (m *Manager) MappableSegment(segment uint16) bool {
	if m.boardMapping() {
		return segment < boardSegmentLimit
	}
	return inGraphics(segment) || inPageFrame(segment)
}

func windowOf(segment uint16) int {
	return int(segment / segmentsPerPage)
}

func windowAddress(window int) memory.Pointer {
	return memory.Pointer(window * PageSize)
}

func (m *Manager) checkMapping(h, page uint16) Status {
	if page == NullPage {
		return StatusOK
	}
	if !m.validHandle(h) {
		return InvalidHandle
	}
	if page >= m.handles[h].pages {
		return LogicalPageOutOfRange
	}
	return StatusOK
}

// bind updates the bus registration of a window. The old registration is
// always removed before a new one is added.
func (m *Manager) bind(window int, mp Mapping) {
	addr := windowAddress(window)
	if m.live[window] {
		if m.mapper != nil {
			if err := m.mapper.Unregister(addr, PageSize); err != nil {
				log.Panicf("EMS: could not unmap window at %v: %v", addr, err)
			}
		}
		m.live[window] = false
	}

	if !mp.Mapped() {
		return
	}

	page := m.pool.PageAt(m.handles[mp.Handle].chain, int(mp.Page))
	if m.mapper != nil {
		if err := m.mapper.Register(addr, m.pool.Bytes(page)); err != nil {
			log.Panicf("EMS: could not map window at %v: %v", addr, err)
		}
	}
	m.live[window] = true
}

// MapStandard maps a logical page into one of the page frame slots. Mapping
// NullPage unmaps the slot and ignores the handle.
func (m *Manager) MapStandard(slot int, h, page uint16) Status {
	if slot < 0 || slot >= NumStandardSlots {
		return IllegalPhysicalPage
	}
	if st := m.checkMapping(h, page); st != StatusOK {
		return st
	}

	mp := Mapping{Handle: h, Page: page}
	if page == NullPage {
		mp = Unmapped()
	}
	m.standard[slot] = mp
	m.bind(frameFirstWindow+slot, mp)
	return StatusOK
}

// MapSegment maps a logical page at the window containing segment. Page
// frame segments are routed to the standard slots.
func (m *Manager) MapSegment(segment uint16, h, page uint16) Status {
	if !m.MappableSegment(segment) {
		return IllegalPhysicalPage
	}
	if st := m.checkMapping(h, page); st != StatusOK {
		return st
	}

	mp := Mapping{Handle: h, Page: page}
	if page == NullPage {
		mp = Unmapped()
	}

	window := windowOf(segment)
	if inPageFrame(segment) {
		m.standard[window-frameFirstWindow] = mp
	} else {
		m.segments[window] = mp
	}
	m.bind(window, mp)
	return StatusOK
}

// MapMultiple maps several pages of h. Every entry is validated before
// anything changes.
func (m *Manager) MapMultiple(h uint16, bySegment bool, pages []PageMapping) Status {
	for _, p := range pages {
		if bySegment {
			if !m.MappableSegment(p.Target) {
				return IllegalPhysicalPage
			}
		} else if p.Target >= NumStandardSlots {
			return IllegalPhysicalPage
		}
		if st := m.checkMapping(h, p.Page); st != StatusOK {
			return st
		}
	}

	for _, p := range pages {
		var st Status
		if bySegment {
			st = m.MapSegment(p.Target, h, p.Page)
		} else {
			st = m.MapStandard(int(p.Target), h, p.Page)
		}
		if st != StatusOK {
			log.Panicf("EMS: validated mapping failed: %v", st)
		}
	}
	return StatusOK
}

func (m *Manager) forEachSlot(fn func(window int, mp *Mapping)) {
	for i := range m.segments {
		if i >= frameFirstWindow && i < frameFirstWindow+NumStandardSlots {
			continue
		}
		fn(i, &m.segments[i])
	}
	for i := range m.standard {
		fn(frameFirstWindow+i, &m.standard[i])
	}
}

// unmapHandle removes every window showing a page of h.
func (m *Manager) unmapHandle(h uint16) {
	m.forEachSlot(func(window int, mp *Mapping) {
		if mp.Mapped() && mp.Handle == h {
			*mp = Unmapped()
			m.bind(window, *mp)
		}
	})
}

// refreshHandle registers the windows of h again after its chain changed.
func (m *Manager) refreshHandle(h uint16) {
	m.forEachSlot(func(window int, mp *Mapping) {
		if !mp.Mapped() || mp.Handle != h {
			return
		}
		if mp.Page >= m.handles[h].pages {
			*mp = Unmapped()
		}
		m.bind(window, *mp)
	})
}

// replay registers every slot from scratch, alternate windows first and the
// page frame last. Entries that no longer refer to a valid page are cleared.
func (m *Manager) replay() {
	for i := range m.segments {
		if i >= frameFirstWindow && i < frameFirstWindow+NumStandardSlots {
			continue
		}
		mp := m.segments[i]
		if m.MapSegment(uint16(i*segmentsPerPage), mp.Handle, mp.Page) != StatusOK {
			m.segments[i] = Unmapped()
			m.bind(i, m.segments[i])
		}
	}
	for i := range m.standard {
		mp := m.standard[i]
		if m.MapStandard(i, mp.Handle, mp.Page) != StatusOK {
			m.standard[i] = Unmapped()
			m.bind(frameFirstWindow+i, m.standard[i])
		}
	}
}

// SavePageMap stores the page frame mapping in h. A handle holds one saved
// map at a time.
func (m *Manager) SavePageMap(h uint16) Status {
	if !m.validHandle(h) {
		return InvalidHandle
	}
	hd := &m.handles[h]
	if hd.saved {
		return PageMapSaved
	}
	hd.pageMap = m.standard
	hd.saved = true
	return StatusOK
}

// RestorePageMap brings back the mapping stored by SavePageMap and
// resynchronizes all windows.
func (m *Manager) RestorePageMap(h uint16) Status {
	if !m.validHandle(h) {
		return InvalidHandle
	}
	hd := &m.handles[h]
	if !hd.saved {
		return NoSavedPageMap
	}
	hd.saved = false
	m.standard = hd.pageMap
	m.replay()
	return StatusOK
}

// PageMap returns the current page frame mapping.
func (m *Manager) PageMap() [NumStandardSlots]Mapping {
	return m.standard
}

// SetPageMap installs a page frame mapping, usually one returned by PageMap.
func (m *Manager) SetPageMap(pm [NumStandardSlots]Mapping) Status {
	m.standard = pm
	m.replay()
	return StatusOK
}

// SavePartialPageMap returns the mappings of the given segments.
func (m *Manager) SavePartialPageMap(segments []uint16) ([]SegmentMapping, Status) {
	entries := make([]SegmentMapping, 0, len(segments))
	for _, seg := range segments {
		switch {
		case inPageFrame(seg):
			entries = append(entries, SegmentMapping{seg, m.standard[windowOf(seg)-frameFirstWindow]})
		case m.MappableSegment(seg):
			entries = append(entries, SegmentMapping{seg, m.segments[windowOf(seg)]})
		default:
			return nil, IllegalPhysicalPage
		}
	}
	return entries, StatusOK
}

// RestorePartialPageMap applies mappings saved by SavePartialPageMap and
// resynchronizes all windows.
func (m *Manager) RestorePartialPageMap(entries []SegmentMapping) Status {
	for _, e := range entries {
		if !m.MappableSegment(e.Segment) {
			return IllegalPhysicalPage
		}
		if e.Mapped() {
			if st := m.checkMapping(e.Handle, e.Page); st != StatusOK {
				return st
			}
		}
	}

	for _, e := range entries {
		mp := e.Mapping
		if !mp.Mapped() {
			mp = Unmapped()
		}
		if inPageFrame(e.Segment) {
			m.standard[windowOf(e.Segment)-frameFirstWindow] = mp
		} else {
			m.segments[windowOf(e.Segment)] = mp
		}
	}
	m.replay()
	return StatusOK
}

// PartialPageMapSize is the size in bytes of a saved partial map.
func PartialPageMapSize(count int) int {
	return 2 + count*6
}

// PhysicalPage is an entry of the mappable physical address array.
type PhysicalPage struct {
	Segment uint16
	Slot    uint16
}

// MappableSegments lists the page frame slots in segment order.
func (m *Manager) MappableSegments() []PhysicalPage {
	list := make([]PhysicalPage, NumStandardSlots)
	for i := range list {
		list[i] = PhysicalPage{
			Segment: uint16(PageFrameSegment + i*segmentsPerPage),
			Slot:    uint16(i),
		}
	}
	return list
}
