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

	"github.com/andreas-jonsson/vxtems/emulator/processor"
)

func functionTable() (t [0x100]function) {
	t[0x40] = function{"GET_STATUS", (*Device).getStatus}
	t[0x41] = function{"GET_PAGE_FRAME", (*Device).getPageFrame}
	t[0x42] = function{"GET_PAGE_COUNT", (*Device).getPageCount}
	t[0x43] = function{"ALLOCATE_PAGES", (*Device).allocatePages}
	t[0x44] = function{"MAP_PAGE", (*Device).mapPage}
	t[0x45] = function{"RELEASE_PAGES", (*Device).releasePages}
	t[0x46] = function{"GET_VERSION", (*Device).getVersion}
	t[0x47] = function{"SAVE_PAGE_MAP", (*Device).savePageMap}
	t[0x48] = function{"RESTORE_PAGE_MAP", (*Device).restorePageMap}
	t[0x4B] = function{"GET_HANDLE_COUNT", (*Device).getHandleCount}
	t[0x4C] = function{"GET_HANDLE_PAGES", (*Device).getHandlePages}
	t[0x4D] = function{"GET_ALL_HANDLE_PAGES", (*Device).getAllHandlePages}
	t[0x4E] = function{"PAGE_MAP", (*Device).pageMap}
	t[0x4F] = function{"PARTIAL_PAGE_MAP", (*Device).partialPageMap}
	t[0x50] = function{"MAP_MULTIPLE", (*Device).mapMultiple}
	t[0x51] = function{"REALLOCATE_PAGES", (*Device).reallocatePages}
	t[0x52] = function{"HANDLE_ATTRIBUTE", (*Device).handleAttribute}
	t[0x53] = function{"HANDLE_NAME", (*Device).handleName}
	t[0x54] = function{"HANDLE_DIRECTORY", (*Device).handleDirectory}
	t[0x55] = function{"ALTER_MAP_AND_JUMP", (*Device).notSupported}
	t[0x56] = function{"ALTER_MAP_AND_CALL", (*Device).notSupported}
	t[0x57] = function{"MOVE_EXCHANGE", (*Device).moveExchange}
	t[0x58] = function{"MAPPABLE_ADDRESS_ARRAY", (*Device).mappableAddressArray}
	t[0x59] = function{"HARDWARE_INFO", (*Device).hardwareInfo}
	t[0x5A] = function{"ALLOCATE_RAW_PAGES", (*Device).allocateRawPages}
	t[0x5B] = function{"ALTERNATE_MAP_REGISTER_SET", (*Device).alternateMapRegisterSet}
	t[0x5C] = function{"PREPARE_WARM_BOOT", (*Device).getStatus}
	t[0x5D] = function{"OS_FUNCTION_SET", (*Device).osFunctionSet}
	return
}

// FunctionName returns the name of an INT 67h function, empty if unknown.
func FunctionName(ah byte) string {
	return functionTable()[ah].name
}

func (m *Device) notSupported(r *processor.Registers) Status {
	log.Printf("EMS: function 0x%X not supported", r.AH())
	return InvalidFunction
}

func (m *Device) invalidSub(r *processor.Registers) Status {
	log.Printf("EMS: function 0x%X subfunction 0x%X not supported", r.AH(), r.AL())
	return InvalidSubfunction
}

func (m *Device) getStatus(*processor.Registers) Status {
	return StatusOK
}

func (m *Device) getPageFrame(r *processor.Registers) Status {
	r.SetBX(m.manager.PageFrame())
	return StatusOK
}

func (m *Device) getPageCount(r *processor.Registers) Status {
	free, total := m.manager.PageCounts()
	r.SetBX(free)
	r.SetDX(total)
	return StatusOK
}

func (m *Device) allocatePages(r *processor.Registers) Status {
	h, st := m.manager.Allocate(r.BX(), false)
	if st == StatusOK {
		r.SetDX(h)
	}
	return st
}

func (m *Device) mapPage(r *processor.Registers) Status {
	return m.manager.MapStandard(int(r.AL()), r.DX(), r.BX())
}

func (m *Device) releasePages(r *processor.Registers) Status {
	return m.manager.Release(r.DX())
}

func (m *Device) getVersion(r *processor.Registers) Status {
	r.SetAL(Version)
	return StatusOK
}

func (m *Device) savePageMap(r *processor.Registers) Status {
	return m.manager.SavePageMap(r.DX())
}

func (m *Device) restorePageMap(r *processor.Registers) Status {
	return m.manager.RestorePageMap(r.DX())
}

func (m *Device) getHandleCount(r *processor.Registers) Status {
	r.SetBX(uint16(m.manager.HandleCount()))
	return StatusOK
}

func (m *Device) getHandlePages(r *processor.Registers) Status {
	pages, st := m.manager.HandlePages(r.DX())
	if st == StatusOK {
		r.SetBX(pages)
	}
	return st
}

func (m *Device) getAllHandlePages(r *processor.Registers) Status {
	dir := m.manager.HandleDirectory()
	s := m.stream(r.ES(), r.DI())
	for _, h := range dir {
		s.writeWord(h.Handle)
		s.writeWord(h.Pages)
	}
	r.SetBX(uint16(len(dir)))
	return StatusOK
}

func (m *Device) pageMap(r *processor.Registers) Status {
	switch r.AL() {
	case 0x00: // Get
		m.stream(r.ES(), r.DI()).writePageMap(m.manager.PageMap())
		return StatusOK
	case 0x01: // Set
		return m.manager.SetPageMap(m.stream(r.DS(), r.SI()).readPageMap())
	case 0x02: // Get & Set
		pm := m.stream(r.DS(), r.SI()).readPageMap()
		m.stream(r.ES(), r.DI()).writePageMap(m.manager.PageMap())
		return m.manager.SetPageMap(pm)
	case 0x03: // Size
		r.SetAL(PageMapSize)
		return StatusOK
	}
	return m.invalidSub(r)
}

func (m *Device) partialPageMap(r *processor.Registers) Status {
	switch r.AL() {
	case 0x00: // Save
		list := m.stream(r.DS(), r.SI())
		segments := make([]uint16, list.readWord())
		for i := range segments {
			segments[i] = list.readWord()
		}

		entries, st := m.manager.SavePartialPageMap(segments)
		if st != StatusOK {
			return st
		}

		s := m.stream(r.ES(), r.DI())
		s.writeWord(uint16(len(entries)))
		for _, e := range entries {
			s.writeWord(e.Segment)
			s.writeMapping(e.Mapping)
		}
		return StatusOK
	case 0x01: // Restore
		s := m.stream(r.DS(), r.SI())
		entries := make([]SegmentMapping, s.readWord())
		for i := range entries {
			entries[i].Segment = s.readWord()
			entries[i].Mapping = s.readMapping()
		}
		return m.manager.RestorePartialPageMap(entries)
	case 0x02: // Size
		size := PartialPageMapSize(int(r.BX()))
		if size > 0xFF {
			return IllegalPhysicalPage
		}
		r.SetAL(byte(size))
		return StatusOK
	}
	return m.invalidSub(r)
}

func (m *Device) mapMultiple(r *processor.Registers) Status {
	if r.AL() > 1 {
		return m.invalidSub(r)
	}

	s := m.stream(r.DS(), r.SI())
	pages := make([]PageMapping, r.CX())
	for i := range pages {
		pages[i].Page = s.readWord()
		pages[i].Target = s.readWord()
	}
	return m.manager.MapMultiple(r.DX(), r.AL() == 1, pages)
}

func (m *Device) reallocatePages(r *processor.Registers) Status {
	st := m.manager.Reallocate(r.DX(), r.BX())
	if pages, hst := m.manager.HandlePages(r.DX()); hst == StatusOK {
		r.SetBX(pages)
	}
	return st
}

func (m *Device) handleAttribute(r *processor.Registers) Status {
	switch r.AL() {
	case 0x00: // Get, every handle is volatile
		if _, st := m.manager.HandlePages(r.DX()); st != StatusOK {
			return st
		}
		r.SetAL(0)
		return StatusOK
	case 0x01: // Set
		if _, st := m.manager.HandlePages(r.DX()); st != StatusOK {
			return st
		}
		switch r.BL() {
		case 0:
			return StatusOK
		case 1:
			return FeatureNotSupported
		}
		return UndefinedAttribute
	case 0x02: // Capability
		r.SetAL(0)
		return StatusOK
	}
	return m.invalidSub(r)
}

func (m *Device) handleName(r *processor.Registers) Status {
	switch r.AL() {
	case 0x00: // Get
		name, st := m.manager.HandleName(r.DX())
		if st == StatusOK {
			m.stream(r.ES(), r.DI()).writeName(name)
		}
		return st
	case 0x01: // Set
		return m.manager.SetHandleName(r.DX(), m.stream(r.DS(), r.SI()).readName())
	}
	return m.invalidSub(r)
}

func (m *Device) handleDirectory(r *processor.Registers) Status {
	switch r.AL() {
	case 0x00: // Directory
		dir := m.manager.HandleDirectory()
		s := m.stream(r.ES(), r.DI())
		for _, h := range dir {
			s.writeWord(h.Handle)
			s.writeName(h.Name)
		}
		r.SetAL(byte(len(dir)))
		return StatusOK
	case 0x01: // Search
		h, st := m.manager.SearchHandleName(m.stream(r.DS(), r.SI()).readName())
		if st == StatusOK {
			r.SetDX(h)
		}
		return st
	case 0x02: // Total handles
		r.SetBX(MaxHandles)
		return StatusOK
	}
	return m.invalidSub(r)
}

func (m *Device) moveExchange(r *processor.Registers) Status {
	if r.AL() > 1 {
		return m.invalidSub(r)
	}

	s := m.stream(r.DS(), r.SI())
	req := MoveRequest{Length: s.readDWord()}
	req.Source = s.readRegion()
	req.Dest = s.readRegion()

	if r.AL() == 0 {
		return m.manager.MoveRegion(m.cpu, req)
	}
	return m.manager.ExchangeRegion(m.cpu, req)
}

func (m *Device) mappableAddressArray(r *processor.Registers) Status {
	list := m.manager.MappableSegments()
	switch r.AL() {
	case 0x00:
		s := m.stream(r.ES(), r.DI())
		for _, p := range list {
			s.writeWord(p.Segment)
			s.writeWord(p.Slot)
		}
	case 0x01:
	default:
		return m.invalidSub(r)
	}
	r.SetCX(uint16(len(list)))
	return StatusOK
}

func (m *Device) hardwareInfo(r *processor.Registers) Status {
	switch r.AL() {
	case 0x00:
		info, st := m.manager.HardwareInfo()
		if st != StatusOK {
			return st
		}
		s := m.stream(r.ES(), r.DI())
		s.writeWord(info.RawPageParagraphs)
		s.writeWord(info.AlternateRegisterSets)
		s.writeWord(info.ContextSaveAreaSize)
		s.writeWord(info.DMARegisterSets)
		s.writeWord(info.DMAChannelOperation)
		return StatusOK
	case 0x01: // Raw pages are the same size as standard pages.
		free, total := m.manager.PageCounts()
		r.SetBX(free)
		r.SetDX(total)
		return StatusOK
	}
	return m.invalidSub(r)
}

func (m *Device) allocateRawPages(r *processor.Registers) Status {
	if r.AL() > 1 {
		return m.invalidSub(r)
	}
	h, st := m.manager.Allocate(r.BX(), true)
	if st == StatusOK {
		r.SetDX(h)
	}
	return st
}

// Only the system register set exists. Its context save area is whatever the
// operating system points us at with subfunction 1.
func (m *Device) alternateMapRegisterSet(r *processor.Registers) Status {
	if !m.manager.OSFunctionsEnabled() {
		return AccessDenied
	}

	switch r.AL() {
	case 0x00: // Get
		if m.altContext != 0 {
			m.stream(m.altContext.Segment(), m.altContext.Offset()).writePageMap(m.manager.PageMap())
		}
		r.SetBL(0)
		r.SetES(m.altContext.Segment())
		r.SetDI(m.altContext.Offset())
		return StatusOK
	case 0x01: // Set
		if r.BL() != 0 {
			return RegisterSetNotSupport
		}
		if r.ES() == 0 && r.DI() == 0 {
			m.altContext = 0
			return StatusOK
		}
		m.altContext = m.stream(r.ES(), r.DI()).addr
		return m.manager.SetPageMap(m.stream(r.ES(), r.DI()).readPageMap())
	case 0x02: // Save area size
		r.SetDX(PageMapSize)
		return StatusOK
	case 0x03, 0x05: // Allocate register set, none available
		r.SetBL(0)
		return StatusOK
	case 0x04, 0x08: // Deallocate register set
		if r.BL() != 0 {
			return RegisterSetUndefined
		}
		return StatusOK
	case 0x06, 0x07: // Enable/disable DMA register set
		if r.BL() != 0 {
			return RegisterSetNotSupport
		}
		return StatusOK
	}
	return m.invalidSub(r)
}

func (m *Device) osFunctionSet(r *processor.Registers) Status {
	key := uint32(r.BX())<<16 | uint32(r.CX())
	switch r.AL() {
	case 0x00, 0x01:
		newKey, st := m.manager.SetOSFunctions(r.AL() == 0, key)
		if st == StatusOK {
			r.SetBX(uint16(newKey >> 16))
			r.SetCX(uint16(newKey))
		}
		return st
	case 0x02:
		return m.manager.ReturnAccessKey(key)
	}
	return m.invalidSub(r)
}
