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
	"crypto/rand"
	"encoding/binary"
	"log"

	"github.com/andreas-jonsson/vxtems/emulator/memory"
)

// Version is the LIM version reported by the driver, 4.0.
const Version = 0x40

// Manager owns the page pool, the handle table and all windows. It is not
// safe for concurrent use; the machine calls it from its own thread only.
type Manager struct {
	mode   Mode
	pool   *Pool
	mapper memory.Mapper

	handles  [MaxHandles]handle
	standard [NumStandardSlots]Mapping
	segments [NumSegmentSlots]Mapping
	live     [NumSegmentSlots]bool

	osDisabled bool
	keyIssued  bool
	accessKey  uint32
}

// NewManager creates expanded memory as described by cfg. Windows are
// registered with mapper, which may be nil when no bus is attached.
func NewManager(cfg Config, mapper memory.Mapper) *Manager {
	m := &Manager{
		mode:   cfg.Mode,
		mapper: mapper,
		pool:   NewPool(cfg.pages()),
	}
	m.init()
	return m
}

func (m *Manager) init() {
	for i := range m.handles {
		m.handles[i].reset(NullHandle)
	}
	m.handles[SystemHandle].reset(0)

	for i := range m.standard {
		m.standard[i] = Unmapped()
	}
	for i := range m.segments {
		m.segments[i] = Unmapped()
	}

	m.osDisabled = false
	m.keyIssued = false
	m.accessKey = 0
}

// Reset drops all handles and windows.
func (m *Manager) Reset() {
	for i := range m.live {
		m.bind(i, Unmapped())
	}
	m.pool = NewPool(m.pool.Total())
	m.init()
}

func (m *Manager) Mode() Mode {
	return m.mode
}

// Pool exposes the page pool for inspection.
func (m *Manager) Pool() *Pool {
	return m.pool
}

// PageFrame returns the segment of the page frame.
func (m *Manager) PageFrame() uint16 {
	return PageFrameSegment
}

// PageCounts returns the number of free and total pages.
func (m *Manager) PageCounts() (free, total uint16) {
	return uint16(m.pool.Free()), uint16(m.pool.Total())
}

// HardwareInfo is the hardware configuration array of function 59h.
type HardwareInfo struct {
	RawPageParagraphs     uint16
	AlternateRegisterSets uint16
	ContextSaveAreaSize   uint16
	DMARegisterSets       uint16
	DMAChannelOperation   uint16
}

func (m *Manager) HardwareInfo() (HardwareInfo, Status) {
	if m.osDisabled {
		return HardwareInfo{}, AccessDenied
	}
	return HardwareInfo{
		RawPageParagraphs:   PageSize >> 4,
		ContextSaveAreaSize: PageMapSize,
	}, StatusOK
}

// PageMapSize is the size in bytes of a saved page frame mapping.
const PageMapSize = NumStandardSlots * 4

// OSFunctionsEnabled reports if the operating system has left the OS/E
// functions open to applications.
func (m *Manager) OSFunctionsEnabled() bool {
	return !m.osDisabled
}

// SetOSFunctions enables or disables the OS/E functions. The first caller
// gets an access key that must be presented on every later call.
func (m *Manager) SetOSFunctions(enable bool, key uint32) (uint32, Status) {
	if !m.keyIssued {
		var b [4]byte
		if _, err := rand.Read(b[:]); err != nil {
			log.Print("EMS: could not generate access key: ", err)
		}
		m.accessKey = binary.LittleEndian.Uint32(b[:])
		m.keyIssued = true
		m.osDisabled = !enable
		return m.accessKey, StatusOK
	}
	if key != m.accessKey {
		return 0, AccessDenied
	}
	m.osDisabled = !enable
	return key, StatusOK
}

// ReturnAccessKey gives the access key back and enables the OS/E functions.
func (m *Manager) ReturnAccessKey(key uint32) Status {
	if !m.keyIssued || key != m.accessKey {
		return AccessDenied
	}
	m.keyIssued = false
	m.osDisabled = false
	return StatusOK
}

// Snapshot is a copy of the manager state for display.
type Snapshot struct {
	Mode       Mode
	TotalPages int
	FreePages  int

	// Owners has the owning handle of every pool page, NullHandle if free.
	Owners   []uint16
	Handles  []HandleInfo
	Standard [NumStandardSlots]Mapping
	Segments []SegmentMapping
}

func (m *Manager) Snapshot() Snapshot {
	s := Snapshot{
		Mode:       m.mode,
		TotalPages: m.pool.Total(),
		FreePages:  m.pool.Free(),
		Owners:     make([]uint16, m.pool.Total()),
		Handles:    m.HandleDirectory(),
		Standard:   m.standard,
	}

	for i := range s.Owners {
		s.Owners[i] = NullHandle
	}
	for _, h := range s.Handles {
		for _, p := range m.pool.Pages(m.handles[h.Handle].chain) {
			s.Owners[p-1] = h.Handle
		}
	}

	for i, mp := range m.segments {
		if mp.Mapped() {
			s.Segments = append(s.Segments, SegmentMapping{Segment: uint16(i * segmentsPerPage), Mapping: mp})
		}
	}
	return s
}
