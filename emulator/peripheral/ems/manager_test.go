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

// recordingMapper wraps a bus and keeps a log of every call.
type recordingMapper struct {
	*memory.Bus
	calls []string
}

func (r *recordingMapper) Register(addr memory.Pointer, backing []byte) error {
	r.calls = append(r.calls, "register "+addr.String())
	return r.Bus.Register(addr, backing)
}

func (r *recordingMapper) Unregister(addr memory.Pointer, size int) error {
	r.calls = append(r.calls, "unregister "+addr.String())
	return r.Bus.Unregister(addr, size)
}

func newTestManager(t *testing.T, mode Mode, pages int) (*Manager, *recordingMapper) {
	rec := &recordingMapper{Bus: memory.NewBus()}
	m := NewManager(Config{Mode: mode, Pages: pages}, rec)
	require.Equal(t, pages, m.Pool().Total())
	return m, rec
}

var frameBase = memory.SegmentPointer(PageFrameSegment)

func TestManagerAllocate(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)

	_, st := m.Allocate(0, false)
	assert.Equal(t, ZeroPages, st)
	_, st = m.Allocate(17, false)
	assert.Equal(t, OutOfLogicalPages, st)

	h, st := m.Allocate(4, false)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, uint16(1), h)

	raw, st := m.Allocate(0, true)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, uint16(2), raw)

	free, total := m.PageCounts()
	assert.Equal(t, uint16(12), free)
	assert.Equal(t, uint16(16), total)
	assert.Equal(t, 3, m.HandleCount())

	pages, st := m.HandlePages(h)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, uint16(4), pages)

	assert.Equal(t, InvalidHandle, m.Release(SystemHandle))
	assert.Equal(t, StatusOK, m.Release(h))
	assert.Equal(t, InvalidHandle, m.Release(h))
	assert.Equal(t, StatusOK, m.Release(raw))

	free, _ = m.PageCounts()
	assert.Equal(t, uint16(16), free)
	assert.Equal(t, 1, m.HandleCount())
}

func TestManagerOutOfHandles(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)
	for i := 1; i < MaxHandles; i++ {
		_, st := m.Allocate(0, true)
		require.Equal(t, StatusOK, st)
	}
	_, st := m.Allocate(0, true)
	assert.Equal(t, OutOfHandles, st)
}

func TestManagerConservation(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 64)
	check := func() {
		sum := 0
		for _, h := range m.HandleDirectory() {
			sum += int(h.Pages)
		}
		assert.Equal(t, m.Pool().Total(), m.Pool().Free()+sum)
	}

	var handles []uint16
	for _, n := range []uint16{5, 9, 1, 13, 2} {
		h, st := m.Allocate(n, false)
		require.Equal(t, StatusOK, st)
		handles = append(handles, h)
		check()
	}
	require.Equal(t, StatusOK, m.Release(handles[1]))
	check()
	require.Equal(t, StatusOK, m.Reallocate(handles[0], 12))
	check()
	require.Equal(t, StatusOK, m.Reallocate(handles[3], 1))
	check()
	assert.Equal(t, OutOfLogicalPages, m.Reallocate(handles[2], 60))
	check()
}

func TestManagerSaveRestoreGuard(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(2, false)

	assert.Equal(t, NoSavedPageMap, m.RestorePageMap(h))

	require.Equal(t, StatusOK, m.MapStandard(0, h, 0))
	require.Equal(t, StatusOK, m.SavePageMap(h))
	require.Equal(t, StatusOK, m.MapStandard(0, h, 1))
	assert.Equal(t, PageMapSaved, m.SavePageMap(h))

	require.Equal(t, StatusOK, m.RestorePageMap(h))
	assert.Equal(t, Mapping{Handle: h, Page: 0}, m.PageMap()[0])
	assert.Equal(t, NoSavedPageMap, m.RestorePageMap(h))

	assert.Equal(t, InvalidHandle, m.SavePageMap(NullHandle))
	assert.Equal(t, InvalidHandle, m.RestorePageMap(77))
}

func TestManagerMappingValidity(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(3, false)

	assert.Equal(t, LogicalPageOutOfRange, m.MapStandard(0, h, 3))
	assert.Equal(t, IllegalPhysicalPage, m.MapStandard(4, h, 0))
	assert.Equal(t, IllegalPhysicalPage, m.MapSegment(0x2000, h, 0))
	assert.Equal(t, StatusOK, m.MapSegment(0xA400, h, 2))

	require.Equal(t, StatusOK, m.Release(h))
	assert.Equal(t, InvalidHandle, m.MapStandard(0, h, 0))
	assert.Empty(t, m.Snapshot().Segments)
}

func TestManagerIdempotentUnmap(t *testing.T) {
	m, rec := newTestManager(t, ModeEMM386, 16)

	require.Equal(t, StatusOK, m.MapStandard(1, NullHandle, NullPage))
	require.Equal(t, StatusOK, m.MapStandard(1, 5, NullPage))
	assert.Empty(t, rec.calls)

	h, _ := m.Allocate(1, false)
	require.Equal(t, StatusOK, m.MapStandard(1, h, 0))
	require.Equal(t, StatusOK, m.MapStandard(1, h, NullPage))
	require.Equal(t, StatusOK, m.MapStandard(1, h, NullPage))

	addr := (frameBase + PageSize).String()
	assert.Equal(t, []string{"register " + addr, "unregister " + addr}, rec.calls)
	assert.False(t, rec.Registered(frameBase+PageSize))
}

func TestManagerRemapOrder(t *testing.T) {
	m, rec := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(2, false)

	require.Equal(t, StatusOK, m.MapStandard(0, h, 0))
	require.Equal(t, StatusOK, m.MapStandard(0, h, 1))

	addr := frameBase.String()
	assert.Equal(t, []string{"register " + addr, "unregister " + addr, "register " + addr}, rec.calls)
}

func TestManagerEndToEnd(t *testing.T) {
	m, bus := newTestManager(t, ModeEMM386, 16)

	h, st := m.Allocate(10, false)
	require.Equal(t, StatusOK, st)
	require.Equal(t, StatusOK, m.MapStandard(0, h, 0))

	bus.WriteByte(frameBase, 0x42)
	page, st := m.PageBytes(h, 0)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, byte(0x42), page[0])

	require.Equal(t, StatusOK, m.SavePageMap(h))
	require.Equal(t, StatusOK, m.MapStandard(0, h, 1))
	bus.WriteByte(frameBase, 0x99)
	require.Equal(t, StatusOK, m.RestorePageMap(h))
	assert.Equal(t, byte(0x42), bus.ReadByte(frameBase))

	page, _ = m.PageBytes(h, 1)
	assert.Equal(t, byte(0x99), page[0])
}

func TestManagerReallocatePreservesContent(t *testing.T) {
	m, bus := newTestManager(t, ModeEMM386, 16)

	h, _ := m.Allocate(8, false)
	for i := uint16(0); i < 8; i++ {
		page, _ := m.PageBytes(h, i)
		for j := range page {
			page[j] = byte(i) ^ byte(j)
		}
	}

	require.Equal(t, StatusOK, m.Reallocate(h, 3))
	other, _ := m.Allocate(1, false)
	require.Equal(t, StatusOK, m.MapStandard(2, h, 1))
	require.Equal(t, StatusOK, m.Reallocate(h, 8))

	require.NotContains(t, m.Pool().Pages(m.handles[h].chain), PageIndex(1))
	for i := uint16(0); i < 3; i++ {
		page, _ := m.PageBytes(h, i)
		for j := range page {
			require.Equal(t, byte(i)^byte(j), page[j])
		}
	}

	// The window follows the moved page.
	assert.Equal(t, byte(1), bus.ReadByte(frameBase+2*PageSize))
	pages, _ := m.HandlePages(other)
	assert.Equal(t, uint16(1), pages)
}

func TestManagerReleaseUnmaps(t *testing.T) {
	m, bus := newTestManager(t, ModeBoard, 16)
	h, _ := m.Allocate(2, false)

	require.Equal(t, StatusOK, m.MapStandard(3, h, 1))
	require.Equal(t, StatusOK, m.MapSegment(0x4000, h, 0))
	require.True(t, bus.Registered(memory.SegmentPointer(0x4000)))

	require.Equal(t, StatusOK, m.Release(h))
	assert.False(t, bus.Registered(memory.SegmentPointer(0x4000)))
	assert.False(t, bus.Registered(frameBase+3*PageSize))
	assert.Equal(t, Unmapped(), m.PageMap()[3])
}

func TestManagerShrinkUnmaps(t *testing.T) {
	m, bus := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(4, false)

	require.Equal(t, StatusOK, m.MapStandard(0, h, 0))
	require.Equal(t, StatusOK, m.MapStandard(1, h, 3))
	require.Equal(t, StatusOK, m.Reallocate(h, 2))

	assert.True(t, bus.Registered(frameBase))
	assert.False(t, bus.Registered(frameBase+PageSize))
	assert.Equal(t, Unmapped(), m.PageMap()[1])
}

func TestManagerSegments(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)
	assert.True(t, m.MappableSegment(0xA000))
	assert.True(t, m.MappableSegment(0xAC00))
	assert.True(t, m.MappableSegment(0xEC00))
	assert.False(t, m.MappableSegment(0xB800))
	assert.False(t, m.MappableSegment(0xD000))

	b, _ := newTestManager(t, ModeBoard, 16)
	assert.True(t, b.MappableSegment(0x0000))
	assert.True(t, b.MappableSegment(0xD000))
	assert.False(t, b.MappableSegment(0xF000))

	list := m.MappableSegments()
	require.Len(t, list, NumStandardSlots)
	assert.Equal(t, PhysicalPage{Segment: 0xEC00, Slot: 3}, list[3])
}

func TestManagerPageFrameSegment(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(2, false)

	require.Equal(t, StatusOK, m.MapSegment(0xE400, h, 1))
	assert.Equal(t, Mapping{Handle: h, Page: 1}, m.PageMap()[1])
}

func TestManagerMapMultiple(t *testing.T) {
	m, bus := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(4, false)

	st := m.MapMultiple(h, false, []PageMapping{{Page: 0, Target: 0}, {Page: 1, Target: 5}})
	assert.Equal(t, IllegalPhysicalPage, st)
	assert.False(t, bus.Registered(frameBase))

	st = m.MapMultiple(h, true, []PageMapping{{Page: 0, Target: 0xA000}, {Page: 4, Target: 0xA400}})
	assert.Equal(t, LogicalPageOutOfRange, st)
	assert.False(t, bus.Registered(memory.SegmentPointer(0xA000)))

	st = m.MapMultiple(h, true, []PageMapping{{Page: 2, Target: 0xA000}, {Page: 3, Target: 0xE000}})
	require.Equal(t, StatusOK, st)
	assert.True(t, bus.Registered(memory.SegmentPointer(0xA000)))
	assert.Equal(t, Mapping{Handle: h, Page: 3}, m.PageMap()[0])
}

func TestManagerPartialPageMap(t *testing.T) {
	m, bus := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(4, false)

	require.Equal(t, StatusOK, m.MapSegment(0xA000, h, 1))
	require.Equal(t, StatusOK, m.MapStandard(2, h, 2))

	saved, st := m.SavePartialPageMap([]uint16{0xA000, 0xE800})
	require.Equal(t, StatusOK, st)
	assert.Equal(t, []SegmentMapping{
		{0xA000, Mapping{h, 1}},
		{0xE800, Mapping{h, 2}},
	}, saved)

	_, st = m.SavePartialPageMap([]uint16{0x1000})
	assert.Equal(t, IllegalPhysicalPage, st)

	require.Equal(t, StatusOK, m.MapSegment(0xA000, h, NullPage))
	require.Equal(t, StatusOK, m.MapStandard(2, h, 0))
	require.False(t, bus.Registered(memory.SegmentPointer(0xA000)))

	bad := append([]SegmentMapping{}, saved...)
	bad = append(bad, SegmentMapping{0xA400, Mapping{h, 9}})
	assert.Equal(t, LogicalPageOutOfRange, m.RestorePartialPageMap(bad))
	assert.Equal(t, Mapping{h, 0}, m.PageMap()[2])

	require.Equal(t, StatusOK, m.RestorePartialPageMap(saved))
	assert.True(t, bus.Registered(memory.SegmentPointer(0xA000)))
	assert.Equal(t, Mapping{h, 2}, m.PageMap()[2])

	assert.Equal(t, 14, PartialPageMapSize(2))
}

func TestManagerSetPageMapClearsInvalid(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(1, false)

	pm := m.PageMap()
	pm[0] = Mapping{h, 0}
	pm[1] = Mapping{h, 5}
	pm[2] = Mapping{42, 0}
	require.Equal(t, StatusOK, m.SetPageMap(pm))

	got := m.PageMap()
	assert.Equal(t, Mapping{h, 0}, got[0])
	assert.Equal(t, Unmapped(), got[1])
	assert.Equal(t, Unmapped(), got[2])
}

func TestManagerNames(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)
	a, _ := m.Allocate(1, false)
	b, _ := m.Allocate(1, false)

	name, err := EncodeName("Äpple")
	require.NoError(t, err)
	require.Equal(t, StatusOK, m.SetHandleName(a, name))

	got, st := m.HandleName(a)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, "Äpple", DecodeName(got))

	upper, _ := EncodeName("äPPLE")
	assert.Equal(t, HandleNameExists, m.SetHandleName(b, upper))

	h, st := m.SearchHandleName(upper)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, a, h)

	missing, _ := EncodeName("nothere")
	_, st = m.SearchHandleName(missing)
	assert.Equal(t, NotFound, st)

	_, st = m.SearchHandleName([NameSize]byte{})
	assert.Equal(t, HandleNameExists, st)

	_, err = EncodeName("muchtoolong")
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestManagerOSFunctions(t *testing.T) {
	m, _ := newTestManager(t, ModeEMM386, 16)

	_, st := m.HardwareInfo()
	require.Equal(t, StatusOK, st)

	key, st := m.SetOSFunctions(false, 0)
	require.Equal(t, StatusOK, st)
	assert.False(t, m.OSFunctionsEnabled())
	_, st = m.HardwareInfo()
	assert.Equal(t, AccessDenied, st)

	_, st = m.SetOSFunctions(true, key+1)
	assert.Equal(t, AccessDenied, st)
	_, st = m.SetOSFunctions(true, key)
	assert.Equal(t, StatusOK, st)
	assert.True(t, m.OSFunctionsEnabled())

	assert.Equal(t, AccessDenied, m.ReturnAccessKey(key+1))
	assert.Equal(t, StatusOK, m.ReturnAccessKey(key))
}

func TestManagerReset(t *testing.T) {
	m, bus := newTestManager(t, ModeEMM386, 16)
	h, _ := m.Allocate(2, false)
	require.Equal(t, StatusOK, m.MapStandard(0, h, 0))

	m.Reset()
	assert.False(t, bus.Registered(frameBase))
	assert.Equal(t, 1, m.HandleCount())
	assert.Equal(t, 16, m.Pool().Free())

	snap := m.Snapshot()
	assert.Equal(t, ModeEMM386, snap.Mode)
	for _, o := range snap.Owners {
		assert.Equal(t, uint16(NullHandle), o)
	}
}

func TestStatus(t *testing.T) {
	assert.NoError(t, StatusOK.Err())
	assert.Error(t, InvalidHandle.Err())
	assert.Contains(t, InvalidHandle.Error(), "83")
}
