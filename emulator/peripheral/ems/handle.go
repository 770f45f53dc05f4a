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
	"bytes"
	"errors"
	"fmt"
	"log"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
)

const (
	MaxHandles   = 200
	SystemHandle = 0
	NameSize     = 8

	// NullHandle marks an unused handle slot and an unmapped window.
	NullHandle = 0xFFFF
	// NullPage unmaps a window.
	NullPage = 0xFFFF
)

var ErrNameTooLong = errors.New("handle name is longer than 8 characters")

type handle struct {
	pages uint16
	chain PageIndex
	name  [NameSize]byte

	saved   bool
	pageMap [NumStandardSlots]Mapping
}

func (h *handle) reset(pages uint16) {
	*h = handle{pages: pages}
}

// HandleInfo describes an allocated handle.
type HandleInfo struct {
	Handle uint16
	Pages  uint16
	Name   [NameSize]byte
	Saved  bool
}

func (h HandleInfo) DisplayName() string {
	return DecodeName(h.Name)
}

// DecodeName converts a raw, NUL padded, handle name from code page 437.
func DecodeName(name [NameSize]byte) string {
	raw := bytes.TrimRight(name[:], "\x00")
	s, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}

// EncodeName converts s to a raw handle name.
func EncodeName(s string) ([NameSize]byte, error) {
	var name [NameSize]byte
	enc, err := charmap.CodePage437.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return name, fmt.Errorf("could not encode handle name %q: %w", s, err)
	}
	if len(enc) > NameSize {
		return name, ErrNameTooLong
	}
	copy(name[:], enc)
	return name, nil
}

func blankName(name [NameSize]byte) bool {
	return name == [NameSize]byte{}
}

func sameName(a, b [NameSize]byte) bool {
	fold := cases.Fold()
	return fold.String(DecodeName(a)) == fold.String(DecodeName(b))
}

func (m *Manager) validHandle(h uint16) bool {
	return int(h) < MaxHandles && m.handles[h].pages != NullHandle
}

// Allocate claims a new handle with pages logical pages. Zero sized handles
// are only accepted with allowZero.
func (m *Manager) Allocate(pages uint16, allowZero bool) (uint16, Status) {
	if pages == 0 && !allowZero {
		return NullHandle, ZeroPages
	}
	if int(pages) > m.pool.Free() {
		return NullHandle, OutOfLogicalPages
	}

	h := uint16(1)
	for m.handles[h].pages != NullHandle {
		if h++; h >= MaxHandles {
			return NullHandle, OutOfHandles
		}
	}

	var chain PageIndex
	if pages > 0 {
		if chain = m.pool.Allocate(int(pages), false); chain == NoPage {
			log.Panicf("EMS: could not allocate %d pages with %d free", pages, m.pool.Free())
		}
	}

	m.handles[h].reset(pages)
	m.handles[h].chain = chain
	return h, StatusOK
}

// Release frees the pages of h and returns the handle. The system handle can
// not be released. Windows showing pages of h are unmapped.
func (m *Manager) Release(h uint16) Status {
	if h == SystemHandle || !m.validHandle(h) {
		return InvalidHandle
	}

	m.unmapHandle(h)
	hd := &m.handles[h]
	m.pool.Release(hd.chain)
	hd.reset(NullHandle)
	return StatusOK
}

// Reallocate resizes h to pages logical pages. Page contents are kept but may
// move, so windows of h are registered again.
func (m *Manager) Reallocate(h uint16, pages uint16) Status {
	if !m.validHandle(h) {
		return InvalidHandle
	}

	hd := &m.handles[h]
	if pages > hd.pages && int(pages-hd.pages) > m.pool.Free() {
		return OutOfLogicalPages
	}

	chain, ok := m.pool.Reallocate(hd.chain, int(pages))
	if !ok {
		return OutOfLogicalPages
	}
	hd.chain = chain
	hd.pages = pages

	m.refreshHandle(h)
	return StatusOK
}

// HandleCount returns the number of allocated handles, including the system handle.
func (m *Manager) HandleCount() int {
	n := 0
	for i := range m.handles {
		if m.handles[i].pages != NullHandle {
			n++
		}
	}
	return n
}

func (m *Manager) HandlePages(h uint16) (uint16, Status) {
	if !m.validHandle(h) {
		return 0, InvalidHandle
	}
	return m.handles[h].pages, StatusOK
}

// HandleDirectory lists all allocated handles in handle order.
func (m *Manager) HandleDirectory() []HandleInfo {
	var dir []HandleInfo
	for i := range m.handles {
		if hd := &m.handles[i]; hd.pages != NullHandle {
			dir = append(dir, HandleInfo{
				Handle: uint16(i),
				Pages:  hd.pages,
				Name:   hd.name,
				Saved:  hd.saved,
			})
		}
	}
	return dir
}

func (m *Manager) HandleName(h uint16) ([NameSize]byte, Status) {
	if !m.validHandle(h) {
		return [NameSize]byte{}, InvalidHandle
	}
	return m.handles[h].name, StatusOK
}

// SetHandleName names h. Names must be unique, a blank name clears it.
func (m *Manager) SetHandleName(h uint16, name [NameSize]byte) Status {
	if !m.validHandle(h) {
		return InvalidHandle
	}
	if !blankName(name) {
		if other, st := m.SearchHandleName(name); st == StatusOK && other != h {
			return HandleNameExists
		}
	}
	m.handles[h].name = name
	return StatusOK
}

// SearchHandleName finds the handle with the given name, ignoring case.
func (m *Manager) SearchHandleName(name [NameSize]byte) (uint16, Status) {
	if blankName(name) {
		return NullHandle, HandleNameExists
	}
	for i := range m.handles {
		hd := &m.handles[i]
		if hd.pages != NullHandle && !blankName(hd.name) && sameName(hd.name, name) {
			return uint16(i), StatusOK
		}
	}
	return NullHandle, NotFound
}

// PageBytes returns the backing store of a logical page of h.
func (m *Manager) PageBytes(h, page uint16) ([]byte, Status) {
	if !m.validHandle(h) {
		return nil, InvalidHandle
	}
	if page >= m.handles[h].pages {
		return nil, LogicalPageOutOfRange
	}
	return m.pool.Bytes(m.pool.PageAt(m.handles[h].chain, int(page))), StatusOK
}
