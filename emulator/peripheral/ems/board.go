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

import "log"

// DefaultBasePort is where a board exposes its page registers.
const DefaultBasePort = 0x208

const (
	portSlots  = NumStandardSlots
	portHandle = 4
	portStatus = 5
	numPorts   = 8

	pageEnable = 0x80
	pageMask   = 0x7F
)

// board emulates the page registers of an expanded memory card. Writing
// port base+n maps a page of the selected handle into standard slot n, with
// bit 7 enabling the mapping. Port base+4 selects the handle and base+5
// reads back the status of the last register write.
type board struct {
	handle byte
	status Status
}

func (b *board) reset() {
	*b = board{}
}

func (m *Device) hasBoard() bool {
	return m.manager.boardMapping()
}

func (m *Device) In(port uint16) byte {
	switch reg := port - m.BasePort; {
	case reg < portSlots:
		mp := m.manager.standard[reg]
		if !mp.Mapped() || mp.Page > pageMask {
			return 0
		}
		return pageEnable | byte(mp.Page)
	case reg == portHandle:
		return m.board.handle
	case reg == portStatus:
		return byte(m.board.status)
	}
	return 0xFF
}

func (m *Device) Out(port uint16, data byte) {
	switch reg := port - m.BasePort; {
	case reg < portSlots:
		page := uint16(NullPage)
		if data&pageEnable != 0 {
			page = uint16(data & pageMask)
		}
		m.board.status = m.manager.MapStandard(int(reg), uint16(m.board.handle), page)
		if m.Verbose && m.board.status != StatusOK {
			log.Printf("EMS: page register %d: %v", reg, m.board.status)
		}
	case reg == portHandle:
		m.board.handle = data
	}
}
