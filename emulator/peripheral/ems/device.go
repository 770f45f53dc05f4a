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
	"encoding/binary"
	"log"

	"github.com/andreas-jonsson/vxtems/emulator/memory"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral/rom"
	"github.com/andreas-jonsson/vxtems/emulator/processor"
)

const (
	Interrupt = 0x67

	// DriverName is what DOS programs look for at offset 10 of the INT 67h
	// vector segment to detect an expanded memory manager.
	DriverName = "EMMXXXX0"

	DefaultDriverSegment = 0xF000
	driverEntry          = 0x12
)

type handlerFunc func(m *Device, r *processor.Registers) Status

type function struct {
	name    string
	handler handlerFunc
}

// Device is the expanded memory manager as seen by DOS, answering INT 67h.
type Device struct {
	Config

	// DriverSegment is where the driver header is placed, zero selects the default.
	DriverSegment uint16

	// BasePort is the first page register port in board modes, zero selects the default.
	BasePort uint16

	// Verbose logs every call.
	Verbose bool

	manager    *Manager
	cpu        processor.Processor
	driver     *rom.Device
	functions  [0x100]function
	altContext memory.Address
	board      board
}

func (m *Device) Install(p processor.Processor) error {
	m.cpu = p
	m.manager = NewManager(m.Config, p.GetMemoryMapper())
	m.functions = functionTable()

	if m.DriverSegment == 0 {
		m.DriverSegment = DefaultDriverSegment
	}
	m.driver = &rom.Device{
		RomName: "EMM Driver",
		Base:    memory.SegmentPointer(m.DriverSegment),
		Reader:  bytes.NewReader(driverImage()),
	}
	if err := m.driver.Install(p); err != nil {
		return err
	}

	m.writeVector()
	log.Printf("EMS: %d pages (%s) with page frame at 0x%X", m.manager.pool.Total(), m.manager.mode, PageFrameSegment)

	if m.hasBoard() {
		if m.BasePort == 0 {
			m.BasePort = DefaultBasePort
		}
		if err := p.InstallIODevice(m, m.BasePort, m.BasePort+numPorts-1); err != nil {
			return err
		}
		log.Printf("EMS: page registers at port 0x%X", m.BasePort)
	}
	return p.InstallInterruptHandler(Interrupt, m)
}

func (m *Device) writeVector() {
	vec := memory.Pointer(Interrupt * 4)
	m.cpu.WriteWord(vec, driverEntry)
	m.cpu.WriteWord(vec+2, m.DriverSegment)
}

// driverImage is a character device header followed by the code the header
// and the interrupt vector point at.
func driverImage() []byte {
	img := make([]byte, driverEntry+3)
	binary.LittleEndian.PutUint32(img[0:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint16(img[4:], 0xC000)
	binary.LittleEndian.PutUint16(img[6:], driverEntry+1)
	binary.LittleEndian.PutUint16(img[8:], driverEntry+2)
	copy(img[10:], DriverName)
	img[driverEntry] = 0xCF   // IRET
	img[driverEntry+1] = 0xCB // RETF
	img[driverEntry+2] = 0xCB // RETF
	return img
}

func (m *Device) Name() string {
	return "Expanded Memory Manager (LIM 4.0)"
}

func (m *Device) Reset() {
	m.manager.Reset()
	m.altContext = 0
	m.board.reset()
	m.writeVector()
}

func (m *Device) Step(int) error {
	return nil
}

// Manager gives direct access to the state behind the interrupt interface.
func (m *Device) Manager() *Manager {
	return m.manager
}

func (m *Device) HandleInterrupt(int) error {
	r := m.cpu.GetRegisters()
	ah := r.AH()

	fn := &m.functions[ah]
	if fn.handler == nil {
		log.Printf("EMS: function 0x%X not supported", ah)
		r.SetAH(byte(InvalidFunction))
		return nil
	}

	if m.Verbose {
		log.Printf("EMS: %s (AL=0x%X) %v", fn.name, r.AL(), r)
	}

	st := fn.handler(m, r)
	if m.Verbose && st != StatusOK {
		log.Printf("EMS: %s: %v", fn.name, st)
	}
	r.SetAH(byte(st))
	return nil
}

// stream walks guest memory at a segment:offset address.
type stream struct {
	p    processor.Processor
	addr memory.Address
}

func (m *Device) stream(seg, offset uint16) *stream {
	return &stream{p: m.cpu, addr: memory.NewAddress(seg, offset)}
}

func (s *stream) readByte() byte {
	v := s.p.ReadByte(s.addr.Pointer())
	s.addr = s.addr.AddInt(1)
	return v
}

func (s *stream) writeByte(v byte) {
	s.p.WriteByte(s.addr.Pointer(), v)
	s.addr = s.addr.AddInt(1)
}

func (s *stream) readWord() uint16 {
	return uint16(s.readByte()) | uint16(s.readByte())<<8
}

func (s *stream) writeWord(v uint16) {
	s.writeByte(byte(v))
	s.writeByte(byte(v >> 8))
}

func (s *stream) readDWord() uint32 {
	return uint32(s.readWord()) | uint32(s.readWord())<<16
}

func (s *stream) readMapping() Mapping {
	return Mapping{Handle: s.readWord(), Page: s.readWord()}
}

func (s *stream) writeMapping(mp Mapping) {
	s.writeWord(mp.Handle)
	s.writeWord(mp.Page)
}

func (s *stream) readName() (name [NameSize]byte) {
	for i := range name {
		name[i] = s.readByte()
	}
	return
}

func (s *stream) writeName(name [NameSize]byte) {
	for _, v := range name {
		s.writeByte(v)
	}
}

func (s *stream) readPageMap() (pm [NumStandardSlots]Mapping) {
	for i := range pm {
		pm[i] = s.readMapping()
	}
	return
}

func (s *stream) writePageMap(pm [NumStandardSlots]Mapping) {
	for _, mp := range pm {
		s.writeMapping(mp)
	}
}

func (s *stream) readRegion() Region {
	return Region{
		Type:    MemoryType(s.readByte()),
		Handle:  s.readWord(),
		Offset:  s.readWord(),
		Segment: s.readWord(),
	}
}
