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

// Package machine hosts peripherals without an instruction decoder. Software
// interrupts are raised directly with Interrupt, which is how the rest of the
// emulator calls into BIOS and driver services.
package machine

import (
	"errors"
	"log"

	"github.com/andreas-jonsson/vxtems/emulator/memory"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral"
	"github.com/andreas-jonsson/vxtems/emulator/processor"
)

const MaxPeripherals = 32

var ErrNoPeripheral = errors.New("could not find peripheral")

type Machine struct {
	processor.Registers

	stats        processor.Stats
	peripherals  []peripheral.Peripheral
	interceptors [0x100]processor.InterruptHandler

	iomap         [0x10000]byte
	ioPeripherals [MaxPeripherals]memory.IO

	bus *memory.Bus
}

// New installs peripherals in order and returns the errors of the ones that failed.
func New(peripherals []peripheral.Peripheral) (*Machine, []error) {
	p := &Machine{peripherals: peripherals, bus: memory.NewBus()}

	dummyIO := &memory.DummyIO{}
	for i := range p.ioPeripherals[:] {
		p.ioPeripherals[i] = dummyIO
	}

	for i := 1; i <= len(peripherals) && i < MaxPeripherals; i++ {
		if dev, ok := peripherals[i-1].(memory.IO); ok {
			p.ioPeripherals[i] = dev
		}
	}
	return p, p.installPeripherals()
}

func (p *Machine) installPeripherals() []error {
	var errs []error
	for _, d := range p.peripherals {
		if err := d.Install(p); err != nil {
			log.Printf("Failed to install peripheral \"%s\": %v", d.Name(), err)
			errs = append(errs, err)
		}
	}
	return errs
}

func (p *Machine) Close() {
	for _, d := range p.peripherals {
		if cd, b := d.(peripheral.PeripheralCloser); b {
			if err := cd.Close(); err != nil {
				log.Print("Failed to close peripheral: ", err)
			}
		}
	}
}

func (p *Machine) Reset() {
	log.Print("Machine reset!")

	p.Registers.Reset()
	for _, d := range p.peripherals {
		d.Reset()
	}
}

// Step advances all peripherals by the given number of cycles.
func (p *Machine) Step(cycles int) error {
	for _, d := range p.peripherals {
		if err := d.Step(cycles); err != nil {
			return err
		}
	}
	return nil
}

// Interrupt dispatches software interrupt n to the installed handler.
func (p *Machine) Interrupt(n int) error {
	if n < 0 || n > 0xFF {
		return processor.ErrInvalidInterrupt
	}
	p.stats.NumInterrupts++
	if h := p.interceptors[n]; h != nil {
		return h.HandleInterrupt(n)
	}
	return processor.ErrInterruptNotHandled
}

func (p *Machine) Peripherals() []peripheral.Peripheral {
	return p.peripherals
}

func (p *Machine) GetStats() processor.Stats {
	s := p.stats
	p.stats = processor.Stats{}
	return s
}

func (p *Machine) GetRegisters() *processor.Registers {
	return &p.Registers
}

func (p *Machine) GetMappedMemoryDevice(addr memory.Pointer) memory.Memory {
	return p.bus.Device(addr)
}

func (p *Machine) GetMappedIODevice(port uint16) memory.IO {
	return p.ioPeripherals[p.iomap[port]]
}

func (p *Machine) GetMemoryMapper() memory.Mapper {
	return p.bus
}

func (p *Machine) InByte(port uint16) byte {
	p.stats.RX++
	return p.GetMappedIODevice(port).In(port)
}

func (p *Machine) OutByte(port uint16, data byte) {
	p.stats.TX++
	p.GetMappedIODevice(port).Out(port, data)
}

func (p *Machine) InWord(port uint16) uint16 {
	return uint16(p.InByte(port)) | (uint16(p.InByte(port+1)) << 8)
}

func (p *Machine) OutWord(port uint16, data uint16) {
	p.OutByte(port, byte(data&0xFF))
	p.OutByte(port+1, byte(data>>8))
}

func (p *Machine) ReadByte(addr memory.Pointer) byte {
	p.stats.RX++
	return p.bus.ReadByte(addr)
}

func (p *Machine) WriteByte(addr memory.Pointer, data byte) {
	p.stats.TX++
	p.bus.WriteByte(addr, data)
}

func (p *Machine) ReadWord(addr memory.Pointer) uint16 {
	return uint16(p.ReadByte(addr)) | (uint16(p.ReadByte(addr+1)) << 8)
}

func (p *Machine) WriteWord(addr memory.Pointer, data uint16) {
	p.WriteByte(addr, byte(data&0xFF))
	p.WriteByte(addr+1, byte(data>>8))
}

func (p *Machine) InstallInterruptHandler(num int, handler processor.InterruptHandler) error {
	if num < 0 || num > 0xFF {
		return processor.ErrInvalidInterrupt
	}
	p.interceptors[num] = handler
	return nil
}

func (p *Machine) InstallMemoryDevice(device memory.Memory, from, to memory.Pointer) error {
	return p.bus.InstallDevice(device, from, to)
}

func (p *Machine) InstallIODevice(device memory.IO, from, to uint16) error {
	for i, d := range p.ioPeripherals[:] {
		if d == device {
			for {
				p.iomap[from] = byte(i)
				if from == to {
					break
				}
				from++
			}
			return nil
		}
	}
	return ErrNoPeripheral
}
