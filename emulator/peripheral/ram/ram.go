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

package ram

import (
	"crypto/rand"
	"errors"

	"github.com/andreas-jonsson/vxtems/emulator/memory"
	"github.com/andreas-jonsson/vxtems/emulator/processor"
)

const (
	DefaultSize = 0xA0000 // 640KB
	MaxSize     = memory.AddressSpace
)

var ErrInvalidSize = errors.New("invalid RAM size")

// Device is conventional memory starting at address zero.
type Device struct {
	Size  int
	Clear bool
	mem   []byte
}

func (m *Device) Install(p processor.Processor) error {
	if m.Size == 0 {
		m.Size = DefaultSize
	}
	if m.Size < 0 || m.Size > MaxSize {
		return ErrInvalidSize
	}

	m.mem = make([]byte, m.Size)
	if !m.Clear {
		rand.Read(m.mem) // Scramble memory.
	}
	return p.InstallMemoryDevice(m, 0x0, memory.Pointer(m.Size-1))
}

func (m *Device) Name() string {
	return "RAM"
}

func (m *Device) Reset() {
}

func (m *Device) Step(int) error {
	return nil
}

// Bytes exposes the backing store. Mostly useful for inspection.
func (m *Device) Bytes() []byte {
	return m.mem
}

func (m *Device) ReadByte(addr memory.Pointer) byte {
	return m.mem[addr]
}

func (m *Device) WriteByte(addr memory.Pointer, data byte) {
	m.mem[addr] = data
}
