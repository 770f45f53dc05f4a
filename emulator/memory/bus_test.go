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

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainMemory struct {
	mem [AddressSpace]byte
}

func (m *plainMemory) ReadByte(addr Pointer) byte {
	return m.mem[addr]
}

func (m *plainMemory) WriteByte(addr Pointer, data byte) {
	m.mem[addr] = data
}

func TestAddress(t *testing.T) {
	a := NewAddress(0xE000, 0xFFFF)
	assert.Equal(t, uint16(0xE000), a.Segment())
	assert.Equal(t, Pointer(0xEFFFF), a.Pointer())
	assert.Equal(t, uint16(0), a.AddInt(1).Offset())
	assert.Equal(t, Pointer(0xE0000), SegmentPointer(0xE000))
	assert.Equal(t, Pointer(0xF), NewPointer(0xFFFF, 0x1F))
}

func TestAlign(t *testing.T) {
	assert.Equal(t, 0x2000, Align(0x1001, FrameSize))
	assert.Equal(t, 0x1000, Align(0x1000, FrameSize))
	assert.Equal(t, Pointer(0x1000), AlignDown(Pointer(0x1FFF), FrameSize))
}

func TestBusDevices(t *testing.T) {
	b := NewBus()
	m := &plainMemory{}
	require.NoError(t, b.InstallDevice(m, 0, AddressSpace-1))

	b.WriteByte(0x1234, 0x42)
	assert.Equal(t, byte(0x42), m.mem[0x1234])
	assert.Equal(t, byte(0x42), b.ReadByte(0x1234))
	assert.Equal(t, Memory(m), b.Device(0x1234))

	assert.Equal(t, ErrOutOfRange, b.InstallDevice(m, 0, AddressSpace))
}

func TestBusUnmappedDevice(t *testing.T) {
	b := NewBus()
	b.devices[0] = &DummyMemory{Quiet: true}
	assert.Equal(t, byte(0xFF), b.ReadByte(0x500))
}

func TestBusWindows(t *testing.T) {
	b := NewBus()
	m := &plainMemory{}
	require.NoError(t, b.InstallDevice(m, 0, AddressSpace-1))

	backing := make([]byte, 0x4000)
	require.NoError(t, b.Register(0xE0000, backing))
	assert.True(t, b.Registered(0xE3FFF))
	assert.False(t, b.Registered(0xE4000))

	b.WriteByte(0xE0010, 0x99)
	assert.Equal(t, byte(0x99), backing[0x10])
	assert.Equal(t, byte(0), m.mem[0xE0010])

	backing[0x3FFF] = 0x77
	assert.Equal(t, byte(0x77), b.ReadByte(0xE3FFF))

	assert.Equal(t, ErrRegistered, b.Register(0xE2000, make([]byte, 0x4000)))
	assert.True(t, b.Registered(0xE0000))
	assert.False(t, b.Registered(0xE4000), "failed registration must not leave frames behind")

	require.NoError(t, b.Unregister(0xE0000, 0x4000))
	assert.False(t, b.Registered(0xE0000))
	assert.Equal(t, ErrNotRegistered, b.Unregister(0xE0000, 0x4000))
	assert.Equal(t, byte(0), b.ReadByte(0xE0010))
}

func TestBusWindowErrors(t *testing.T) {
	b := NewBus()
	assert.Equal(t, ErrUnaligned, b.Register(0xE0001, make([]byte, FrameSize)))
	assert.Equal(t, ErrUnaligned, b.Register(0xE0000, make([]byte, 10)))
	assert.Equal(t, ErrUnaligned, b.Register(0xE0000, nil))
	assert.Equal(t, ErrOutOfRange, b.Register(0xFF000, make([]byte, 2*FrameSize)))
	assert.Equal(t, ErrUnaligned, b.Unregister(0xE0000, 3))
}
