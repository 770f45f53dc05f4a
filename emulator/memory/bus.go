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
	"errors"
)

// FrameSize is the granularity of window registrations.
const FrameSize = 0x1000

const (
	numFrames  = AddressSpace / FrameSize
	maxDevices = 0x100
)

var (
	ErrUnaligned     = errors.New("window is not frame aligned")
	ErrOutOfRange    = errors.New("window is outside of the address space")
	ErrRegistered    = errors.New("window is already registered")
	ErrNotRegistered = errors.New("window is not registered")
	ErrTooManyDevice = errors.New("too many memory devices")
)

// Bus is the 1MB memory map. Every address is owned by an installed device,
// but a registered window takes precedence over the device beneath it.
type Bus struct {
	mmap    [AddressSpace]byte
	devices []Memory
	frames  [numFrames][]byte
}

func NewBus() *Bus {
	return &Bus{devices: []Memory{&DummyMemory{}}}
}

func (b *Bus) deviceIndex(device Memory) (byte, error) {
	for i, d := range b.devices {
		if d == device {
			return byte(i), nil
		}
	}
	if len(b.devices) == maxDevices {
		return 0, ErrTooManyDevice
	}
	b.devices = append(b.devices, device)
	return byte(len(b.devices) - 1), nil
}

// InstallDevice maps the inclusive range from-to to device.
func (b *Bus) InstallDevice(device Memory, from, to Pointer) error {
	if to >= AddressSpace || from > to {
		return ErrOutOfRange
	}
	idx, err := b.deviceIndex(device)
	if err != nil {
		return err
	}
	for from <= to {
		b.mmap[from] = idx
		from++
	}
	return nil
}

// Device returns the device installed at addr, ignoring windows.
func (b *Bus) Device(addr Pointer) Memory {
	return b.devices[b.mmap[addr&(AddressSpace-1)]]
}

func (b *Bus) ReadByte(addr Pointer) byte {
	addr &= AddressSpace - 1
	if f := b.frames[addr/FrameSize]; f != nil {
		return f[addr%FrameSize]
	}
	return b.devices[b.mmap[addr]].ReadByte(addr)
}

func (b *Bus) WriteByte(addr Pointer, data byte) {
	addr &= AddressSpace - 1
	if f := b.frames[addr/FrameSize]; f != nil {
		f[addr%FrameSize] = data
		return
	}
	b.devices[b.mmap[addr]].WriteByte(addr, data)
}

func (b *Bus) checkWindow(addr Pointer, size int) error {
	if size <= 0 || addr != AlignDown(addr, FrameSize) || size != Align(size, FrameSize) {
		return ErrUnaligned
	}
	if int(addr)+size > AddressSpace {
		return ErrOutOfRange
	}
	return nil
}

// Register aliases backing at addr. The whole window must be free, nothing is
// changed on error.
func (b *Bus) Register(addr Pointer, backing []byte) error {
	if err := b.checkWindow(addr, len(backing)); err != nil {
		return err
	}
	first := int(addr / FrameSize)
	n := len(backing) / FrameSize
	for i := first; i < first+n; i++ {
		if b.frames[i] != nil {
			return ErrRegistered
		}
	}
	for i := 0; i < n; i++ {
		b.frames[first+i] = backing[i*FrameSize : (i+1)*FrameSize : (i+1)*FrameSize]
	}
	return nil
}

// Unregister removes a window previously installed with Register.
func (b *Bus) Unregister(addr Pointer, size int) error {
	if err := b.checkWindow(addr, size); err != nil {
		return err
	}
	first := int(addr / FrameSize)
	n := size / FrameSize
	for i := first; i < first+n; i++ {
		if b.frames[i] == nil {
			return ErrNotRegistered
		}
	}
	for i := first; i < first+n; i++ {
		b.frames[i] = nil
	}
	return nil
}

// Registered reports if addr is currently served by a window.
func (b *Bus) Registered(addr Pointer) bool {
	return b.frames[(addr&(AddressSpace-1))/FrameSize] != nil
}
