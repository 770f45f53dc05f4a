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

package rom

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-jonsson/vxtems/emulator/machine"
	"github.com/andreas-jonsson/vxtems/emulator/memory"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral"
)

func TestROM(t *testing.T) {
	dev := &Device{Base: memory.NewPointer(0xF000, 0), Reader: strings.NewReader("BIOS")}
	m, errs := machine.New([]peripheral.Peripheral{dev})
	require.Empty(t, errs)

	assert.Equal(t, 4, dev.Size())
	assert.Equal(t, "ROM", dev.Name())
	assert.Equal(t, byte('O'), m.ReadByte(0xF0002))

	m.WriteByte(0xF0002, 'X')
	assert.Equal(t, byte('O'), m.ReadByte(0xF0002))
}

func TestEmptyROM(t *testing.T) {
	_, errs := machine.New([]peripheral.Peripheral{&Device{Reader: bytes.NewReader(nil)}})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrEmptyImage)
}
