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

package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-jonsson/vxtems/emulator/peripheral/ems"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral/ram"
)

func TestConfigFromFlags(t *testing.T) {
	defer func(mode string, pages int) { emsMode, emsPages = mode, pages }(emsMode, emsPages)

	emsMode, emsPages = "Board", 64
	cfg, err := ConfigFromFlags()
	require.NoError(t, err)
	assert.Equal(t, ems.ModeBoard, cfg.Mode)
	assert.Equal(t, 64, cfg.Pages)

	emsMode = "xms"
	_, err = ConfigFromFlags()
	assert.ErrorIs(t, err, ems.ErrInvalidMode)

	emsMode, emsPages = "mixed", -1
	_, err = ConfigFromFlags()
	assert.ErrorIs(t, err, ErrInvalidPages)
}

func TestNewMachine(t *testing.T) {
	e, err := NewMachine(Config{Mode: ems.ModeMixed, Pages: 32, RAM: 0x20000})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 32, e.EMS.Manager().Pool().Total())
	assert.Equal(t, ems.ModeMixed, e.EMS.Manager().Mode())
	assert.Len(t, e.RAM.Bytes(), 0x20000)

	e.SetAX(0x4200)
	require.NoError(t, e.Interrupt(ems.Interrupt))
	assert.Equal(t, byte(0), e.AH())
	assert.Equal(t, uint16(32), e.DX())
}

func TestNewMachineInvalidRAM(t *testing.T) {
	_, err := NewMachine(Config{RAM: ram.MaxSize + 1})
	assert.ErrorIs(t, err, ram.ErrInvalidSize)
}
