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
	"errors"
	"strings"
)

// Mode selects what kind of expanded memory is emulated.
type Mode int

const (
	// ModeEMM386 behaves like a memory manager on a 386. Only the page frame
	// and graphics memory can be used for segment mapping.
	ModeEMM386 Mode = iota
	// ModeBoard behaves like an expanded memory board, which can back any
	// segment below the system BIOS.
	ModeBoard
	// ModeMixed is a board with EMM386 sized storage.
	ModeMixed
)

const (
	BoardPages  = 0x200 // 8MB
	EMM386Pages = 0x800 // 32MB
	MaxPages    = 0x7FFF
)

var ErrInvalidMode = errors.New("invalid EMS mode")

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "emm386", "true":
		return ModeEMM386, nil
	case "board", "emsboard":
		return ModeBoard, nil
	case "mixed":
		return ModeMixed, nil
	}
	return ModeEMM386, ErrInvalidMode
}

func (m Mode) String() string {
	switch m {
	case ModeBoard:
		return "board"
	case ModeMixed:
		return "mixed"
	default:
		return "emm386"
	}
}

func (m Mode) DefaultPages() int {
	if m == ModeBoard {
		return BoardPages
	}
	return EMM386Pages
}

// Config describes the expanded memory of one machine.
type Config struct {
	Mode Mode

	// Pages overrides the pool size given by Mode when non-zero.
	Pages int
}

func (c Config) pages() int {
	switch {
	case c.Pages <= 0:
		return c.Mode.DefaultPages()
	case c.Pages > MaxPages:
		return MaxPages
	}
	return c.Pages
}
