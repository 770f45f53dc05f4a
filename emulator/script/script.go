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

// Package script drives a machine from Lua. Scripts see these globals:
// int67 raises the EMS interrupt with a register table, ems calls the
// expanded memory manager directly, mem peeks and pokes guest memory and
// port talks to I/O ports such as the page registers of an EMS board.
package script

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	lua "github.com/yuin/gopher-lua"

	"github.com/andreas-jonsson/vxtems/emulator/machine"
	"github.com/andreas-jonsson/vxtems/emulator/memory"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral/ems"
	"github.com/andreas-jonsson/vxtems/emulator/processor"
)

type Script struct {
	L   *lua.LState
	m   *machine.Machine
	dev *ems.Device
	out io.Writer
}

// New creates a Lua state bound to m and dev. Output from print goes to out.
func New(m *machine.Machine, dev *ems.Device, out io.Writer) *Script {
	s := &Script{
		L:   lua.NewState(),
		m:   m,
		dev: dev,
		out: out,
	}

	s.L.SetGlobal("print", s.L.NewFunction(s.print))
	s.L.SetGlobal("int67", s.L.NewFunction(s.int67))
	emsTable := s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"alloc":   s.emsAlloc,
		"free":    s.emsFree,
		"realloc": s.emsRealloc,
		"map":     s.emsMap,
		"mapseg":  s.emsMapSegment,
		"save":    s.emsSave,
		"restore": s.emsRestore,
		"name":    s.emsName,
		"find":    s.emsFind,
		"pages":   s.emsPages,
		"handles": s.emsHandles,
		"status":  s.emsStatus,
	})
	emsTable.RawSetString("OK", lua.LNumber(ems.StatusOK))
	emsTable.RawSetString("FRAME", lua.LNumber(ems.PageFrameSegment))
	s.L.SetGlobal("ems", emsTable)

	s.L.SetGlobal("mem", s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"read":   s.memRead,
		"write":  s.memWrite,
		"readw":  s.memReadWord,
		"writew": s.memWriteWord,
		"str":    s.memString,
		"puts":   s.memPuts,
	}))

	s.L.SetGlobal("port", s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"read":   s.portRead,
		"write":  s.portWrite,
		"readw":  s.portReadWord,
		"writew": s.portWriteWord,
		"base":   s.portBase,
	}))
	return s
}

func (s *Script) Close() {
	s.L.Close()
}

// RunString executes a chunk of Lua source.
func (s *Script) RunString(src string) error {
	if err := s.L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// RunFile loads name from fs and executes it.
func (s *Script) RunFile(fs afero.Fs, name string) error {
	f, err := fs.Open(name)
	if err != nil {
		return fmt.Errorf("could not open script: %w", err)
	}
	defer f.Close()

	fn, err := s.L.Load(f, name)
	if err != nil {
		return fmt.Errorf("could not load script %s: %w", name, err)
	}
	s.L.Push(fn)
	if err := s.L.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}

func (s *Script) print(L *lua.LState) int {
	n := L.GetTop()
	args := make([]string, n)
	for i := 1; i <= n; i++ {
		args[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(s.out, strings.Join(args, "\t"))
	return 0
}

var registerNames = map[string]processor.Reg{
	"ax": processor.RegAX, "bx": processor.RegBX, "cx": processor.RegCX, "dx": processor.RegDX,
	"si": processor.RegSI, "di": processor.RegDI, "bp": processor.RegBP, "sp": processor.RegSP,
	"es": processor.RegES, "cs": processor.RegCS, "ss": processor.RegSS, "ds": processor.RegDS,
}

// int67 takes a table of register values, raises the interrupt and returns a
// table with all registers and the status from AH.
func (s *Script) int67(L *lua.LState) int {
	in := L.CheckTable(1)
	r := s.m.GetRegisters()
	for name, reg := range registerNames {
		if v, ok := in.RawGetString(name).(lua.LNumber); ok {
			r.Set(reg, uint16(v))
		}
	}

	if err := s.m.Interrupt(ems.Interrupt); err != nil {
		L.RaiseError("int67: %v", err)
		return 0
	}

	out := L.NewTable()
	for name, reg := range registerNames {
		out.RawSetString(name, lua.LNumber(r.Get(reg)))
	}
	out.RawSetString("status", lua.LNumber(r.AH()))
	L.Push(out)
	return 1
}

func checkWord(L *lua.LState, n int) uint16 {
	v := L.CheckInt(n)
	if v < 0 || v > 0xFFFF {
		L.ArgError(n, "value out of range")
	}
	return uint16(v)
}

func pushStatus(L *lua.LState, st ems.Status) int {
	L.Push(lua.LNumber(st))
	return 1
}

func (s *Script) emsAlloc(L *lua.LState) int {
	h, st := s.dev.Manager().Allocate(checkWord(L, 1), L.OptBool(2, false))
	if st != ems.StatusOK {
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LNumber(h))
	}
	L.Push(lua.LNumber(st))
	return 2
}

func (s *Script) emsFree(L *lua.LState) int {
	return pushStatus(L, s.dev.Manager().Release(checkWord(L, 1)))
}

func (s *Script) emsRealloc(L *lua.LState) int {
	return pushStatus(L, s.dev.Manager().Reallocate(checkWord(L, 1), checkWord(L, 2)))
}

// ems.map(slot, handle, page), a nil page unmaps the slot.
func (s *Script) emsMap(L *lua.LState) int {
	page := uint16(ems.NullPage)
	if L.Get(3) != lua.LNil {
		page = checkWord(L, 3)
	}
	return pushStatus(L, s.dev.Manager().MapStandard(L.CheckInt(1), checkWord(L, 2), page))
}

func (s *Script) emsMapSegment(L *lua.LState) int {
	page := uint16(ems.NullPage)
	if L.Get(3) != lua.LNil {
		page = checkWord(L, 3)
	}
	return pushStatus(L, s.dev.Manager().MapSegment(checkWord(L, 1), checkWord(L, 2), page))
}

func (s *Script) emsSave(L *lua.LState) int {
	return pushStatus(L, s.dev.Manager().SavePageMap(checkWord(L, 1)))
}

func (s *Script) emsRestore(L *lua.LState) int {
	return pushStatus(L, s.dev.Manager().RestorePageMap(checkWord(L, 1)))
}

// ems.name(handle) returns the name, ems.name(handle, name) sets it.
func (s *Script) emsName(L *lua.LState) int {
	h := checkWord(L, 1)
	if L.GetTop() < 2 {
		name, st := s.dev.Manager().HandleName(h)
		if st != ems.StatusOK {
			L.Push(lua.LNil)
		} else {
			L.Push(lua.LString(ems.DecodeName(name)))
		}
		L.Push(lua.LNumber(st))
		return 2
	}

	name, err := ems.EncodeName(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	return pushStatus(L, s.dev.Manager().SetHandleName(h, name))
}

func (s *Script) emsFind(L *lua.LState) int {
	name, err := ems.EncodeName(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	h, st := s.dev.Manager().SearchHandleName(name)
	if st != ems.StatusOK {
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LNumber(h))
	}
	L.Push(lua.LNumber(st))
	return 2
}

// ems.pages() returns free and total pages, ems.pages(handle) the size of a handle.
func (s *Script) emsPages(L *lua.LState) int {
	if L.GetTop() == 0 {
		free, total := s.dev.Manager().PageCounts()
		L.Push(lua.LNumber(free))
		L.Push(lua.LNumber(total))
		return 2
	}

	pages, st := s.dev.Manager().HandlePages(checkWord(L, 1))
	if st != ems.StatusOK {
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LNumber(pages))
	}
	L.Push(lua.LNumber(st))
	return 2
}

func (s *Script) emsHandles(L *lua.LState) int {
	t := L.NewTable()
	for _, h := range s.dev.Manager().HandleDirectory() {
		e := L.NewTable()
		e.RawSetString("handle", lua.LNumber(h.Handle))
		e.RawSetString("pages", lua.LNumber(h.Pages))
		e.RawSetString("name", lua.LString(h.DisplayName()))
		t.Append(e)
	}
	L.Push(t)
	return 1
}

func (s *Script) emsStatus(L *lua.LState) int {
	L.Push(lua.LString(ems.Status(L.CheckInt(1)).String()))
	return 1
}

func (s *Script) memRead(L *lua.LState) int {
	L.Push(lua.LNumber(s.m.ReadByte(memory.NewPointer(checkWord(L, 1), checkWord(L, 2)))))
	return 1
}

func (s *Script) memWrite(L *lua.LState) int {
	s.m.WriteByte(memory.NewPointer(checkWord(L, 1), checkWord(L, 2)), byte(L.CheckInt(3)))
	return 0
}

func (s *Script) memReadWord(L *lua.LState) int {
	L.Push(lua.LNumber(s.m.ReadWord(memory.NewPointer(checkWord(L, 1), checkWord(L, 2)))))
	return 1
}

func (s *Script) memWriteWord(L *lua.LState) int {
	s.m.WriteWord(memory.NewPointer(checkWord(L, 1), checkWord(L, 2)), checkWord(L, 3))
	return 0
}

// mem.str(seg, off, n) reads n bytes as a string.
func (s *Script) memString(L *lua.LState) int {
	addr := memory.NewAddress(checkWord(L, 1), checkWord(L, 2))
	buf := make([]byte, L.CheckInt(3))
	for i := range buf {
		buf[i] = s.m.ReadByte(addr.Pointer())
		addr = addr.AddInt(1)
	}
	L.Push(lua.LString(buf))
	return 1
}

// mem.puts(seg, off, str) writes the bytes of str.
func (s *Script) memPuts(L *lua.LState) int {
	addr := memory.NewAddress(checkWord(L, 1), checkWord(L, 2))
	for _, c := range []byte(L.CheckString(3)) {
		s.m.WriteByte(addr.Pointer(), c)
		addr = addr.AddInt(1)
	}
	return 0
}

func (s *Script) portRead(L *lua.LState) int {
	L.Push(lua.LNumber(s.m.InByte(checkWord(L, 1))))
	return 1
}

func (s *Script) portWrite(L *lua.LState) int {
	s.m.OutByte(checkWord(L, 1), byte(L.CheckInt(2)))
	return 0
}

func (s *Script) portReadWord(L *lua.LState) int {
	L.Push(lua.LNumber(s.m.InWord(checkWord(L, 1))))
	return 1
}

func (s *Script) portWriteWord(L *lua.LState) int {
	s.m.OutWord(checkWord(L, 1), checkWord(L, 2))
	return 0
}

// port.base() is the first page register port, or nil without a board.
func (s *Script) portBase(L *lua.LState) int {
	if s.dev.BasePort == 0 {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(s.dev.BasePort))
	return 1
}
