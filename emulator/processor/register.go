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

package processor

import (
	"fmt"
	"strings"
)

// Reg indexes the general purpose and segment registers in encoding order.
type Reg int

const (
	RegAX Reg = iota
	RegCX
	RegDX
	RegBX
	RegSP
	RegBP
	RegSI
	RegDI
	RegES
	RegCS
	RegSS
	RegDS
	numRegs
)

var regNames = [numRegs]string{"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI", "ES", "CS", "SS", "DS"}

func (r Reg) String() string {
	if r < 0 || r >= numRegs {
		return fmt.Sprintf("Reg(%d)", int(r))
	}
	return regNames[r]
}

type Registers struct {
	regs [numRegs]uint16
}

func (r *Registers) Reset() {
	*r = Registers{}
}

func (r *Registers) Get(reg Reg) uint16 {
	return r.regs[reg]
}

func (r *Registers) Set(reg Reg, v uint16) {
	r.regs[reg] = v
}

// Low and High access the byte halves of AX, CX, DX and BX.
func (r *Registers) Low(reg Reg) byte {
	return byte(r.regs[reg])
}

func (r *Registers) High(reg Reg) byte {
	return byte(r.regs[reg] >> 8)
}

func (r *Registers) SetLow(reg Reg, v byte) {
	r.regs[reg] = r.regs[reg]&0xFF00 | uint16(v)
}

func (r *Registers) SetHigh(reg Reg, v byte) {
	r.regs[reg] = r.regs[reg]&0xFF | uint16(v)<<8
}

func (r *Registers) AL() byte       { return r.Low(RegAX) }
func (r *Registers) AH() byte       { return r.High(RegAX) }
func (r *Registers) AX() uint16     { return r.regs[RegAX] }
func (r *Registers) SetAL(v byte)   { r.SetLow(RegAX, v) }
func (r *Registers) SetAH(v byte)   { r.SetHigh(RegAX, v) }
func (r *Registers) SetAX(v uint16) { r.regs[RegAX] = v }

func (r *Registers) BL() byte       { return r.Low(RegBX) }
func (r *Registers) BH() byte       { return r.High(RegBX) }
func (r *Registers) BX() uint16     { return r.regs[RegBX] }
func (r *Registers) SetBL(v byte)   { r.SetLow(RegBX, v) }
func (r *Registers) SetBH(v byte)   { r.SetHigh(RegBX, v) }
func (r *Registers) SetBX(v uint16) { r.regs[RegBX] = v }

func (r *Registers) CL() byte       { return r.Low(RegCX) }
func (r *Registers) CH() byte       { return r.High(RegCX) }
func (r *Registers) CX() uint16     { return r.regs[RegCX] }
func (r *Registers) SetCL(v byte)   { r.SetLow(RegCX, v) }
func (r *Registers) SetCH(v byte)   { r.SetHigh(RegCX, v) }
func (r *Registers) SetCX(v uint16) { r.regs[RegCX] = v }

func (r *Registers) DL() byte       { return r.Low(RegDX) }
func (r *Registers) DH() byte       { return r.High(RegDX) }
func (r *Registers) DX() uint16     { return r.regs[RegDX] }
func (r *Registers) SetDL(v byte)   { r.SetLow(RegDX, v) }
func (r *Registers) SetDH(v byte)   { r.SetHigh(RegDX, v) }
func (r *Registers) SetDX(v uint16) { r.regs[RegDX] = v }

func (r *Registers) SP() uint16     { return r.regs[RegSP] }
func (r *Registers) SetSP(v uint16) { r.regs[RegSP] = v }
func (r *Registers) BP() uint16     { return r.regs[RegBP] }
func (r *Registers) SetBP(v uint16) { r.regs[RegBP] = v }
func (r *Registers) SI() uint16     { return r.regs[RegSI] }
func (r *Registers) SetSI(v uint16) { r.regs[RegSI] = v }
func (r *Registers) DI() uint16     { return r.regs[RegDI] }
func (r *Registers) SetDI(v uint16) { r.regs[RegDI] = v }

func (r *Registers) ES() uint16     { return r.regs[RegES] }
func (r *Registers) SetES(v uint16) { r.regs[RegES] = v }
func (r *Registers) CS() uint16     { return r.regs[RegCS] }
func (r *Registers) SetCS(v uint16) { r.regs[RegCS] = v }
func (r *Registers) SS() uint16     { return r.regs[RegSS] }
func (r *Registers) SetSS(v uint16) { r.regs[RegSS] = v }
func (r *Registers) DS() uint16     { return r.regs[RegDS] }
func (r *Registers) SetDS(v uint16) { r.regs[RegDS] = v }

func (r *Registers) GetValues() [12]uint16 {
	return r.regs
}

func (r *Registers) String() string {
	var sb strings.Builder
	for i, v := range r.regs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%04X", Reg(i), v)
	}
	return sb.String()
}
