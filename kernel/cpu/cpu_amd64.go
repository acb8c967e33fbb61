// Package cpu exposes the raw amd64 instructions used by the kernel. Every
// function without a body is implemented in cpu_amd64.s.
package cpu

import (
	"encoding/binary"
	"unsafe"
)

// Halt disables interrupts and stops instruction execution.
func Halt()

// DescriptorTablePointer describes the location of a descriptor table in the
// form expected by the LGDT and LIDT instructions.
type DescriptorTablePointer struct {
	// Limit is the size of the table in bytes minus one.
	Limit uint16

	// Base is the linear address of the first table entry.
	Base uintptr
}

// pseudoDescriptorSize is the size of the packed {limit, base} operand read
// by LGDT in long mode.
const pseudoDescriptorSize = 10

// encode packs p into the 10-byte little-endian layout used by LGDT: a 16-bit
// limit immediately followed by the 64-bit base address.
func (p *DescriptorTablePointer) encode() [pseudoDescriptorSize]byte {
	var buf [pseudoDescriptorSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], p.Limit)
	binary.LittleEndian.PutUint64(buf[2:], uint64(p.Base))
	return buf
}

// LoadGDT loads the global descriptor table register with the table described
// by p. The table must stay mapped for as long as any segment register refers
// to one of its descriptors.
func LoadGDT(p *DescriptorTablePointer) {
	buf := p.encode()
	loadGDT(uintptr(unsafe.Pointer(&buf[0])))
}

// loadGDT executes LGDT with the pseudo-descriptor stored at addr.
func loadGDT(addr uintptr)

// SetCodeSegment reloads CS with sel. Long mode does not allow a MOV into CS,
// so the implementation performs a far return into the caller.
func SetCodeSegment(sel uint16)

// LoadDataSegment loads DS with sel.
func LoadDataSegment(sel uint16)

// LoadExtraSegment loads ES with sel.
func LoadExtraSegment(sel uint16)

// LoadStackSegment loads SS with sel.
func LoadStackSegment(sel uint16)

// LoadTaskRegister loads the task register with sel. The referenced TSS
// descriptor is marked busy by the CPU as a side-effect.
func LoadTaskRegister(sel uint16)
