package gdt

import "unsafe"

// DescriptorFlags are the bits of a segment descriptor's first quadword.
type DescriptorFlags uint64

const (
	// Accessed is set by the CPU when the segment is loaded.
	Accessed DescriptorFlags = 1 << 40

	// Writable allows writes to a data segment; for code segments it
	// allows reads instead.
	Writable DescriptorFlags = 1 << 41

	// Conforming lets less privileged code call into a code segment.
	Conforming DescriptorFlags = 1 << 42

	// Executable marks a code segment.
	Executable DescriptorFlags = 1 << 43

	// UserSegment is the S bit: set for code and data descriptors, clear
	// for system descriptors such as the TSS. It says nothing about the
	// privilege level of the segment.
	UserSegment DescriptorFlags = 1 << 44

	// DPLRing3 sets the descriptor privilege level to ring 3.
	DPLRing3 DescriptorFlags = 3 << 45

	// Present must be set for any usable descriptor.
	Present DescriptorFlags = 1 << 47

	// Available is free for use by the kernel.
	Available DescriptorFlags = 1 << 52

	// LongMode marks a 64-bit code segment.
	LongMode DescriptorFlags = 1 << 53

	// DefaultSize selects 32-bit operands; must be clear when LongMode
	// is set.
	DefaultSize DescriptorFlags = 1 << 54

	// Granularity scales the limit by 4 KiB.
	Granularity DescriptorFlags = 1 << 55
)

const (
	dplShift = 45

	systemTypeShift = 40
	systemTypeMask  = 0xf << systemTypeShift

	// System descriptor types for a 64-bit TSS. The CPU switches an
	// available TSS to busy when the task register is loaded with it.
	tssAvailable = 0x9 << systemTypeShift
	tssBusy      = 0xb << systemTypeShift

	// baseLimitMask covers the base and limit fields scattered across
	// the first slot.
	baseLimitMask DescriptorFlags = 0xff0f00ffffffffff
)

// Descriptor is a GDT entry. User segments occupy one table slot; system
// segments such as the TSS descriptor occupy two.
type Descriptor struct {
	low, high uint64
	system    bool
}

// UserSegmentDescriptor returns a single-slot code or data descriptor.
func UserSegmentDescriptor(flags DescriptorFlags) Descriptor {
	return Descriptor{low: uint64(flags)}
}

// KernelCodeSegment returns the 64-bit ring 0 code segment descriptor.
func KernelCodeSegment() Descriptor {
	return UserSegmentDescriptor(UserSegment | Present | Executable | LongMode)
}

// KernelDataSegment returns the ring 0 data segment descriptor. The
// UserSegment bit is the code/data structural tag, which data descriptors
// carry at every privilege level.
func KernelDataSegment() Descriptor {
	return UserSegmentDescriptor(UserSegment | Present | Writable | LongMode)
}

// TSSSegment returns the two-slot system descriptor for tss. The base address
// is split across bits 16-39 and 56-63 of the first slot, with its upper 32
// bits in the second slot.
func TSSSegment(tss *TaskStateSegment) Descriptor {
	base := uint64(uintptr(unsafe.Pointer(tss)))
	limit := uint64(unsafe.Sizeof(*tss) - 1)

	low := uint64(Present) | tssAvailable
	low |= limit & 0xffff
	low |= (limit >> 16 & 0xf) << 48
	low |= (base & 0xffffff) << 16
	low |= (base >> 24 & 0xff) << 56

	return Descriptor{low: low, high: base >> 32, system: true}
}

// DecodeDescriptor rebuilds a descriptor from raw table slots. high is only
// used when low describes a system segment.
func DecodeDescriptor(low, high uint64) Descriptor {
	if DescriptorFlags(low)&UserSegment != 0 {
		return Descriptor{low: low}
	}
	return Descriptor{low: low, high: high, system: true}
}

// Low returns the first slot of the descriptor.
func (d Descriptor) Low() uint64 { return d.low }

// High returns the second slot of a system descriptor.
func (d Descriptor) High() uint64 { return d.high }

// IsSystem reports whether d occupies two table slots.
func (d Descriptor) IsSystem() bool { return d.system }

// Flags returns the flag bits of the first slot.
func (d Descriptor) Flags() DescriptorFlags {
	return DescriptorFlags(d.low) &^ baseLimitMask
}

// DPL returns the descriptor privilege level.
func (d Descriptor) DPL() PrivilegeLevel {
	return PrivilegeLevel(d.low >> dplShift & 3)
}

// Base returns the segment base address.
func (d Descriptor) Base() uint64 {
	base := d.low>>16&0xffffff | (d.low>>56&0xff)<<24
	if d.system {
		base |= d.high << 32
	}
	return base
}

// SystemType returns the 4-bit type field of a system descriptor.
func (d Descriptor) SystemType() uint8 {
	return uint8(d.low & systemTypeMask >> systemTypeShift)
}

// TSSBusy reports whether d is a TSS descriptor that the CPU marked busy.
func (d Descriptor) TSSBusy() bool {
	return d.system && d.low&systemTypeMask == tssBusy
}

// Limit returns the raw 20-bit segment limit.
func (d Descriptor) Limit() uint32 {
	return uint32(d.low&0xffff | (d.low>>48&0xf)<<16)
}
