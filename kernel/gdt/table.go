package gdt

import (
	"lmkernel/kernel/cpu"
	"unsafe"
)

// TableCapacity is the number of 8-byte slots in a Table, including the
// mandatory null descriptor.
const TableCapacity = 8

// Table is a write-once global descriptor table. Slot 0 always holds the null
// descriptor, so the first appended descriptor lands in slot 1. Descriptors
// are never removed or reordered: each selector returned by Append encodes
// the slot position of its descriptor.
type Table struct {
	slots [TableCapacity]uint64

	// used is the number of slots taken after the null descriptor and
	// count the number of appended descriptors.
	used, count int
}

// Append adds d to the next free slot(s) and returns its selector. User
// segment selectors request the descriptor's own privilege level; system
// segment selectors always request ring 0. Append panics if d does not fit.
func (t *Table) Append(d Descriptor) SegmentSelector {
	index, need := t.used+1, 1
	if d.system {
		need = 2
	}

	if index+need > TableCapacity {
		panic(errTableFull)
	}

	t.slots[index] = d.low
	if d.system {
		t.slots[index+1] = d.high
	}
	t.used += need
	t.count++

	rpl := Ring0
	if !d.system {
		rpl = d.DPL()
	}
	return NewSegmentSelector(uint16(index), rpl)
}

// Len returns the number of descriptors appended to the table.
func (t *Table) Len() int {
	return t.count
}

// Slots returns the number of slots in use, including the null descriptor.
func (t *Table) Slots() int {
	return t.used + 1
}

// Entry returns the raw contents of slot i.
func (t *Table) Entry(i int) uint64 {
	return t.slots[i]
}

// Pointer returns the LGDT operand for the table. The limit only covers the
// slots in use.
func (t *Table) Pointer() cpu.DescriptorTablePointer {
	return cpu.DescriptorTablePointer{
		Base:  uintptr(unsafe.Pointer(&t.slots[0])),
		Limit: uint16(t.Slots()*8 - 1),
	}
}

// markTSSAvailable resets the type of the TSS descriptor referenced by sel
// from busy to available. LTR marks the descriptor busy and faults when asked
// to load a busy one, so the bit must be reset before every load.
func (t *Table) markTSSAvailable(sel SegmentSelector) {
	slot := &t.slots[sel.Index()]
	if *slot&systemTypeMask == tssBusy {
		*slot = *slot&^systemTypeMask | tssAvailable
	}
}
